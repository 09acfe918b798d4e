package domain

// QueueEntry es una pista en la cola de un guild. Nunca se modifica en sitio:
// se crea con enqueue y se borra con dequeue/clear.
type QueueEntry struct {
	GuildID     string
	Position    int64 // indice de insercion por guild, estrictamente creciente
	TrackRef    string
	RequestedBy string
	AddedAtMs   int64
}
