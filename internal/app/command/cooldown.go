package command

import (
	"sync"
	"time"
)

type cooldownKey struct {
	command string
	user    string
}

type cooldownRecord struct {
	expiresAt time.Time
	// pending: hay una ejecución en vuelo para esta key; bloquea a las demás
	pending bool
	window  time.Duration
}

// Cooldowns guarda en memoria (nunca persiste) cuándo puede volver a usar un usuario un comando.
type Cooldowns struct {
	mu   sync.Mutex
	next map[cooldownKey]cooldownRecord
	now  func() time.Time
}

func NewCooldowns(now func() time.Time) *Cooldowns {
	if now == nil {
		now = time.Now
	}
	return &Cooldowns{next: map[cooldownKey]cooldownRecord{}, now: now}
}

// Reserve hace el check-and-set atómico. Si devuelve ok=false, remaining es lo que falta.
// Con ok=true la key queda reservada hasta Commit o Release.
func (c *Cooldowns) Reserve(command, userID string, window time.Duration) (time.Duration, bool) {
	k := cooldownKey{command, userID}
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()
	if rec, ok := c.next[k]; ok {
		if rec.pending {
			return rec.window, false
		}
		if now.Before(rec.expiresAt) {
			return rec.expiresAt.Sub(now), false
		}
		delete(c.next, k)
	}
	c.next[k] = cooldownRecord{pending: true, window: window}
	return 0, true
}

// Commit arranca la ventana desde ahora (ejecución exitosa).
func (c *Cooldowns) Commit(command, userID string, window time.Duration) {
	k := cooldownKey{command, userID}
	now := c.now()

	c.mu.Lock()
	c.next[k] = cooldownRecord{expiresAt: now.Add(window), window: window}
	c.mu.Unlock()
}

// Release libera una reserva sin aplicar cooldown (la ejecución falló).
func (c *Cooldowns) Release(command, userID string) {
	k := cooldownKey{command, userID}

	c.mu.Lock()
	if rec, ok := c.next[k]; ok && rec.pending {
		delete(c.next, k)
	}
	c.mu.Unlock()
}

func (c *Cooldowns) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.next)
}
