package discord

import (
	"sync"
	"time"
)

// keyLimiter deja pasar una vez por clave cada ventana. Lo usamos para no repetir
// el aviso de "servidor no autorizado" en cada mensaje con prefijo.
type keyLimiter struct {
	mu   sync.Mutex
	next map[string]time.Time
	win  time.Duration
	now  func() time.Time
}

func newKeyLimiter(window time.Duration) *keyLimiter {
	return &keyLimiter{next: map[string]time.Time{}, win: window, now: time.Now}
}

func (l *keyLimiter) Allow(key string) bool {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	if until, ok := l.next[key]; ok && now.Before(until) {
		return false
	}
	// limpieza perezosa para que el mapa no crezca sin límite
	if len(l.next) > 1024 {
		for k, until := range l.next {
			if !now.Before(until) {
				delete(l.next, k)
			}
		}
	}
	l.next[key] = now.Add(l.win)
	return true
}
