package service

import "sync"

// guildLocks: un mutex por guild, creado a demanda y liberado cuando nadie lo usa.
type guildLocks struct {
	mu sync.Mutex
	m  map[string]*guildLock
}

type guildLock struct {
	sync.Mutex
	refs int
}

func newGuildLocks() *guildLocks {
	return &guildLocks{m: map[string]*guildLock{}}
}

// lock bloquea el guild y devuelve el unlock.
func (l *guildLocks) lock(guildID string) func() {
	l.mu.Lock()
	gl, ok := l.m[guildID]
	if !ok {
		gl = &guildLock{}
		l.m[guildID] = gl
	}
	gl.refs++
	l.mu.Unlock()

	gl.Lock()
	return func() {
		gl.Unlock()
		l.mu.Lock()
		gl.refs--
		if gl.refs == 0 {
			delete(l.m, guildID)
		}
		l.mu.Unlock()
	}
}

func (l *guildLocks) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.m)
}
