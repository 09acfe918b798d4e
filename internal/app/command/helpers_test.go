package command

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type fakeGate struct {
	allowed map[string]bool
	calls   int
	mu      sync.Mutex
}

func (g *fakeGate) IsGuildAuthorized(ctx context.Context, guildID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	return g.allowed[guildID]
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
