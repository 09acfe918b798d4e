package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jose-valero/guild-music-bot/internal/domain"
)

// AccessGate consulta la allowlist. Cualquier error del store = no autorizado.
type AccessGate struct {
	store   AllowlistStore
	timeout time.Duration
	log     *slog.Logger
}

func NewAccessGate(store AllowlistStore, timeout time.Duration, log *slog.Logger) *AccessGate {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &AccessGate{store: store, timeout: timeout, log: log.With("component", "gate")}
}

func (g *AccessGate) IsGuildAuthorized(ctx context.Context, guildID string) bool {
	if guildID == "" {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	e, err := g.store.Get(ctx, guildID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return false
	case err != nil:
		g.log.Warn("allowlist lookup failed, denying", "guild", guildID, "err", err)
		return false
	}
	return e.Approved
}
