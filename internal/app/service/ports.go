package service

import (
	"context"

	"github.com/jose-valero/guild-music-bot/internal/domain"
	"github.com/jose-valero/guild-music-bot/internal/infra/storage"
)

// Lo implementa internal/infra/storage.QueueRepo
type QueueStore interface {
	Append(ctx context.Context, e domain.QueueEntry) (int64, error)
	List(ctx context.Context, guildID string, limit int) ([]domain.QueueEntry, error)
	Count(ctx context.Context, guildID string) (int, error)
	Delete(ctx context.Context, guildID string, position int64) (bool, error)
	DeleteBatch(ctx context.Context, guildID string, positions []int64) (int64, error)
	ResetSequence(ctx context.Context, guildID string) error
	MaxDeleteBatch() int
}

// Lo implementa internal/infra/storage.AllowlistRepo
type AllowlistStore interface {
	Get(ctx context.Context, guildID string) (storage.AllowlistEntry, error)
}

// Lo implementa internal/infra/storage.SessionRepo
type SessionStore interface {
	Get(ctx context.Context, guildID string) (storage.GuildSession, error)
	Upsert(ctx context.Context, guildID, voiceChannelID, textChannelID string) error
	Delete(ctx context.Context, guildID string) error
}

// Lo implementa internal/adapters/audio.Client
type AudioClient interface {
	Connect(ctx context.Context, guildID, channelID string) error
	Disconnect(ctx context.Context, guildID string) error
	// Play manda position para que el servidor la devuelva en los eventos de esa pista.
	Play(ctx context.Context, guildID, trackRef string, position int64) error
	Stop(ctx context.Context, guildID string) error
}
