package storage

import (
	"time"

	"github.com/jose-valero/guild-music-bot/internal/domain"
)

// ErrNotFound se comparte con domain para que los services no importen database/sql.
var ErrNotFound = domain.ErrNotFound

type AllowlistEntry struct {
	GuildID   string
	Approved  bool
	Note      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// GuildSession: canal de voz donde el bot debería estar sonando.
type GuildSession struct {
	GuildID        string
	VoiceChannelID string
	TextChannelID  string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
