package storage

import (
	"context"
	"database/sql"
	"errors"
)

type SessionRepo struct{ db *sql.DB }

func NewSessionRepo(db *sql.DB) *SessionRepo { return &SessionRepo{db: db} }

func (r *SessionRepo) Get(ctx context.Context, guildID string) (GuildSession, error) {
	var s GuildSession
	err := r.db.QueryRowContext(ctx, `
SELECT guild_id, voice_channel_id, text_channel_id, created_at, updated_at
  FROM guild_sessions
 WHERE guild_id = $1
`, guildID).Scan(&s.GuildID, &s.VoiceChannelID, &s.TextChannelID, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return GuildSession{}, ErrNotFound
	}
	return s, err
}

func (r *SessionRepo) Upsert(ctx context.Context, guildID, voiceChannelID, textChannelID string) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO guild_sessions (guild_id, voice_channel_id, text_channel_id)
VALUES ($1,$2,$3)
ON CONFLICT (guild_id) DO UPDATE SET
  voice_channel_id = EXCLUDED.voice_channel_id,
  text_channel_id  = EXCLUDED.text_channel_id,
  updated_at       = now()
`, guildID, voiceChannelID, textChannelID)
	return err
}

func (r *SessionRepo) Delete(ctx context.Context, guildID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM guild_sessions WHERE guild_id = $1`, guildID)
	return err
}

// ListAll sirve para reconectar al arrancar.
func (r *SessionRepo) ListAll(ctx context.Context) ([]GuildSession, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT guild_id, voice_channel_id, text_channel_id, created_at, updated_at
  FROM guild_sessions
 ORDER BY guild_id
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []GuildSession
	for rows.Next() {
		var s GuildSession
		if err := rows.Scan(&s.GuildID, &s.VoiceChannelID, &s.TextChannelID, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
