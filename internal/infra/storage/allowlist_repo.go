package storage

import (
	"context"
	"database/sql"
	"errors"
)

// AllowlistRepo es de sólo lectura para el bot; el alta/baja la hace cmd/allowlist.
type AllowlistRepo struct{ db *sql.DB }

func NewAllowlistRepo(db *sql.DB) *AllowlistRepo { return &AllowlistRepo{db: db} }

func (r *AllowlistRepo) Get(ctx context.Context, guildID string) (AllowlistEntry, error) {
	var a AllowlistEntry
	err := r.db.QueryRowContext(ctx, `
SELECT guild_id, approved, note, created_at, updated_at
  FROM guild_allowlist
 WHERE guild_id = $1
`, guildID).Scan(&a.GuildID, &a.Approved, &a.Note, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return AllowlistEntry{}, ErrNotFound
	}
	return a, err
}

// Upsert lo usan los tests y herramientas locales.
func (r *AllowlistRepo) Upsert(ctx context.Context, guildID string, approved bool, note string) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO guild_allowlist (guild_id, approved, note)
VALUES ($1, $2, $3)
ON CONFLICT (guild_id) DO UPDATE SET
  approved   = EXCLUDED.approved,
  note       = EXCLUDED.note,
  updated_at = now()
`, guildID, approved, note)
	return err
}
