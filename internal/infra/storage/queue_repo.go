package storage

import (
	"context"
	"database/sql"
	"fmt"

	pq "github.com/lib/pq"

	"github.com/jose-valero/guild-music-bot/internal/domain"
)

// DefaultMaxDeleteBatch copia el límite de borrado por request de los document stores.
const DefaultMaxDeleteBatch = 25

type QueueRepo struct {
	db       *sql.DB
	maxBatch int
}

func NewQueueRepo(db *sql.DB, maxBatch int) *QueueRepo {
	if maxBatch <= 0 {
		maxBatch = DefaultMaxDeleteBatch
	}
	return &QueueRepo{db: db, maxBatch: maxBatch}
}

func (r *QueueRepo) MaxDeleteBatch() int { return r.maxBatch }

// Append asigna la posición y escribe la fila en un solo statement: el upsert de
// queue_sequences toma el lock de la fila del guild, asi dos enqueues concurrentes
// nunca ven el mismo número.
func (r *QueueRepo) Append(ctx context.Context, e domain.QueueEntry) (int64, error) {
	var pos int64
	err := r.db.QueryRowContext(ctx, `
WITH seq AS (
  INSERT INTO queue_sequences (guild_id, last_position)
  VALUES ($1, 1)
  ON CONFLICT (guild_id) DO UPDATE SET
    last_position = queue_sequences.last_position + 1
  RETURNING last_position
)
INSERT INTO queue_entries (guild_id, position, track_ref, requested_by, added_at_ms)
SELECT $1, last_position, $2, $3, $4 FROM seq
RETURNING position
`, e.GuildID, e.TrackRef, e.RequestedBy, e.AddedAtMs).Scan(&pos)
	return pos, err
}

// List devuelve las entradas en orden FIFO. limit <= 0 = todas.
func (r *QueueRepo) List(ctx context.Context, guildID string, limit int) ([]domain.QueueEntry, error) {
	var lim any
	if limit > 0 {
		lim = limit
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT guild_id, position, track_ref, requested_by, added_at_ms
  FROM queue_entries
 WHERE guild_id = $1
 ORDER BY position ASC
 LIMIT $2
`, guildID, lim)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.QueueEntry{}
	for rows.Next() {
		var e domain.QueueEntry
		if err := rows.Scan(&e.GuildID, &e.Position, &e.TrackRef, &e.RequestedBy, &e.AddedAtMs); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *QueueRepo) Count(ctx context.Context, guildID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
SELECT count(*) FROM queue_entries WHERE guild_id = $1
`, guildID).Scan(&n)
	return n, err
}

func (r *QueueRepo) Delete(ctx context.Context, guildID string, position int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
DELETE FROM queue_entries
 WHERE guild_id = $1 AND position = $2
`, guildID, position)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// DeleteBatch borra como máximo MaxDeleteBatch posiciones por llamada.
func (r *QueueRepo) DeleteBatch(ctx context.Context, guildID string, positions []int64) (int64, error) {
	if len(positions) == 0 {
		return 0, nil
	}
	if len(positions) > r.maxBatch {
		return 0, fmt.Errorf("delete batch of %d exceeds limit %d", len(positions), r.maxBatch)
	}
	res, err := r.db.ExecContext(ctx, `
DELETE FROM queue_entries
 WHERE guild_id = $1 AND position = ANY($2)
`, guildID, pq.Array(positions))
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// ResetSequence vuelve a empezar en 1, sólo si el guild no tiene entradas.
func (r *QueueRepo) ResetSequence(ctx context.Context, guildID string) error {
	_, err := r.db.ExecContext(ctx, `
DELETE FROM queue_sequences
 WHERE guild_id = $1
   AND NOT EXISTS (SELECT 1 FROM queue_entries WHERE guild_id = $1)
`, guildID)
	return err
}
