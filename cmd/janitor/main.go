package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type report struct {
	Sessions int64 `json:"sessions"`
}

// prune sólo borra sesiones de voz sin uso. La cola la escribe únicamente el bot.
func prune(ctx context.Context, db execer, now time.Time, idle time.Duration) (report, error) {
	tag, err := db.Exec(ctx, `DELETE FROM guild_sessions WHERE updated_at < $1`, now.Add(-idle))
	if err != nil {
		return report{}, fmt.Errorf("prune sessions: %w", err)
	}
	return report{Sessions: tag.RowsAffected()}, nil
}

func idleFromEnv() (time.Duration, error) {
	v := os.Getenv("SESSION_MAX_IDLE")
	if v == "" {
		return 30 * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("SESSION_MAX_IDLE: valor %q inválido", v)
	}
	return d, nil
}

func handler(ctx context.Context) (report, error) {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With("component", "janitor")

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		return report{}, fmt.Errorf("no DATABASE_URL")
	}
	idle, err := idleFromEnv()
	if err != nil {
		return report{}, err
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return report{}, fmt.Errorf("parse: %w", err)
	}
	cfg.MaxConns = 2
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return report{}, fmt.Errorf("pool: %w", err)
	}
	defer pool.Close()

	cctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	rep, err := prune(cctx, pool, time.Now(), idle)
	if err != nil {
		log.Error("prune failed", "err", err)
		return rep, err
	}
	log.Info("prune done", "sessions", rep.Sessions, "max_idle", idle)
	return rep, nil
}

func main() { lambda.Start(handler) }
