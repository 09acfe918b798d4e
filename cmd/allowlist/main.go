package main

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Administra la allowlist de guilds por fuera del bot:
//
//	GET  /guilds/{id}
//	POST /guilds/{id}/approve   {"note": "..."}
//	POST /guilds/{id}/revoke
var errNotFound = errors.New("not found")

type entry struct {
	GuildID   string    `json:"guild_id"`
	Approved  bool      `json:"approved"`
	Note      string    `json:"note"`
	UpdatedAt time.Time `json:"updated_at"`
}

type store interface {
	Get(ctx context.Context, guildID string) (entry, error)
	Set(ctx context.Context, guildID string, approved bool, note string) (entry, error)
}

type pgStore struct{ db *pgxpool.Pool }

func (s pgStore) Get(ctx context.Context, guildID string) (entry, error) {
	var e entry
	err := s.db.QueryRow(ctx,
		`SELECT guild_id, approved, note, updated_at FROM guild_allowlist WHERE guild_id = $1`, guildID,
	).Scan(&e.GuildID, &e.Approved, &e.Note, &e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return entry{}, errNotFound
	}
	return e, err
}

func (s pgStore) Set(ctx context.Context, guildID string, approved bool, note string) (entry, error) {
	var e entry
	err := s.db.QueryRow(ctx, `
INSERT INTO guild_allowlist (guild_id, approved, note)
VALUES ($1, $2, $3)
ON CONFLICT (guild_id) DO UPDATE
SET approved = EXCLUDED.approved,
    note = CASE WHEN EXCLUDED.note = '' THEN guild_allowlist.note ELSE EXCLUDED.note END,
    updated_at = now()
RETURNING guild_id, approved, note, updated_at`, guildID, approved, note,
	).Scan(&e.GuildID, &e.Approved, &e.Note, &e.UpdatedAt)
	return e, err
}

type app struct {
	store  store
	secret string
	log    *slog.Logger
}

func (a *app) handle(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	method := req.RequestContext.HTTP.Method
	a.log.Info("allowlist hit", "path", req.RawPath, "method", method, "ip", req.RequestContext.HTTP.SourceIP)

	got := header(req, "x-admin-secret")
	if a.secret == "" || subtle.ConstantTimeCompare([]byte(got), []byte(a.secret)) != 1 {
		return reply(http.StatusUnauthorized, map[string]string{"error": "unauthorized"}), nil
	}

	guildID, action, ok := parsePath(req.RawPath)
	if !ok {
		return reply(http.StatusNotFound, map[string]string{"error": "unknown route"}), nil
	}

	cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	switch {
	case method == http.MethodGet && action == "":
		e, err := a.store.Get(cctx, guildID)
		if errors.Is(err, errNotFound) {
			return reply(http.StatusNotFound, map[string]string{"error": "guild not in allowlist"}), nil
		}
		if err != nil {
			a.log.Error("get", "guild", guildID, "err", err)
			return reply(http.StatusInternalServerError, map[string]string{"error": "store unavailable"}), nil
		}
		return reply(http.StatusOK, e), nil

	case method == http.MethodPost && (action == "approve" || action == "revoke"):
		var body struct {
			Note string `json:"note"`
		}
		raw, err := requestBody(req)
		if err != nil {
			return reply(http.StatusBadRequest, map[string]string{"error": err.Error()}), nil
		}
		if raw != "" {
			if err := json.Unmarshal([]byte(raw), &body); err != nil {
				return reply(http.StatusBadRequest, map[string]string{"error": "invalid json"}), nil
			}
		}
		e, err := a.store.Set(cctx, guildID, action == "approve", strings.TrimSpace(body.Note))
		if err != nil {
			a.log.Error("set", "guild", guildID, "action", action, "err", err)
			return reply(http.StatusInternalServerError, map[string]string{"error": "store unavailable"}), nil
		}
		a.log.Info("allowlist updated", "guild", guildID, "approved", e.Approved)
		return reply(http.StatusOK, e), nil
	}
	return reply(http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"}), nil
}

// parsePath acepta /guilds/{id} y /guilds/{id}/{action}. El id es un snowflake (sólo dígitos).
func parsePath(p string) (guildID, action string, ok bool) {
	parts := strings.Split(strings.Trim(p, "/"), "/")
	if len(parts) < 2 || len(parts) > 3 || parts[0] != "guilds" || !isSnowflake(parts[1]) {
		return "", "", false
	}
	if len(parts) == 3 {
		action = parts[2]
	}
	return parts[1], action, true
}

func isSnowflake(s string) bool {
	if s == "" || len(s) > 20 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// API Gateway v2 manda los headers en minúscula, pero no siempre.
func header(req events.APIGatewayV2HTTPRequest, k string) string {
	if v := req.Headers[k]; v != "" {
		return v
	}
	for hk, v := range req.Headers {
		if strings.EqualFold(hk, k) {
			return v
		}
	}
	return ""
}

func requestBody(req events.APIGatewayV2HTTPRequest) (string, error) {
	if !req.IsBase64Encoded {
		return req.Body, nil
	}
	dec, err := base64.StdEncoding.DecodeString(req.Body)
	if err != nil {
		return "", fmt.Errorf("invalid base64")
	}
	return string(dec), nil
}

func reply(status int, v any) events.APIGatewayV2HTTPResponse {
	b, _ := json.Marshal(v)
	return events.APIGatewayV2HTTPResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(b),
	}
}

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With("component", "allowlist")

	cfg, err := pgxpool.ParseConfig(os.Getenv("DATABASE_URL"))
	if err != nil {
		log.Error("pgx ParseConfig", "err", err)
		os.Exit(1)
	}
	cfg.MaxConns = 4
	cfg.MaxConnLifetime = 30 * time.Minute

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		log.Error("pgxpool New", "err", err)
		os.Exit(1)
	}

	a := &app{store: pgStore{db: pool}, secret: os.Getenv("ADMIN_SECRET"), log: log}
	lambda.Start(a.handle)
}
