package httpapi

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jose-valero/guild-music-bot/internal/app/service"
)

// Pinger lo cumple *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Server expone el webhook del servidor de audio y los endpoints de operación.
type Server struct {
	secret       string
	db           Pinger
	onTrackEvent func(ctx context.Context, ev service.TrackEvent) error
	eventTimeout time.Duration
	router       chi.Router
	http         *http.Server
	log          *slog.Logger
}

func New(addr, secret string, db Pinger, onTrackEvent func(ctx context.Context, ev service.TrackEvent) error, log *slog.Logger) *Server {
	s := &Server{
		secret:       secret,
		db:           db,
		onTrackEvent: onTrackEvent,
		eventTimeout: 15 * time.Second,
		router:       chi.NewRouter(),
		log:          log.With("component", "http"),
	}
	s.routes()
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
	return s
}

func (s *Server) routes() {
	s.router.Use(middleware.Recoverer)
	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	s.router.Get("/readyz", s.handleReady)
	s.router.Handle("/metrics", promhttp.Handler())
	s.router.Post("/audio/events", s.handleAudioEvent)
}

func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if s.db != nil {
		if err := s.db.PingContext(ctx); err != nil {
			s.log.Warn("readiness: db ping", "err", err)
			http.Error(w, "db unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) handleAudioEvent(w http.ResponseWriter, r *http.Request) {
	// sin secreto configurado el webhook queda cerrado
	got := r.Header.Get("X-Audio-Secret")
	if s.secret == "" || subtle.ConstantTimeCompare([]byte(got), []byte(s.secret)) != 1 {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	var ev service.TrackEvent
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10))
	if err := dec.Decode(&ev); err != nil {
		http.Error(w, "bad payload", http.StatusBadRequest)
		return
	}
	if ev.Type == "" || ev.GuildID == "" {
		http.Error(w, "type and guild_id required", http.StatusBadRequest)
		return
	}
	s.log.Debug("audio event", "type", ev.Type, "guild", ev.GuildID, "track", ev.TrackRef, "reason", ev.Reason)

	if s.onTrackEvent != nil {
		// el request termina antes que el callback, así que no usamos su contexto
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), s.eventTimeout)
			defer cancel()
			if err := s.onTrackEvent(ctx, ev); err != nil {
				s.log.Warn("audio event failed", "type", ev.Type, "guild", ev.GuildID, "err", err)
			}
		}()
	}
	w.WriteHeader(http.StatusAccepted)
}

// Start bloquea hasta que el server se cierre.
func (s *Server) Start() error {
	s.log.Info("🌐 HTTP listening", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
