package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jose-valero/guild-music-bot/internal/domain"
	"github.com/jose-valero/guild-music-bot/internal/infra/storage"
)

const (
	EventTrackFinished = "track_finished"
	EventTrackFailed   = "track_failed"
)

// TrackEvent llega del servidor de audio por el webhook.
type TrackEvent struct {
	Type     string `json:"type"`
	GuildID  string `json:"guild_id"`
	TrackRef string `json:"track"`
	Position int64  `json:"position,omitempty"`
	Reason   string `json:"reason"`
}

// PlayerService coordina la cola con el servidor de audio. El frente de la cola es lo que suena.
type PlayerService struct {
	queue    *QueueService
	audio    AudioClient
	sessions SessionStore
	timeout  time.Duration
	log      *slog.Logger
}

func NewPlayerService(queue *QueueService, audio AudioClient, sessions SessionStore, timeout time.Duration, log *slog.Logger) *PlayerService {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &PlayerService{queue: queue, audio: audio, sessions: sessions, timeout: timeout, log: log.With("component", "player")}
}

// Join conecta al canal de voz y arranca el frente si hay algo. Devuelve lo que empezó a sonar.
func (p *PlayerService) Join(ctx context.Context, guildID, voiceChannelID, textChannelID string) (string, error) {
	if err := p.audio.Connect(ctx, guildID, voiceChannelID); err != nil {
		return "", fmt.Errorf("audio connect: %w: %w", domain.ErrAudioUnavailable, err)
	}
	sctx, cancel := context.WithTimeout(ctx, p.timeout)
	err := p.sessions.Upsert(sctx, guildID, voiceChannelID, textChannelID)
	cancel()
	if err != nil {
		return "", storeErr("session upsert", err)
	}

	front, ok, err := p.queue.PeekFront(ctx, guildID)
	if err != nil || !ok {
		return "", err
	}
	if err := p.audio.Play(ctx, guildID, front.TrackRef, front.Position); err != nil {
		p.log.Warn("play after join", "guild", guildID, "track", front.TrackRef, "err", err)
		return "", nil
	}
	return front.TrackRef, nil
}

func (p *PlayerService) Leave(ctx context.Context, guildID string) error {
	if err := p.audio.Disconnect(ctx, guildID); err != nil {
		// igual borramos la sesión: el usuario pidió que se vaya
		p.log.Warn("audio disconnect", "guild", guildID, "err", err)
	}
	sctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	if err := p.sessions.Delete(sctx, guildID); err != nil {
		return storeErr("session delete", err)
	}
	return nil
}

// Started se llama después de un enqueue: si la pista nueva quedó al frente y hay sesión, suena.
func (p *PlayerService) Started(ctx context.Context, guildID string, position int64) (bool, error) {
	front, ok, err := p.queue.PeekFront(ctx, guildID)
	if err != nil || !ok || front.Position != position {
		return false, err
	}
	connected, err := p.connected(ctx, guildID)
	if err != nil || !connected {
		return false, err
	}
	if err := p.audio.Play(ctx, guildID, front.TrackRef, front.Position); err != nil {
		p.log.Warn("play", "guild", guildID, "track", front.TrackRef, "err", err)
		return false, nil
	}
	return true, nil
}

// Skip saca lo que suena y pasa al siguiente.
func (p *PlayerService) Skip(ctx context.Context, guildID string) (domain.QueueEntry, bool, error) {
	skipped, ok, err := p.queue.Dequeue(ctx, guildID)
	if err != nil || !ok {
		return skipped, ok, err
	}
	p.advance(ctx, guildID)
	return skipped, true, nil
}

func (p *PlayerService) Clear(ctx context.Context, guildID string) (int64, error) {
	n, err := p.queue.Clear(ctx, guildID)
	if err != nil {
		return n, err
	}
	if connected, _ := p.connected(ctx, guildID); connected {
		if err := p.audio.Stop(ctx, guildID); err != nil {
			p.log.Warn("stop after clear", "guild", guildID, "err", err)
		}
	}
	return n, nil
}

// OnTrackEvent: "terminó" o "falló" avanza la cola, salvo que el evento sea de una pista vieja.
func (p *PlayerService) OnTrackEvent(ctx context.Context, ev TrackEvent) error {
	if ev.Type != EventTrackFinished && ev.Type != EventTrackFailed {
		audioEvents.WithLabelValues("other", "ignored").Inc()
		return nil
	}
	switch ev.Reason {
	case "replaced", "stopped", "cleanup":
		audioEvents.WithLabelValues(ev.Type, "ignored").Inc()
		return nil
	}
	if ev.Type == EventTrackFailed {
		p.log.Warn("track failed", "guild", ev.GuildID, "track", ev.TrackRef, "reason", ev.Reason)
	}

	_, advanced, err := p.queue.DequeueIf(ctx, ev.GuildID, ev.TrackRef, ev.Position)
	if err != nil {
		audioEvents.WithLabelValues(ev.Type, "error").Inc()
		return err
	}
	if !advanced {
		audioEvents.WithLabelValues(ev.Type, "stale").Inc()
		return nil
	}
	audioEvents.WithLabelValues(ev.Type, "advanced").Inc()
	p.advance(ctx, ev.GuildID)
	return nil
}

// Resume reconecta las sesiones guardadas (al arrancar el bot).
func (p *PlayerService) Resume(ctx context.Context, sessions []storage.GuildSession) {
	for _, s := range sessions {
		if err := p.audio.Connect(ctx, s.GuildID, s.VoiceChannelID); err != nil {
			p.log.Warn("resume connect", "guild", s.GuildID, "err", err)
			continue
		}
		p.advance(ctx, s.GuildID)
	}
}

// advance hace sonar el frente actual o frena si la cola quedó vacía.
func (p *PlayerService) advance(ctx context.Context, guildID string) {
	connected, err := p.connected(ctx, guildID)
	if err != nil {
		p.log.Warn("advance: session lookup", "guild", guildID, "err", err)
		return
	}
	if !connected {
		return
	}
	front, ok, err := p.queue.PeekFront(ctx, guildID)
	if err != nil {
		p.log.Warn("advance: peek", "guild", guildID, "err", err)
		return
	}
	if !ok {
		err = p.audio.Stop(ctx, guildID)
	} else {
		err = p.audio.Play(ctx, guildID, front.TrackRef, front.Position)
	}
	if err != nil {
		p.log.Warn("advance: audio", "guild", guildID, "err", err)
	}
}

func (p *PlayerService) connected(ctx context.Context, guildID string) (bool, error) {
	sctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	_, err := p.sessions.Get(sctx, guildID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return false, nil
	case err != nil:
		return false, storeErr("session get", err)
	}
	return true, nil
}
