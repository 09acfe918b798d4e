package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/jose-valero/guild-music-bot/internal/domain"
	"github.com/jose-valero/guild-music-bot/internal/infra/storage"
)

var errDown = errors.New("connection refused")

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memQueueStore imita a storage.QueueRepo en memoria.
type memQueueStore struct {
	mu      sync.Mutex
	entries map[string][]domain.QueueEntry
	seq     map[string]int64
	batch   int
	fail    error
	lists   int
	batches []int
	resets  int
}

func newMemQueueStore() *memQueueStore {
	return &memQueueStore{
		entries: map[string][]domain.QueueEntry{},
		seq:     map[string]int64{},
		batch:   25,
	}
}

func (m *memQueueStore) setFail(err error) {
	m.mu.Lock()
	m.fail = err
	m.mu.Unlock()
}

func (m *memQueueStore) Append(ctx context.Context, e domain.QueueEntry) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return 0, m.fail
	}
	m.seq[e.GuildID]++
	e.Position = m.seq[e.GuildID]
	m.entries[e.GuildID] = append(m.entries[e.GuildID], e)
	return e.Position, nil
}

func (m *memQueueStore) List(ctx context.Context, guildID string, limit int) ([]domain.QueueEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lists++
	if m.fail != nil {
		return nil, m.fail
	}
	out := slices.Clone(m.entries[guildID])
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	if out == nil {
		out = []domain.QueueEntry{}
	}
	return out, nil
}

func (m *memQueueStore) Count(ctx context.Context, guildID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return 0, m.fail
	}
	return len(m.entries[guildID]), nil
}

func (m *memQueueStore) Delete(ctx context.Context, guildID string, position int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return false, m.fail
	}
	list := m.entries[guildID]
	i := slices.IndexFunc(list, func(e domain.QueueEntry) bool { return e.Position == position })
	if i < 0 {
		return false, nil
	}
	m.entries[guildID] = slices.Delete(list, i, i+1)
	return true, nil
}

func (m *memQueueStore) DeleteBatch(ctx context.Context, guildID string, positions []int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return 0, m.fail
	}
	if len(positions) > m.batch {
		return 0, fmt.Errorf("batch of %d exceeds limit %d", len(positions), m.batch)
	}
	m.batches = append(m.batches, len(positions))
	before := len(m.entries[guildID])
	m.entries[guildID] = slices.DeleteFunc(m.entries[guildID], func(e domain.QueueEntry) bool {
		return slices.Contains(positions, e.Position)
	})
	return int64(before - len(m.entries[guildID])), nil
}

func (m *memQueueStore) ResetSequence(ctx context.Context, guildID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	if len(m.entries[guildID]) == 0 {
		m.resets++
		delete(m.seq, guildID)
	}
	return nil
}

func (m *memQueueStore) MaxDeleteBatch() int { return m.batch }

// removeDirect borra una fila "por fuera" del service, como haría otro proceso.
func (m *memQueueStore) removeDirect(guildID string, position int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[guildID] = slices.DeleteFunc(m.entries[guildID], func(e domain.QueueEntry) bool {
		return e.Position == position
	})
}

type memAllowlist struct {
	entries map[string]storage.AllowlistEntry
	err     error
}

func (m *memAllowlist) Get(ctx context.Context, guildID string) (storage.AllowlistEntry, error) {
	if m.err != nil {
		return storage.AllowlistEntry{}, m.err
	}
	e, ok := m.entries[guildID]
	if !ok {
		return storage.AllowlistEntry{}, storage.ErrNotFound
	}
	return e, nil
}

type memSessions struct {
	mu sync.Mutex
	m  map[string]storage.GuildSession
}

func newMemSessions() *memSessions {
	return &memSessions{m: map[string]storage.GuildSession{}}
}

func (s *memSessions) Get(ctx context.Context, guildID string) (storage.GuildSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	gs, ok := s.m[guildID]
	if !ok {
		return storage.GuildSession{}, storage.ErrNotFound
	}
	return gs, nil
}

func (s *memSessions) Upsert(ctx context.Context, guildID, voiceChannelID, textChannelID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.m[guildID] = storage.GuildSession{
		GuildID: guildID, VoiceChannelID: voiceChannelID, TextChannelID: textChannelID,
		CreatedAt: now, UpdatedAt: now,
	}
	return nil
}

func (s *memSessions) Delete(ctx context.Context, guildID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, guildID)
	return nil
}

// fakeAudio anota cada llamada como "op:guild[:arg]".
type fakeAudio struct {
	mu         sync.Mutex
	calls      []string
	positions  []int64
	connectErr error
}

func (a *fakeAudio) record(s string) {
	a.mu.Lock()
	a.calls = append(a.calls, s)
	a.mu.Unlock()
}

func (a *fakeAudio) Connect(ctx context.Context, guildID, channelID string) error {
	if a.connectErr != nil {
		return a.connectErr
	}
	a.record("connect:" + guildID + ":" + channelID)
	return nil
}

func (a *fakeAudio) Disconnect(ctx context.Context, guildID string) error {
	a.record("disconnect:" + guildID)
	return nil
}

func (a *fakeAudio) Play(ctx context.Context, guildID, trackRef string, position int64) error {
	a.record("play:" + guildID + ":" + trackRef)
	a.mu.Lock()
	a.positions = append(a.positions, position)
	a.mu.Unlock()
	return nil
}

func (a *fakeAudio) Stop(ctx context.Context, guildID string) error {
	a.record("stop:" + guildID)
	return nil
}

func (a *fakeAudio) last() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.calls) == 0 {
		return ""
	}
	return a.calls[len(a.calls)-1]
}

func (a *fakeAudio) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.calls)
}
