package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/jose-valero/guild-music-bot/internal/domain"
)

type QueueOptions struct {
	StoreTimeout time.Duration
	CacheSize    int
	CacheTTL     time.Duration
	Now          func() time.Time
}

// QueueService es el único que escribe la cola de cada guild. El store manda; el cache
// es una proyección que sólo se toca después de que el store confirmó la escritura.
type QueueService struct {
	store   QueueStore
	cache   *expirable.LRU[string, []domain.QueueEntry]
	locks   *guildLocks
	timeout time.Duration
	now     func() time.Time
	log     *slog.Logger
}

func NewQueueService(store QueueStore, log *slog.Logger, opts QueueOptions) *QueueService {
	if opts.StoreTimeout <= 0 {
		opts.StoreTimeout = 5 * time.Second
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = 1000
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 10 * time.Minute
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &QueueService{
		store:   store,
		cache:   expirable.NewLRU[string, []domain.QueueEntry](opts.CacheSize, nil, opts.CacheTTL),
		locks:   newGuildLocks(),
		timeout: opts.StoreTimeout,
		now:     opts.Now,
		log:     log.With("component", "queue"),
	}
}

// Enqueue agrega al final y devuelve la posición asignada.
func (s *QueueService) Enqueue(ctx context.Context, guildID, trackRef, requestedBy string) (int64, error) {
	defer s.locks.lock(guildID)()

	e := domain.QueueEntry{
		GuildID:     guildID,
		TrackRef:    trackRef,
		RequestedBy: requestedBy,
		AddedAtMs:   s.now().UnixMilli(),
	}
	sctx, cancel := context.WithTimeout(ctx, s.timeout)
	pos, err := s.store.Append(sctx, e)
	cancel()
	if err != nil {
		return 0, storeErr("queue append", err)
	}
	e.Position = pos

	// si no estaba en cache, lo carga la próxima lectura
	if cached, ok := s.cache.Peek(guildID); ok {
		s.cache.Add(guildID, append(slices.Clone(cached), e))
	}
	return pos, nil
}

// Dequeue saca el frente. ok=false si la cola está vacía.
func (s *QueueService) Dequeue(ctx context.Context, guildID string) (domain.QueueEntry, bool, error) {
	return s.popFront(ctx, guildID, nil)
}

// DequeueIf saca el frente sólo si es la pista del evento (eventos viejos del audio no saltan dos veces).
// Con position > 0 compara por posición; si no, por trackRef.
func (s *QueueService) DequeueIf(ctx context.Context, guildID, trackRef string, position int64) (domain.QueueEntry, bool, error) {
	return s.popFront(ctx, guildID, func(e domain.QueueEntry) bool {
		if position > 0 {
			return e.Position == position
		}
		return e.TrackRef == trackRef
	})
}

func (s *QueueService) PeekFront(ctx context.Context, guildID string) (domain.QueueEntry, bool, error) {
	defer s.locks.lock(guildID)()

	entries, err := s.entries(ctx, guildID)
	if err != nil || len(entries) == 0 {
		return domain.QueueEntry{}, false, err
	}
	return entries[0], true, nil
}

func (s *QueueService) Size(ctx context.Context, guildID string) (int, error) {
	defer s.locks.lock(guildID)()

	if cached, ok := s.cache.Get(guildID); ok {
		cacheHits.Inc()
		return len(cached), nil
	}
	cacheMisses.Inc()
	sctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	n, err := s.store.Count(sctx, guildID)
	if err != nil {
		return 0, storeErr("queue count", err)
	}
	return n, nil
}

// List devuelve hasta limit entradas en orden (limit <= 0 = todas).
func (s *QueueService) List(ctx context.Context, guildID string, limit int) ([]domain.QueueEntry, error) {
	defer s.locks.lock(guildID)()

	entries, err := s.entries(ctx, guildID)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return slices.Clone(entries), nil
}

// Clear borra en lotes de MaxDeleteBatch hasta vaciar. Devuelve cuántas borró.
func (s *QueueService) Clear(ctx context.Context, guildID string) (int64, error) {
	defer s.locks.lock(guildID)()
	// pase lo que pase, el cache de este guild ya no sirve
	defer s.cache.Remove(guildID)

	batch := s.store.MaxDeleteBatch()
	var removed int64
	for {
		sctx, cancel := context.WithTimeout(ctx, s.timeout)
		page, err := s.store.List(sctx, guildID, batch)
		cancel()
		if err != nil {
			return removed, storeErr("queue clear list", err)
		}
		if len(page) == 0 {
			break
		}
		positions := make([]int64, len(page))
		for i, e := range page {
			positions[i] = e.Position
		}

		sctx, cancel = context.WithTimeout(ctx, s.timeout)
		n, err := s.store.DeleteBatch(sctx, guildID, positions)
		cancel()
		if err != nil {
			return removed, storeErr("queue clear delete", err)
		}
		removed += n
	}

	s.resetSequence(ctx, guildID)
	s.log.Info("queue cleared", "guild", guildID, "removed", removed)
	return removed, nil
}

func (s *QueueService) popFront(ctx context.Context, guildID string, match func(domain.QueueEntry) bool) (domain.QueueEntry, bool, error) {
	defer s.locks.lock(guildID)()

	// si el cache quedó viejo (otro proceso borró la fila) recargamos y reintentamos
	for attempt := 0; attempt < 3; attempt++ {
		entries, err := s.entries(ctx, guildID)
		if err != nil {
			return domain.QueueEntry{}, false, err
		}
		if len(entries) == 0 {
			return domain.QueueEntry{}, false, nil
		}
		head := entries[0]
		if match != nil && !match(head) {
			return domain.QueueEntry{}, false, nil
		}

		sctx, cancel := context.WithTimeout(ctx, s.timeout)
		deleted, err := s.store.Delete(sctx, guildID, head.Position)
		cancel()
		if err != nil {
			return domain.QueueEntry{}, false, storeErr("queue delete", err)
		}
		if !deleted {
			s.log.Warn("stale queue cache, reloading", "guild", guildID, "position", head.Position)
			s.cache.Remove(guildID)
			if match != nil {
				// la pista del evento ya no está: cuenta como sacada y no tocamos el frente nuevo
				if rest, err := s.entries(ctx, guildID); err == nil && len(rest) == 0 {
					s.resetSequence(ctx, guildID)
				}
				return head, true, nil
			}
			continue
		}

		rest := slices.Clone(entries[1:])
		s.cache.Add(guildID, rest)
		if len(rest) == 0 {
			s.resetSequence(ctx, guildID)
		}
		return head, true, nil
	}
	return domain.QueueEntry{}, false, storeErr("queue delete", fmt.Errorf("front of guild %s kept changing", guildID))
}

// entries: cache primero, si no, store. El caller tiene el lock del guild.
func (s *QueueService) entries(ctx context.Context, guildID string) ([]domain.QueueEntry, error) {
	if cached, ok := s.cache.Get(guildID); ok {
		cacheHits.Inc()
		return cached, nil
	}
	cacheMisses.Inc()

	sctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	loaded, err := s.store.List(sctx, guildID, 0)
	if err != nil {
		return nil, storeErr("queue list", err)
	}
	if loaded == nil {
		loaded = []domain.QueueEntry{}
	}
	s.cache.Add(guildID, loaded)
	return loaded, nil
}

// resetSequence no es crítico: si falla, las posiciones siguen creciendo.
func (s *QueueService) resetSequence(ctx context.Context, guildID string) {
	sctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.store.ResetSequence(sctx, guildID); err != nil {
		s.log.Warn("reset sequence", "guild", guildID, "err", err)
	}
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStoreUnavailable, err)
}
