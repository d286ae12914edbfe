package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/GregoriCrispim/participa-df-ouvidoria-pwa/model"
	"github.com/GregoriCrispim/participa-df-ouvidoria-pwa/pkg/logger"
)

// DurableStore is the persistent tier keyed by protocol. Get returns
// (nil, nil) for an unknown protocol.
type DurableStore interface {
	Put(ctx context.Context, m *model.Manifestation) error
	Get(ctx context.Context, protocol string) (*model.Manifestation, error)
	Close() error
}

// ManifestationStore keeps manifestations in an in-process cache backed by an
// optional durable tier. Durable failures are logged and never fail a write:
// the cache alone serves the current session.
type ManifestationStore struct {
	mu       sync.RWMutex
	cache    map[string]*model.Manifestation
	durable  DurableStore
	maxCache int // Maximum cached records, 0 = unlimited
	onEvict  func(*model.Manifestation)

	// updateMu serializes read-modify-write cycles.
	updateMu sync.Mutex
}

// NewManifestationStore creates a store. durable may be nil. Without a
// durable tier the cache is the only copy, so maxCache is ignored.
func NewManifestationStore(durable DurableStore, maxCache int) *ManifestationStore {
	if maxCache < 0 {
		maxCache = 0
	}
	if durable == nil && maxCache > 0 {
		slog.Warn("cache limit ignored without a durable tier", "max_cached", maxCache)
		maxCache = 0
	}
	slog.Info("manifestation store initialized", "max_cached", maxCache, "durable", durable != nil)
	return &ManifestationStore{
		cache:    make(map[string]*model.Manifestation),
		durable:  durable,
		maxCache: maxCache,
	}
}

// OnEvict registers fn to run on each record dropped from the cache, after
// the store lock is released.
func (s *ManifestationStore) OnEvict(fn func(*model.Manifestation)) {
	s.mu.Lock()
	s.onEvict = fn
	s.mu.Unlock()
}

// Create stores a new record and rejects a protocol that is already taken.
func (s *ManifestationStore) Create(ctx context.Context, m *model.Manifestation) error {
	if s.exists(ctx, m.Protocol) {
		return fmt.Errorf("%s: %w", m.Protocol, model.ErrProtocolConflict)
	}
	return s.Put(ctx, m)
}

// Put writes both tiers, overwriting any previous record.
func (s *ManifestationStore) Put(ctx context.Context, m *model.Manifestation) error {
	if m == nil || m.Protocol == "" {
		return model.NewValidationError("protocolo", "protocolo ausente")
	}

	s.mu.Lock()
	s.cache[m.Protocol] = m.Clone()
	evicted := s.cleanupIfNeeded(m.Protocol)
	s.mu.Unlock()
	s.release(evicted)

	if s.durable != nil {
		if err := s.durable.Put(ctx, m.Durable()); err != nil {
			logger.Warn(ctx, "persistence error",
				"op", "put",
				"protocolo", m.Protocol,
				"error", fmt.Errorf("%w: %w", model.ErrPersistence, err),
			)
		}
	}
	return nil
}

// Get returns a copy of the record, falling through to the durable tier on a
// cache miss and caching what it finds.
func (s *ManifestationStore) Get(ctx context.Context, protocol string) (*model.Manifestation, error) {
	s.mu.RLock()
	m, ok := s.cache[protocol]
	s.mu.RUnlock()
	if ok {
		return m.Clone(), nil
	}

	if s.durable != nil {
		found, err := s.durable.Get(ctx, protocol)
		if err != nil {
			logger.Warn(ctx, "persistence error",
				"op", "get",
				"protocolo", protocol,
				"error", fmt.Errorf("%w: %w", model.ErrPersistence, err),
			)
		} else if found != nil {
			s.mu.Lock()
			s.cache[protocol] = found.Clone()
			evicted := s.cleanupIfNeeded(protocol)
			s.mu.Unlock()
			s.release(evicted)
			return found, nil
		}
	}

	return nil, fmt.Errorf("protocolo %s: %w", protocol, model.ErrNotFound)
}

// Update applies fn to a copy of the record and writes the result back.
// Concurrent updates run one at a time, so fn always sees the latest record.
func (s *ManifestationStore) Update(ctx context.Context, protocol string, fn func(*model.Manifestation) error) (*model.Manifestation, error) {
	s.updateMu.Lock()
	defer s.updateMu.Unlock()

	m, err := s.Get(ctx, protocol)
	if err != nil {
		return nil, err
	}
	if err := fn(m); err != nil {
		return nil, err
	}
	if err := s.Put(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// Count returns the number of cached records.
func (s *ManifestationStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cache)
}

// Close releases the durable tier.
func (s *ManifestationStore) Close() error {
	if s.durable == nil {
		return nil
	}
	return s.durable.Close()
}

func (s *ManifestationStore) exists(ctx context.Context, protocol string) bool {
	s.mu.RLock()
	_, ok := s.cache[protocol]
	s.mu.RUnlock()
	if ok || s.durable == nil {
		return ok
	}

	found, err := s.durable.Get(ctx, protocol)
	if err != nil {
		logger.Warn(ctx, "persistence error", "op", "exists", "protocolo", protocol, "error", err)
		return false
	}
	return found != nil
}

// cleanupIfNeeded evicts the oldest cached records beyond maxCache, never
// keep. Evicted records remain readable through the durable tier.
// Must be called with lock held
func (s *ManifestationStore) cleanupIfNeeded(keep string) []*model.Manifestation {
	if s.maxCache <= 0 || len(s.cache) <= s.maxCache {
		return nil
	}

	records := make([]*model.Manifestation, 0, len(s.cache))
	for _, m := range s.cache {
		if m.Protocol != keep {
			records = append(records, m)
		}
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].SubmittedAt.Equal(records[j].SubmittedAt) {
			return records[i].Protocol < records[j].Protocol
		}
		return records[i].SubmittedAt.Before(records[j].SubmittedAt)
	})

	evicted := records[:len(s.cache)-s.maxCache]
	for _, m := range evicted {
		slog.Debug("evicting cached manifestation", "protocolo", m.Protocol, "submitted_at", m.SubmittedAt)
		delete(s.cache, m.Protocol)
	}
	return evicted
}

func (s *ManifestationStore) release(evicted []*model.Manifestation) {
	if len(evicted) == 0 {
		return
	}
	s.mu.RLock()
	fn := s.onEvict
	s.mu.RUnlock()
	if fn == nil {
		return
	}
	for _, m := range evicted {
		fn(m)
	}
}
