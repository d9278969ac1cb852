package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"PlaceCache/internal/logger"
	"PlaceCache/internal/models"
	"PlaceCache/internal/pagination"
)

// MemoryStore implements Service in process memory.
// It is meant for local development and tests: entries are neither shared
// across instances nor kept across restarts.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*models.CacheEntry
	ttl     time.Duration
	now     func() time.Time
	reaper  *reaper
}

// NewMemoryStore creates an in-memory persistent store and starts its reaper
func NewMemoryStore(opts Options, log logger.Service) Service {
	store := newMemoryStore(opts, log, time.Now)
	store.reaper.start()
	return store
}

// newMemoryStore creates the concrete implementation without starting the reaper
func newMemoryStore(opts Options, log logger.Service, now func() time.Time) *MemoryStore {
	opts = opts.withDefaults()
	m := &MemoryStore{
		entries: make(map[string]*models.CacheEntry),
		ttl:     opts.TTL,
		now:     now,
	}
	m.reaper = newReaper(opts.ReaperInterval, "memory_store", log, m.reapExpired)
	return m
}

// Get retrieves a live entry and increments its hit counter
func (m *MemoryStore) Get(ctx context.Context, key string) (*models.CacheEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrStoreUnavailable, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok || entry.Expired(m.now()) {
		return nil, models.ErrCacheMiss
	}

	entry.Hits++
	found := *entry
	return &found, nil
}

// Put upserts the payload with a fresh TTL and a zero hit counter
func (m *MemoryStore) Put(ctx context.Context, key string, payload json.RawMessage) error {
	if !json.Valid(payload) {
		return fmt.Errorf("refusing to store invalid JSON payload for key %s", key)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", models.ErrStoreUnavailable, err)
	}

	createdAt := m.now().UTC()
	stored := make(json.RawMessage, len(payload))
	copy(stored, payload)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key] = &models.CacheEntry{
		Key:       key,
		Payload:   stored,
		CreatedAt: createdAt,
		ExpiresAt: createdAt.Add(m.ttl),
	}
	return nil
}

// DeleteAll removes every entry and reports how many of them were still live
func (m *MemoryStore) DeleteAll(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	var removed int64
	for _, entry := range m.entries {
		if !entry.Expired(now) {
			removed++
		}
	}
	m.entries = make(map[string]*models.CacheEntry)
	return removed, nil
}

// List returns live entries newest first
func (m *MemoryStore) List(ctx context.Context, req pagination.Request) ([]models.CacheEntrySummary, error) {
	m.mu.Lock()
	now := m.now()
	summaries := make([]models.CacheEntrySummary, 0, len(m.entries))
	for _, entry := range m.entries {
		if entry.Expired(now) {
			continue
		}
		summaries = append(summaries, models.CacheEntrySummary{
			Key:       entry.Key,
			Hits:      entry.Hits,
			Size:      len(entry.Payload),
			CreatedAt: entry.CreatedAt,
			ExpiresAt: entry.ExpiresAt,
		})
	}
	m.mu.Unlock()

	sort.Slice(summaries, func(i, j int) bool {
		if !summaries[i].CreatedAt.Equal(summaries[j].CreatedAt) {
			return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
		}
		return summaries[i].Key < summaries[j].Key
	})

	page := pagination.Paginate(summaries, req, func(s models.CacheEntrySummary) time.Time {
		return s.CreatedAt
	})
	return page.Items, nil
}

// reapExpired physically deletes expired entries
func (m *MemoryStore) reapExpired(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	var removed int64
	for key, entry := range m.entries {
		if entry.Expired(now) {
			delete(m.entries, key)
			removed++
		}
	}
	return removed, nil
}

// Close stops the reaper
func (m *MemoryStore) Close() error {
	m.reaper.close()
	return nil
}
