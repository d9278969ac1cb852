package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"PlaceCache/internal/models"
)

// DefaultMemoryTTL is used by Set when no TTL is given
const DefaultMemoryTTL = 30 * time.Minute

// MemoryCache implements Service using in-memory storage.
// Expiry is lazy: entries are only checked and removed on read.
type MemoryCache struct {
	data       map[string]*cacheEntry
	mutex      sync.RWMutex
	defaultTTL time.Duration
	now        func() time.Time
}

// cacheEntry represents a single cache entry with its lifetime
type cacheEntry struct {
	value     interface{}
	createdAt time.Time
	ttl       time.Duration
}

func (e *cacheEntry) live(now time.Time) bool {
	return now.Sub(e.createdAt) <= e.ttl
}

// NewMemoryCache creates a new in-memory cache. A non-positive defaultTTL
// falls back to DefaultMemoryTTL.
func NewMemoryCache(defaultTTL time.Duration) Service {
	return newMemoryCache(defaultTTL, time.Now)
}

// newMemoryCache creates the concrete implementation
func newMemoryCache(defaultTTL time.Duration, now func() time.Time) *MemoryCache {
	if defaultTTL <= 0 {
		defaultTTL = DefaultMemoryTTL
	}
	return &MemoryCache{
		data:       make(map[string]*cacheEntry),
		defaultTTL: defaultTTL,
		now:        now,
	}
}

// Get retrieves a cached value for the given key
func (m *MemoryCache) Get(ctx context.Context, key string) (interface{}, error) {
	m.mutex.RLock()
	entry, exists := m.data[key]
	m.mutex.RUnlock()

	if !exists {
		return nil, models.ErrCacheMiss
	}

	if !entry.live(m.now()) {
		m.mutex.Lock()
		// Only drop it if nobody refreshed the key in the meantime
		if current, ok := m.data[key]; ok && current == entry {
			delete(m.data, key)
		}
		m.mutex.Unlock()
		return nil, models.ErrCacheMiss
	}

	return entry.value, nil
}

// Set stores a value in the cache, replacing any existing entry.
// A zero TTL means the cache default.
func (m *MemoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if ttl < 0 {
		return fmt.Errorf("TTL must not be negative, got: %v", ttl)
	}
	if ttl == 0 {
		ttl = m.defaultTTL
	}

	entry := &cacheEntry{
		value:     value,
		createdAt: m.now(),
		ttl:       ttl,
	}

	m.mutex.Lock()
	m.data[key] = entry
	m.mutex.Unlock()

	return nil
}

// Clear removes all entries
func (m *MemoryCache) Clear(ctx context.Context) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.data = make(map[string]*cacheEntry)
}

// Size returns the current number of stored entries, including ones that
// have expired but were not read since (for monitoring)
func (m *MemoryCache) Size() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.data)
}
