package placeCache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"PlaceCache/internal/cache"
	"PlaceCache/internal/cache/store"
	"PlaceCache/internal/logger"
	"PlaceCache/internal/models"
	"PlaceCache/internal/pagination"

	"golang.org/x/sync/singleflight"
)

// Settings configures the orchestrator
type Settings struct {
	// MemoryTTL bounds how long a promoted or freshly fetched payload stays in process memory
	MemoryTTL time.Duration
}

// cachedPayload is the value held by the in-process tier
type cachedPayload struct {
	Payload json.RawMessage
	Hits    int64
}

type counters struct {
	memoryHits     atomic.Int64
	persistentHits atomic.Int64
	misses         atomic.Int64
	originCalls    atomic.Int64
	originFailures atomic.Int64
	storeFaults    atomic.Int64
	invalidations  atomic.Int64
}

// placeCache implements Service over an in-process tier and a persistent store
type placeCache struct {
	memory   cache.Service
	store    store.Service
	logger   logger.Service
	settings Settings
	flights  singleflight.Group
	stats    counters
	now      func() time.Time
}

// New creates the cache orchestrator
func New(memory cache.Service, persistent store.Service, log logger.Service, settings Settings) Service {
	return newPlaceCache(memory, persistent, log, settings)
}

func newPlaceCache(memory cache.Service, persistent store.Service, log logger.Service, settings Settings) *placeCache {
	if settings.MemoryTTL <= 0 {
		settings.MemoryTTL = cache.DefaultMemoryTTL
	}
	return &placeCache{
		memory:   memory,
		store:    persistent,
		logger:   log,
		settings: settings,
		now:      time.Now,
	}
}

// Lookup resolves the payload for a location and query, consulting memory,
// then the persistent store, then the origin.
func (p *placeCache) Lookup(ctx context.Context, lat, lng float64, query string, fetch OriginFunc) (*Result, error) {
	key, err := cache.DeriveKey(lat, lng, query)
	if err != nil {
		return nil, err
	}

	if result, ok := p.fromMemory(ctx, key); ok {
		return result, nil
	}

	if result, ok := p.fromStore(ctx, key); ok {
		return result, nil
	}

	// Concurrent misses for one key share a single origin call
	flightCtx := context.WithoutCancel(ctx)
	ch := p.flights.DoChan(key, func() (interface{}, error) {
		// A flight that completed after our memory check has already filled it
		if result, ok := p.fromMemory(flightCtx, key); ok {
			return result, nil
		}

		p.stats.misses.Add(1)
		p.logger.LogInfo(flightCtx, logger.OpCacheMiss, "Cache miss, querying origin", map[string]interface{}{
			"key": key,
		})
		return p.fetchAndFill(flightCtx, key, fetch)
	})

	select {
	case <-ctx.Done():
		return nil, models.NewLookupError(key, "lookup cancelled", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		result := *res.Val.(*Result)
		return &result, nil
	}
}

func (p *placeCache) fromMemory(ctx context.Context, key string) (*Result, bool) {
	value, err := p.memory.Get(ctx, key)
	if err != nil {
		return nil, false
	}

	cached, ok := value.(*cachedPayload)
	if !ok {
		return nil, false
	}

	p.stats.memoryHits.Add(1)
	p.logger.LogSuccess(ctx, logger.OpCacheHitMemory, key, "Served from in-process cache", nil)

	return &Result{Key: key, Payload: cached.Payload, Source: TierMemory, Hits: cached.Hits}, true
}

func (p *placeCache) fromStore(ctx context.Context, key string) (*Result, bool) {
	entry, err := p.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, models.ErrCacheMiss) {
			// A faulty persistent tier degrades to a miss
			p.stats.storeFaults.Add(1)
			p.logger.LogError(ctx, logger.OpCacheStoreFault, key, "Persistent store read failed", err, models.LogSeverityMedium, nil)
		}
		return nil, false
	}

	p.stats.persistentHits.Add(1)
	p.promote(ctx, key, entry)
	p.logger.LogSuccess(ctx, logger.OpCacheHitPersistent, key, "Served from persistent store", map[string]interface{}{
		"hits": entry.Hits,
	})

	return &Result{Key: key, Payload: entry.Payload, Source: TierPersistent, Hits: entry.Hits}, true
}

// promote copies a persistent hit into memory, never outliving the persistent entry
func (p *placeCache) promote(ctx context.Context, key string, entry *models.CacheEntry) {
	ttl := p.settings.MemoryTTL
	if remaining := entry.ExpiresAt.Sub(p.now()); remaining < ttl {
		ttl = remaining
	}
	if ttl <= 0 {
		return
	}
	_ = p.memory.Set(ctx, key, &cachedPayload{Payload: entry.Payload, Hits: entry.Hits}, ttl)
}

func (p *placeCache) fetchAndFill(ctx context.Context, key string, fetch OriginFunc) (*Result, error) {
	p.stats.originCalls.Add(1)
	start := p.now()

	payload, err := fetch(ctx)
	if err == nil && (len(payload) == 0 || !json.Valid(payload)) {
		err = models.ErrOriginMalformed
	}
	if err != nil {
		p.stats.originFailures.Add(1)
		p.logger.LogError(ctx, logger.OpOriginFetch, key, "Origin search failed", err, models.LogSeverityHigh, nil)
		return nil, models.NewLookupError(key, "origin fetch failed", fmt.Errorf("%w: %w", models.ErrOriginFailed, err))
	}

	if err := p.store.Put(ctx, key, payload); err != nil {
		p.stats.storeFaults.Add(1)
		p.logger.LogError(ctx, logger.OpCacheStoreFault, key, "Persistent store write failed", err, models.LogSeverityMedium, nil)
	}
	_ = p.memory.Set(ctx, key, &cachedPayload{Payload: payload}, p.settings.MemoryTTL)

	p.logger.LogSuccess(ctx, logger.OpOriginFetch, key, "Fetched from origin", map[string]interface{}{
		"duration_ms": p.now().Sub(start).Milliseconds(),
		"bytes":       len(payload),
	})

	return &Result{Key: key, Payload: payload, Source: TierOrigin}, nil
}

// InvalidateAll clears both tiers and returns the number of persistent entries removed
func (p *placeCache) InvalidateAll(ctx context.Context) (int64, error) {
	p.memory.Clear(ctx)
	p.stats.invalidations.Add(1)

	removed, err := p.store.DeleteAll(ctx)
	if err != nil {
		p.logger.LogError(ctx, logger.OpCacheInvalidate, "", "Persistent store clear failed", err, models.LogSeverityHigh, nil)
		return removed, err
	}

	p.logger.LogSuccess(ctx, logger.OpCacheInvalidate, "", "Cache cleared", map[string]interface{}{
		"removed": removed,
	})
	return removed, nil
}

// List returns live persistent entries newest first
func (p *placeCache) List(ctx context.Context, req pagination.Request) ([]models.CacheEntrySummary, error) {
	return p.store.List(ctx, req)
}

// Stats returns a snapshot of the tier counters
func (p *placeCache) Stats() models.CacheStats {
	return models.CacheStats{
		MemoryEntries:  p.memory.Size(),
		MemoryHits:     p.stats.memoryHits.Load(),
		PersistentHits: p.stats.persistentHits.Load(),
		Misses:         p.stats.misses.Load(),
		OriginCalls:    p.stats.originCalls.Load(),
		OriginFailures: p.stats.originFailures.Load(),
		StoreFaults:    p.stats.storeFaults.Load(),
		Invalidations:  p.stats.invalidations.Load(),
	}
}
