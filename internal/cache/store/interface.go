package store

import (
	"context"
	"encoding/json"
	"time"

	"PlaceCache/internal/models"
	"PlaceCache/internal/pagination"
)

// DefaultTTL is the absolute lifetime of a persisted entry
const DefaultTTL = 24 * time.Hour

// Service defines the interface for the persistent cache tier
// External packages should use this interface, not the concrete implementations
type Service interface {
	// Get returns the live entry for key and increments its hit counter.
	// It returns models.ErrCacheMiss when the key is absent or expired.
	Get(ctx context.Context, key string) (*models.CacheEntry, error)
	// Put upserts the payload, restarting its TTL and resetting hits to 0.
	Put(ctx context.Context, key string, payload json.RawMessage) error
	// DeleteAll removes every entry and returns how many were removed.
	DeleteAll(ctx context.Context) (int64, error)
	// List returns live entries newest first, constrained by the request.
	List(ctx context.Context, req pagination.Request) ([]models.CacheEntrySummary, error)
	Close() error
}

// Options configures a persistent store
type Options struct {
	TTL            time.Duration
	ReaperInterval time.Duration
}

func (o Options) withDefaults() Options {
	if o.TTL <= 0 {
		o.TTL = DefaultTTL
	}
	if o.ReaperInterval <= 0 {
		o.ReaperInterval = 5 * time.Minute
	}
	return o
}
