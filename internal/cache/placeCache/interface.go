package placeCache

import (
	"context"
	"encoding/json"

	"PlaceCache/internal/models"
	"PlaceCache/internal/pagination"
)

// Tier identifies which layer produced a lookup result
type Tier string

const (
	TierMemory     Tier = "memory"
	TierPersistent Tier = "persistent"
	TierOrigin     Tier = "origin"
)

// OriginFunc fetches a fresh payload from the origin search provider on a full miss
type OriginFunc func(ctx context.Context) (json.RawMessage, error)

// Result is the outcome of a successful lookup
type Result struct {
	Key     string
	Payload json.RawMessage
	Source  Tier
	// Hits is the persistent hit count. On a memory hit it is the value
	// captured when the entry entered memory; memory hits never advance it.
	Hits int64
}

// Service defines the interface for the two-tier place cache
// External packages should use this interface, not the concrete implementations
type Service interface {
	Lookup(ctx context.Context, lat, lng float64, query string, fetch OriginFunc) (*Result, error)
	InvalidateAll(ctx context.Context) (int64, error)
	List(ctx context.Context, req pagination.Request) ([]models.CacheEntrySummary, error)
	Stats() models.CacheStats
}
