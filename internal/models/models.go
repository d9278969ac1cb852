package models

import (
	"encoding/json"
	"time"
)

// Coordinates represents a latitude/longitude pair
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// PlaceCategory represents a single category attached to a place
type PlaceCategory struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// PlaceLocation represents the postal location of a place
type PlaceLocation struct {
	Address          string `json:"address,omitempty"`
	Locality         string `json:"locality,omitempty"`
	Region           string `json:"region,omitempty"`
	Country          string `json:"country,omitempty"`
	FormattedAddress string `json:"formatted_address,omitempty"`
}

// Place represents a single venue returned by the origin search provider
type Place struct {
	ID         string          `json:"fsq_id"`
	Name       string          `json:"name"`
	Categories []PlaceCategory `json:"categories,omitempty"`
	Distance   int             `json:"distance"`
	Location   PlaceLocation   `json:"location"`
	Geocode    *Coordinates    `json:"geocode,omitempty"`
}

// PlaceSearchResult is the payload cached for one (location, query) pair
type PlaceSearchResult struct {
	Results []Place `json:"results"`
}

// PlaceSearchRequest represents a request to search places around a point
type PlaceSearchRequest struct {
	Latitude  float64
	Longitude float64
	Query     string
	Limit     int
}

// PlaceSearchResponse represents the API response for a place search
type PlaceSearchResponse struct {
	Key       string    `json:"key"`
	Places    []Place   `json:"places"`
	Total     int       `json:"total"`
	Cached    bool      `json:"cached"`
	Source    string    `json:"source"`
	Hits      int64     `json:"hits"`
	Timestamp time.Time `json:"timestamp"`
}

// BatchSearchItem is one search within a batch request
type BatchSearchItem struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
	Query     string  `json:"query"`
	Limit     int     `json:"limit,omitempty"`
}

// BatchSearchRequest represents a request to run several searches at once
type BatchSearchRequest struct {
	Searches []BatchSearchItem `json:"searches"`
}

// BatchSearchResult is the outcome of one search within a batch
type BatchSearchResult struct {
	Index   int     `json:"index"`
	Key     string  `json:"key,omitempty"`
	Places  []Place `json:"places,omitempty"`
	Total   int     `json:"total"`
	Cached  bool    `json:"cached"`
	Source  string  `json:"source,omitempty"`
	Success bool    `json:"success"`
	Error   string  `json:"error,omitempty"`
}

// BatchSummary provides summary statistics for a batch
type BatchSummary struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// BatchSearchResponse represents the API response for a batch search
type BatchSearchResponse struct {
	Results   []BatchSearchResult `json:"results"`
	Summary   BatchSummary        `json:"summary"`
	Timestamp time.Time           `json:"timestamp"`
}

// CacheEntry represents a persisted cache entry
type CacheEntry struct {
	Key       string          `json:"key"`
	Payload   json.RawMessage `json:"payload"`
	Hits      int64           `json:"hits"`
	CreatedAt time.Time       `json:"createdAt"`
	ExpiresAt time.Time       `json:"expiresAt"`
}

// Expired reports whether the entry is logically absent at the given time
func (e *CacheEntry) Expired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}

// CacheEntrySummary is the listing view of a persisted entry (no payload)
type CacheEntrySummary struct {
	Key       string    `json:"key"`
	Hits      int64     `json:"hits"`
	Size      int       `json:"size"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ClearCacheResponse represents the response of the cache-clear endpoint
type ClearCacheResponse struct {
	Success        bool   `json:"success"`
	Message        string `json:"message"`
	EntriesRemoved int64  `json:"entriesRemoved"`
}

// CacheStats provides per-tier counters for observability
type CacheStats struct {
	MemoryEntries  int   `json:"memoryEntries"`
	MemoryHits     int64 `json:"memoryHits"`
	PersistentHits int64 `json:"persistentHits"`
	Misses         int64 `json:"misses"`
	OriginCalls    int64 `json:"originCalls"`
	OriginFailures int64 `json:"originFailures"`
	StoreFaults    int64 `json:"storeFaults"`
	Invalidations  int64 `json:"invalidations"`
}

// LogSeverity represents the severity level of a log entry
type LogSeverity string

const (
	LogSeverityLow    LogSeverity = "low"
	LogSeverityMedium LogSeverity = "medium"
	LogSeverityHigh   LogSeverity = "high"
)

// ProcessType represents the type of process that created the log
type ProcessType string

const (
	ProcessTypeRequest  ProcessType = "request"
	ProcessTypeInternal ProcessType = "internal"
)

// LogEvent represents a process-specific logging context
type LogEvent struct {
	ProcessID   string      `json:"process_id"`
	ProcessType ProcessType `json:"process_type"`
	StartTime   time.Time   `json:"start_time"`
	ClientIP    string      `json:"client_ip,omitempty"`
}

// LogEntry represents a structured log entry for database storage
type LogEntry struct {
	ID          string                 `json:"id"`
	Timestamp   time.Time              `json:"timestamp"`
	Severity    LogSeverity            `json:"severity,omitempty"`
	Message     string                 `json:"message"`
	Operation   string                 `json:"operation"`
	TargetName  string                 `json:"target_name,omitempty"`
	ProcessID   string                 `json:"process_id"`
	ProcessType ProcessType            `json:"process_type"`
	ClientIP    string                 `json:"client_ip,omitempty"`
	Error       string                 `json:"error,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}
