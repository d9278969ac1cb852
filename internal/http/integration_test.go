package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"PlaceCache/internal/cache"
	"PlaceCache/internal/cache/placeCache"
	"PlaceCache/internal/cache/store"
	httpMocks "PlaceCache/internal/http/mocks"
	"PlaceCache/internal/mocks"
	"PlaceCache/internal/models"
	"PlaceCache/internal/origin"
	"PlaceCache/internal/pagination"
	"PlaceCache/internal/places"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const colomboRestaurants = `{"results":[
	{"fsq_id":"4b0588","name":"Ministry of Crab","distance":310,"location":{"locality":"Colombo"}},
	{"fsq_id":"4c1a2b","name":"Nuga Gama","distance":820,"location":{"locality":"Colombo"}},
	{"fsq_id":"5d3e4f","name":"Upali's","distance":1200,"location":{"locality":"Colombo"}}
]}`

type stack struct {
	server      *Server
	originCalls *atomic.Int64
	cache       placeCache.Service
}

// newStack wires the real cache, service and router against a fake origin
func newStack(t *testing.T, status int, body string) stack {
	t.Helper()

	var calls atomic.Int64
	originServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(originServer.Close)

	log := mocks.NewQuietLogger()
	persistent := store.NewMemoryStore(store.Options{}, log)
	t.Cleanup(func() { _ = persistent.Close() })

	orchestrator := placeCache.New(cache.NewMemoryCache(time.Minute), persistent, log, placeCache.Settings{MemoryTTL: time.Minute})
	client := origin.NewHTTPClient(origin.Settings{BaseURL: originServer.URL, Timeout: 2 * time.Second}, nil)
	search := places.NewService(orchestrator, client, log, 2)

	limiter := httpMocks.NewClientRateLimiter(true)

	handler := NewHandler(search, orchestrator, log, pagination.DefaultSettings(), 5)
	return stack{
		server:      NewServer("localhost:0", handler, log, limiter, 10*time.Second, 10*time.Second),
		originCalls: &calls,
		cache:       orchestrator,
	}
}

func (s stack) do(t *testing.T, method, target string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.RemoteAddr = "192.168.1.1:12345"
	w := httptest.NewRecorder()
	s.server.server.Handler.ServeHTTP(w, req)
	return w
}

func TestIntegration_SearchTierProgression(t *testing.T) {
	s := newStack(t, http.StatusOK, colomboRestaurants)
	target := "/api/places/search?lat=6.9271&lng=79.8612&query=restaurant&limit=2"

	first := s.do(t, http.MethodGet, target, nil)
	require.Equal(t, http.StatusOK, first.Code)
	assert.NotEmpty(t, first.Header().Get("X-Request-ID"))
	assert.Equal(t, "*", first.Header().Get("Access-Control-Allow-Origin"))

	var response models.PlaceSearchResponse
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &response))
	assert.Equal(t, "places:6.9271|79.8612|restaurant", response.Key)
	assert.Equal(t, "origin", response.Source)
	assert.False(t, response.Cached)
	assert.Equal(t, 2, response.Total)
	assert.Equal(t, "Ministry of Crab", response.Places[0].Name)

	// A nearby point with a differently cased query shares the entry
	second := s.do(t, http.MethodGet, "/api/places/search?lat=6.92712&lng=79.86118&query=Restaurant", nil)
	require.Equal(t, http.StatusOK, second.Code)
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &response))
	assert.Equal(t, "memory", response.Source)
	assert.True(t, response.Cached)
	assert.Equal(t, 3, response.Total)

	assert.Equal(t, int64(1), s.originCalls.Load())
}

func TestIntegration_InvalidCoordinatesNeverReachOrigin(t *testing.T) {
	s := newStack(t, http.StatusOK, colomboRestaurants)

	w := s.do(t, http.MethodGet, "/api/places/search?lat=91&lng=0&query=cafe", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, int64(0), s.originCalls.Load())
}

func TestIntegration_OriginFailureIsNotCached(t *testing.T) {
	s := newStack(t, http.StatusServiceUnavailable, `{"message":"maintenance"}`)
	target := "/api/places/search?lat=51.5074&lng=-0.1278&query=museum"

	assert.Equal(t, http.StatusBadGateway, s.do(t, http.MethodGet, target, nil).Code)
	assert.Equal(t, http.StatusBadGateway, s.do(t, http.MethodGet, target, nil).Code)
	assert.Equal(t, int64(2), s.originCalls.Load())

	entries := s.do(t, http.MethodGet, "/api/cache/entries", nil)
	require.Equal(t, http.StatusOK, entries.Code)

	var page pagination.Page[models.CacheEntrySummary]
	require.NoError(t, json.Unmarshal(entries.Body.Bytes(), &page))
	assert.Empty(t, page.Items)
	assert.False(t, page.Pagination.HasMore)
}

func TestIntegration_OriginRateLimitMapsTo429(t *testing.T) {
	s := newStack(t, http.StatusTooManyRequests, `{"message":"slow down"}`)

	w := s.do(t, http.MethodGet, "/api/places/search?lat=40.7128&lng=-74.006&query=pizza", nil)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestIntegration_BatchThenListThenClear(t *testing.T) {
	s := newStack(t, http.StatusOK, colomboRestaurants)

	body, err := json.Marshal(models.BatchSearchRequest{Searches: []models.BatchSearchItem{
		{Latitude: 6.9271, Longitude: 79.8612, Query: "restaurant"},
		{Latitude: 6.9271, Longitude: 79.8612, Query: "cafe"},
		{Latitude: 200, Longitude: 0, Query: "cafe"},
	}})
	require.NoError(t, err)

	batch := s.do(t, http.MethodPost, "/api/places/batch", body)
	require.Equal(t, http.StatusMultiStatus, batch.Code)

	var batchResponse models.BatchSearchResponse
	require.NoError(t, json.Unmarshal(batch.Body.Bytes(), &batchResponse))
	assert.Equal(t, models.BatchSummary{Total: 3, Succeeded: 2, Failed: 1}, batchResponse.Summary)
	assert.False(t, batchResponse.Results[2].Success)

	entries := s.do(t, http.MethodGet, "/api/cache/entries?limit=1", nil)
	require.Equal(t, http.StatusOK, entries.Code)

	var page pagination.Page[models.CacheEntrySummary]
	require.NoError(t, json.Unmarshal(entries.Body.Bytes(), &page))
	require.Len(t, page.Items, 1)
	assert.True(t, page.Pagination.HasMore)
	require.NotNil(t, page.Pagination.NextCursor)

	stats := s.do(t, http.MethodGet, "/api/cache/stats", nil)
	require.Equal(t, http.StatusOK, stats.Code)
	var cacheStats models.CacheStats
	require.NoError(t, json.Unmarshal(stats.Body.Bytes(), &cacheStats))
	assert.Equal(t, int64(2), cacheStats.OriginCalls)
	assert.Equal(t, 2, cacheStats.MemoryEntries)

	cleared := s.do(t, http.MethodDelete, "/api/cache", nil)
	require.Equal(t, http.StatusOK, cleared.Code)

	var clearResponse models.ClearCacheResponse
	require.NoError(t, json.Unmarshal(cleared.Body.Bytes(), &clearResponse))
	assert.True(t, clearResponse.Success)
	assert.Equal(t, int64(2), clearResponse.EntriesRemoved)

	// Everything is fetched again after a clear
	again := s.do(t, http.MethodGet, "/api/places/search?lat=6.9271&lng=79.8612&query=restaurant", nil)
	require.Equal(t, http.StatusOK, again.Code)
	var response models.PlaceSearchResponse
	require.NoError(t, json.Unmarshal(again.Body.Bytes(), &response))
	assert.Equal(t, "origin", response.Source)
	assert.Equal(t, int64(3), s.originCalls.Load())
}

func TestIntegration_HealthAndRoot(t *testing.T) {
	s := newStack(t, http.StatusOK, colomboRestaurants)

	health := s.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, health.Code)
	var response HealthResponse
	require.NoError(t, json.Unmarshal(health.Body.Bytes(), &response))
	assert.Equal(t, "healthy", response.Status)

	root := s.do(t, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, root.Code)
	var document map[string]interface{}
	require.NoError(t, json.Unmarshal(root.Body.Bytes(), &document))
	assert.Equal(t, "Place Cache API", document["message"])
	assert.Contains(t, document["endpoints"], "/api/places/search")
}
