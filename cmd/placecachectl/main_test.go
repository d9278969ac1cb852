package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"PlaceCache/internal/models"
	"PlaceCache/internal/pagination"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runCLI executes the root command against addr and returns its output
func runCLI(t *testing.T, addr string, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--addr", addr}, args...))

	err := root.Execute()
	return out.String(), err
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestSearchCommand(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/places/search", r.URL.Path)
		assert.Equal(t, "6.9271", r.URL.Query().Get("lat"))
		assert.Equal(t, "79.8612", r.URL.Query().Get("lng"))
		assert.Equal(t, "restaurant", r.URL.Query().Get("query"))
		assert.Equal(t, "2", r.URL.Query().Get("limit"))

		writeJSON(w, http.StatusOK, models.PlaceSearchResponse{
			Key:    "places:6.9271|79.8612|restaurant",
			Source: "persistent",
			Hits:   3,
			Total:  1,
			Places: []models.Place{{Name: "Ministry of Crab", Distance: 310, Location: models.PlaceLocation{Locality: "Colombo"}}},
		})
	}))
	defer server.Close()

	out, err := runCLI(t, server.URL, "search", "--lat", "6.9271", "--lng", "79.8612", "--query", "restaurant", "--limit", "2")
	require.NoError(t, err)

	assert.Contains(t, out, "Key:    places:6.9271|79.8612|restaurant")
	assert.Contains(t, out, "Source: persistent (hits 3)")
	assert.Contains(t, out, "Ministry of Crab")
	assert.Contains(t, out, "310m")
}

func TestSearchCommand_RequiresCoordinates(t *testing.T) {
	_, err := runCLI(t, "http://127.0.0.1:1", "search", "--query", "cafe")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}

func TestSearchCommand_ReportsAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadGateway, map[string]string{
			"error":   "place search failed",
			"message": "origin search provider unavailable",
		})
	}))
	defer server.Close()

	_, err := runCLI(t, server.URL, "search", "--lat", "1", "--lng", "2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502 place search failed: origin search provider unavailable")
}

func TestCacheStatsCommand(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/cache/stats", r.URL.Path)
		writeJSON(w, http.StatusOK, models.CacheStats{MemoryEntries: 4, MemoryHits: 10, OriginCalls: 2})
	}))
	defer server.Close()

	out, err := runCLI(t, server.URL, "cache", "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Memory entries:  4")
	assert.Contains(t, out, "Memory hits:     10")
	assert.Contains(t, out, "Origin calls:    2")
}

func TestCacheEntriesCommand_PrintsNextCursor(t *testing.T) {
	created := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	next := pagination.EncodeCursor(created)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/cache/entries", r.URL.Path)
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		assert.Equal(t, "2024-06-02T00:00:00Z", r.URL.Query().Get("cursor"))

		writeJSON(w, http.StatusOK, pagination.Page[models.CacheEntrySummary]{
			Items: []models.CacheEntrySummary{{Key: "places:a", Hits: 2, Size: 120, CreatedAt: created, ExpiresAt: created.Add(24 * time.Hour)}},
			Pagination: pagination.Pagination{
				HasMore:    true,
				NextCursor: &next,
				Page:       1,
				Limit:      1,
				Count:      1,
			},
		})
	}))
	defer server.Close()

	out, err := runCLI(t, server.URL, "cache", "entries", "--limit", "1", "--cursor", "2024-06-02T00:00:00Z")
	require.NoError(t, err)
	assert.Contains(t, out, "places:a")
	assert.Contains(t, out, "More entries: --cursor "+next)
}

func TestCacheClearCommand(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/api/cache", r.URL.Path)
		writeJSON(w, http.StatusOK, models.ClearCacheResponse{Success: true, Message: "Cleared 7 cache entries", EntriesRemoved: 7})
	}))
	defer server.Close()

	out, err := runCLI(t, server.URL, "cache", "clear")
	require.NoError(t, err)
	assert.Equal(t, "Cleared 7 cache entries\n", out)
}

func TestCacheClearCommand_ReportsFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, models.ClearCacheResponse{
			Success: false,
			Message: "cache clear failed: persistent store unavailable",
		})
	}))
	defer server.Close()

	_, err := runCLI(t, server.URL, "cache", "clear")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DELETE /api/cache: 500 cache clear failed: persistent store unavailable")
}

func TestHealthCommand(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "version": "1.0.0"})
	}))
	defer server.Close()

	out, err := runCLI(t, server.URL, "health")
	require.NoError(t, err)
	assert.Equal(t, "healthy (version 1.0.0)\n", out)
}

func TestHealthCommand_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := server.URL
	server.Close()

	_, err := runCLI(t, addr, "--timeout", "1s", "health")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GET /health")
}
