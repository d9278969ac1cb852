package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"PlaceCache/internal/cache/placeCache"
	"PlaceCache/internal/logger"
	"PlaceCache/internal/models"
	"PlaceCache/internal/pagination"
	"PlaceCache/internal/places"
)

// DefaultMaxBatchSize caps the number of searches accepted in one batch request
const DefaultMaxBatchSize = 10

// Handler contains the HTTP handlers for the API
type Handler struct {
	search       places.SearchService
	cache        placeCache.Service
	logger       logger.Service
	pagination   pagination.Settings
	maxBatchSize int
}

// NewHandler creates a new HTTP handler
func NewHandler(
	search places.SearchService,
	cache placeCache.Service,
	logger logger.Service,
	paginationSettings pagination.Settings,
	maxBatchSize int,
) *Handler {
	if maxBatchSize <= 0 {
		maxBatchSize = DefaultMaxBatchSize
	}
	return &Handler{
		search:       search,
		cache:        cache,
		logger:       logger,
		pagination:   paginationSettings,
		maxBatchSize: maxBatchSize,
	}
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// HealthResponse represents a health check response
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
}

// writeJSONResponse writes a JSON response with standard headers including X-Request-ID
func (h *Handler) writeJSONResponse(w http.ResponseWriter, r *http.Request, statusCode int, data interface{}) error {
	logEvent := logger.GetLogEvent(r.Context())

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Request-ID", logEvent.ProcessID)
	w.WriteHeader(statusCode)

	return json.NewEncoder(w).Encode(data)
}

// SearchPlaces handles GET /api/places/search?lat=&lng=&query=&limit=
func (h *Handler) SearchPlaces(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	values := r.URL.Query()

	rawLat := strings.TrimSpace(values.Get("lat"))
	rawLng := strings.TrimSpace(values.Get("lng"))
	if rawLat == "" || rawLng == "" {
		h.writeErrorResponse(w, r, http.StatusBadRequest, "lat and lng are required", "")
		return
	}

	lat, err := strconv.ParseFloat(rawLat, 64)
	if err != nil {
		h.writeErrorResponse(w, r, http.StatusBadRequest, "invalid latitude", fmt.Sprintf("lat %q is not a number", rawLat))
		return
	}
	lng, err := strconv.ParseFloat(rawLng, 64)
	if err != nil {
		h.writeErrorResponse(w, r, http.StatusBadRequest, "invalid longitude", fmt.Sprintf("lng %q is not a number", rawLng))
		return
	}

	// An unparsable limit means the provider's full page
	limit, _ := strconv.Atoi(strings.TrimSpace(values.Get("limit")))

	req := models.PlaceSearchRequest{
		Latitude:  lat,
		Longitude: lng,
		Query:     values.Get("query"),
		Limit:     limit,
	}

	response, err := h.search.Search(ctx, req)
	if err != nil {
		statusCode := h.getStatusCodeForError(err)
		h.writeErrorResponse(w, r, statusCode, "place search failed", err.Error())
		return
	}

	if err := h.writeJSONResponse(w, r, http.StatusOK, response); err != nil {
		h.logger.LogError(ctx, logger.OpPlaceSearch, response.Key, "Failed to encode response", err, models.LogSeverityLow, nil)
	}
}

// BatchSearchPlaces handles POST /api/places/batch
func (h *Handler) BatchSearchPlaces(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var request models.BatchSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.logger.LogError(ctx, logger.OpBatchSearch, "", "Invalid request body", err, models.LogSeverityLow, nil)
		h.writeErrorResponse(w, r, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if len(request.Searches) == 0 {
		h.writeErrorResponse(w, r, http.StatusBadRequest, "searches array cannot be empty", "")
		return
	}

	if len(request.Searches) > h.maxBatchSize {
		h.writeErrorResponse(w, r, http.StatusBadRequest, "too many searches", fmt.Sprintf("Maximum %d searches per batch", h.maxBatchSize))
		return
	}

	response, err := h.search.BatchSearch(ctx, request.Searches)
	if err != nil {
		h.logger.LogError(ctx, logger.OpBatchSearch, "", "Batch search failed", err, models.LogSeverityMedium, nil)
		h.writeErrorResponse(w, r, http.StatusInternalServerError, "batch search failed", err.Error())
		return
	}

	if err := h.writeJSONResponse(w, r, h.getBatchStatusCode(response), response); err != nil {
		h.logger.LogError(ctx, logger.OpBatchSearch, "", "Failed to encode batch response", err, models.LogSeverityLow, nil)
	}
}

// ClearCache handles DELETE /api/cache and POST /api/cache/clear
func (h *Handler) ClearCache(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	removed, err := h.cache.InvalidateAll(ctx)
	if err != nil {
		failed := models.ClearCacheResponse{
			Success:        false,
			Message:        fmt.Sprintf("cache clear failed: %v", err),
			EntriesRemoved: removed,
		}
		if encodeErr := h.writeJSONResponse(w, r, http.StatusInternalServerError, failed); encodeErr != nil {
			h.logger.LogError(ctx, logger.OpCacheInvalidate, "", "Failed to encode clear response", encodeErr, models.LogSeverityLow, nil)
		}
		return
	}

	response := models.ClearCacheResponse{
		Success:        true,
		Message:        fmt.Sprintf("Cleared %d cache entries", removed),
		EntriesRemoved: removed,
	}

	if err := h.writeJSONResponse(w, r, http.StatusOK, response); err != nil {
		h.logger.LogError(ctx, logger.OpCacheInvalidate, "", "Failed to encode clear response", err, models.LogSeverityLow, nil)
	}
}

// ListCacheEntries handles GET /api/cache/entries?limit=&cursor=&page=
func (h *Handler) ListCacheEntries(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, err := pagination.ParseRequest(r.URL.Query(), h.pagination)
	if err != nil {
		h.writeErrorResponse(w, r, http.StatusBadRequest, "invalid pagination", err.Error())
		return
	}

	items, err := h.cache.List(ctx, req)
	if err != nil {
		h.logger.LogError(ctx, logger.OpCacheList, "", "Failed to list cache entries", err, models.LogSeverityMedium, nil)
		h.writeErrorResponse(w, r, h.getStatusCodeForError(err), "cache listing failed", err.Error())
		return
	}

	page := pagination.NewPage(items, req, func(s models.CacheEntrySummary) time.Time { return s.CreatedAt })

	if err := h.writeJSONResponse(w, r, http.StatusOK, page); err != nil {
		h.logger.LogError(ctx, logger.OpCacheList, "", "Failed to encode cache listing", err, models.LogSeverityLow, nil)
		return
	}

	h.logger.LogInfo(ctx, logger.OpCacheList, "Listed cache entries", map[string]interface{}{
		"count":    page.Pagination.Count,
		"has_more": page.Pagination.HasMore,
	})
}

// CacheStats handles GET /api/cache/stats
func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if err := h.writeJSONResponse(w, r, http.StatusOK, h.cache.Stats()); err != nil {
		h.logger.LogError(r.Context(), logger.OpCacheStats, "", "Failed to encode cache stats", err, models.LogSeverityLow, nil)
	}
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Version:   "1.0.0",
	}

	if err := h.writeJSONResponse(w, r, http.StatusOK, response); err != nil {
		h.logger.LogError(ctx, logger.OpHealthCheck, "", "Failed to encode health response", err, models.LogSeverityLow, nil)
		return
	}

	h.logger.LogInfo(ctx, logger.OpHealthCheck, "Health check performed successfully", nil)
}

// writeErrorResponse writes a standardized error response
func (h *Handler) writeErrorResponse(w http.ResponseWriter, r *http.Request, statusCode int, error, message string) {
	response := ErrorResponse{
		Error:     error,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}

	if err := h.writeJSONResponse(w, r, statusCode, response); err != nil {
		h.logger.LogError(r.Context(), "response_encoding", "", "Failed to encode error response", err, models.LogSeverityLow, nil)
	}
}

// getStatusCodeForError determines the appropriate HTTP status code for an error
func (h *Handler) getStatusCodeForError(err error) int {
	switch {
	case errors.Is(err, models.ErrInvalidCoordinates),
		errors.Is(err, models.ErrInvalidQuery),
		errors.Is(err, models.ErrInvalidCursor):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrOriginRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, models.ErrOriginTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, models.ErrOriginFailed),
		errors.Is(err, models.ErrOriginUnavailable),
		errors.Is(err, models.ErrOriginMalformed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// getBatchStatusCode determines the status code for batch responses
func (h *Handler) getBatchStatusCode(response *models.BatchSearchResponse) int {
	if response.Summary.Failed == 0 {
		return http.StatusOK
	} else if response.Summary.Succeeded == 0 {
		return http.StatusBadRequest
	} else {
		// Partial success
		return http.StatusMultiStatus
	}
}
