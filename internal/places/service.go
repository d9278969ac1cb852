package places

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"PlaceCache/internal/cache/placeCache"
	"PlaceCache/internal/logger"
	"PlaceCache/internal/models"
	"PlaceCache/internal/origin"
)

// Service implements the SearchService interface
type Service struct {
	cache         placeCache.Service
	origin        origin.Service
	logger        logger.Service
	maxConcurrent int
	itemTimeout   time.Duration
}

// NewService creates a new place search service
func NewService(
	cache placeCache.Service,
	origin origin.Service,
	logger logger.Service,
	maxConcurrent int,
) SearchService {
	return newService(cache, origin, logger, maxConcurrent)
}

func newService(cache placeCache.Service, origin origin.Service, logger logger.Service, maxConcurrent int) *Service {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Service{
		cache:         cache,
		origin:        origin,
		logger:        logger,
		maxConcurrent: maxConcurrent,
		itemTimeout:   30 * time.Second,
	}
}

// Search returns places around a point, served from the fastest tier holding them
func (s *Service) Search(ctx context.Context, req models.PlaceSearchRequest) (*models.PlaceSearchResponse, error) {
	start := time.Now()

	// The cache key ignores the limit, so always fetch the provider's full page
	fetchReq := req
	fetchReq.Limit = 0
	fetch := func(ctx context.Context) (json.RawMessage, error) {
		return s.origin.Search(ctx, fetchReq)
	}

	result, err := s.cache.Lookup(ctx, req.Latitude, req.Longitude, req.Query, fetch)
	if err != nil {
		s.logger.LogError(ctx, logger.OpPlaceSearch, req.Query, "Place search failed", err, models.LogSeverityMedium, map[string]interface{}{
			"lat":         req.Latitude,
			"lng":         req.Longitude,
			"duration_ms": time.Since(start).Milliseconds(),
		})
		return nil, err
	}

	var decoded models.PlaceSearchResult
	if err := json.Unmarshal(result.Payload, &decoded); err != nil {
		return nil, models.NewLookupError(result.Key, "cached payload is unreadable", fmt.Errorf("%w: %v", models.ErrOriginMalformed, err))
	}

	found := decoded.Results
	if found == nil {
		found = []models.Place{}
	}
	if req.Limit > 0 && len(found) > req.Limit {
		found = found[:req.Limit]
	}

	s.logger.LogSuccess(ctx, logger.OpPlaceSearch, result.Key, "Place search completed", map[string]interface{}{
		"source":      string(result.Source),
		"results":     len(found),
		"duration_ms": time.Since(start).Milliseconds(),
	})

	return &models.PlaceSearchResponse{
		Key:       result.Key,
		Places:    found,
		Total:     len(found),
		Cached:    result.Source != placeCache.TierOrigin,
		Source:    string(result.Source),
		Hits:      result.Hits,
		Timestamp: time.Now().UTC(),
	}, nil
}

// BatchSearch runs several searches concurrently; one failing search does not fail the batch
func (s *Service) BatchSearch(ctx context.Context, searches []models.BatchSearchItem) (*models.BatchSearchResponse, error) {
	start := time.Now()

	s.logger.LogInfo(ctx, logger.OpBatchSearch, fmt.Sprintf("Starting batch search of %d locations", len(searches)), map[string]interface{}{
		"searches_count": len(searches),
	})

	results := make([]models.BatchSearchResult, len(searches))

	// Semaphore bounds concurrent lookups
	sem := make(chan struct{}, s.maxConcurrent)
	var wg sync.WaitGroup

	for i, item := range searches {
		wg.Add(1)

		go func(i int, item models.BatchSearchItem) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			itemCtx, cancel := context.WithTimeout(ctx, s.itemTimeout)
			defer cancel()

			resp, err := s.Search(itemCtx, models.PlaceSearchRequest{
				Latitude:  item.Latitude,
				Longitude: item.Longitude,
				Query:     item.Query,
				Limit:     item.Limit,
			})
			if err != nil {
				results[i] = models.BatchSearchResult{Index: i, Success: false, Error: err.Error()}
				return
			}

			results[i] = models.BatchSearchResult{
				Index:   i,
				Key:     resp.Key,
				Places:  resp.Places,
				Total:   resp.Total,
				Cached:  resp.Cached,
				Source:  resp.Source,
				Success: true,
			}
		}(i, item)
	}

	wg.Wait()

	response := &models.BatchSearchResponse{
		Results:   results,
		Summary:   summarize(results),
		Timestamp: time.Now().UTC(),
	}

	s.logger.LogSuccess(ctx, logger.OpBatchSearch, "", "Completed batch search", map[string]interface{}{
		"total":       response.Summary.Total,
		"successful":  response.Summary.Succeeded,
		"failed":      response.Summary.Failed,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	return response, nil
}

func summarize(results []models.BatchSearchResult) models.BatchSummary {
	summary := models.BatchSummary{Total: len(results)}
	for _, r := range results {
		if r.Success {
			summary.Succeeded++
		} else {
			summary.Failed++
		}
	}
	return summary
}
