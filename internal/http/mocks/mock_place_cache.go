package mocks

import (
	"context"

	"PlaceCache/internal/cache/placeCache"
	"PlaceCache/internal/models"
	"PlaceCache/internal/pagination"

	"github.com/stretchr/testify/mock"
)

// MockPlaceCache is a mock implementation of placeCache.Service
type MockPlaceCache struct {
	mock.Mock
}

// Lookup mocks the Lookup method of placeCache.Service
func (m *MockPlaceCache) Lookup(ctx context.Context, lat, lng float64, query string, fetch placeCache.OriginFunc) (*placeCache.Result, error) {
	args := m.Called(ctx, lat, lng, query, fetch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*placeCache.Result), args.Error(1)
}

// InvalidateAll mocks the InvalidateAll method of placeCache.Service
func (m *MockPlaceCache) InvalidateAll(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// List mocks the List method of placeCache.Service
func (m *MockPlaceCache) List(ctx context.Context, req pagination.Request) ([]models.CacheEntrySummary, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.CacheEntrySummary), args.Error(1)
}

// Stats mocks the Stats method of placeCache.Service
func (m *MockPlaceCache) Stats() models.CacheStats {
	args := m.Called()
	return args.Get(0).(models.CacheStats)
}
