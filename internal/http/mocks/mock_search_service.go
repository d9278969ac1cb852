package mocks

import (
	"context"

	"PlaceCache/internal/models"

	"github.com/stretchr/testify/mock"
)

// MockSearchService is a mock implementation of places.SearchService
type MockSearchService struct {
	mock.Mock
}

// Search mocks the Search method of places.SearchService
func (m *MockSearchService) Search(ctx context.Context, req models.PlaceSearchRequest) (*models.PlaceSearchResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PlaceSearchResponse), args.Error(1)
}

// BatchSearch mocks the BatchSearch method of places.SearchService
func (m *MockSearchService) BatchSearch(ctx context.Context, searches []models.BatchSearchItem) (*models.BatchSearchResponse, error) {
	args := m.Called(ctx, searches)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BatchSearchResponse), args.Error(1)
}
