package places

import (
	"context"

	"PlaceCache/internal/models"
)

// SearchService defines the interface for place search operations
// External packages should use this interface, not the concrete implementations
type SearchService interface {
	Search(ctx context.Context, req models.PlaceSearchRequest) (*models.PlaceSearchResponse, error)
	BatchSearch(ctx context.Context, searches []models.BatchSearchItem) (*models.BatchSearchResponse, error)
}
