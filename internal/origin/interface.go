package origin

import (
	"context"
	"encoding/json"

	"PlaceCache/internal/models"
)

// Service defines the interface for the origin place search provider
// External packages should use this interface, not the concrete implementations
type Service interface {
	// Search returns the provider's result document for the request
	Search(ctx context.Context, req models.PlaceSearchRequest) (json.RawMessage, error)
}
