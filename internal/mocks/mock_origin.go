package mocks

import (
	"context"
	"encoding/json"

	"PlaceCache/internal/models"

	"github.com/stretchr/testify/mock"
)

// MockOrigin is a mock implementation of origin.Service
type MockOrigin struct {
	mock.Mock
}

// Search mocks the Search method of origin.Service
func (m *MockOrigin) Search(ctx context.Context, req models.PlaceSearchRequest) (json.RawMessage, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}
