package mocks

import (
	"context"
	"encoding/json"

	"PlaceCache/internal/models"
	"PlaceCache/internal/pagination"

	"github.com/stretchr/testify/mock"
)

// MockStore is a mock implementation of store.Service
type MockStore struct {
	mock.Mock
}

// Get mocks the Get method of store.Service
func (m *MockStore) Get(ctx context.Context, key string) (*models.CacheEntry, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CacheEntry), args.Error(1)
}

// Put mocks the Put method of store.Service
func (m *MockStore) Put(ctx context.Context, key string, payload json.RawMessage) error {
	args := m.Called(ctx, key, payload)
	return args.Error(0)
}

// DeleteAll mocks the DeleteAll method of store.Service
func (m *MockStore) DeleteAll(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// List mocks the List method of store.Service
func (m *MockStore) List(ctx context.Context, req pagination.Request) ([]models.CacheEntrySummary, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.CacheEntrySummary), args.Error(1)
}

// Close mocks the Close method of store.Service
func (m *MockStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
