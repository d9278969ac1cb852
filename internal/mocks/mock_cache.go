package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
)

// MockCache is a mock implementation of cache.Service
type MockCache struct {
	mock.Mock
}

// Get mocks the Get method of cache.Service
func (m *MockCache) Get(ctx context.Context, key string) (interface{}, error) {
	args := m.Called(ctx, key)
	return args.Get(0), args.Error(1)
}

// Set mocks the Set method of cache.Service
func (m *MockCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

// Clear mocks the Clear method of cache.Service
func (m *MockCache) Clear(ctx context.Context) {
	m.Called(ctx)
}

// Size mocks the Size method of cache.Service
func (m *MockCache) Size() int {
	args := m.Called()
	return args.Int(0)
}
