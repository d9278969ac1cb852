package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockRateLimiter stands in for the per-client limiter in front of the place API
type MockRateLimiter struct {
	mock.Mock
}

// NewClientRateLimiter returns a limiter that answers every Allow call with allowed
func NewClientRateLimiter(allowed bool) *MockRateLimiter {
	m := &MockRateLimiter{}
	m.On("Allow", mock.AnythingOfType("string")).Return(allowed).Maybe()
	return m
}

func (m *MockRateLimiter) Allow(clientIP string) bool {
	return m.Called(clientIP).Bool(0)
}

func (m *MockRateLimiter) Wait(ctx context.Context, clientIP string) error {
	return m.Called(ctx, clientIP).Error(0)
}
