package ratelimit

import "context"

// Service defines the interface for per-client rate limiting
// External packages should use this interface, not the concrete implementations
type Service interface {
	Allow(clientIP string) bool
	Wait(ctx context.Context, clientIP string) error
}

// Throttle paces calls to a single shared resource such as the origin search provider
type Throttle interface {
	Wait(ctx context.Context) error
}
