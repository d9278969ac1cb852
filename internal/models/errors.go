package models

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCoordinates indicates latitude/longitude outside the valid range
	ErrInvalidCoordinates = errors.New("invalid coordinates")

	// ErrInvalidQuery indicates a malformed search query or category
	ErrInvalidQuery = errors.New("invalid query")

	// ErrInvalidCursor indicates a pagination cursor that is not a timestamp
	ErrInvalidCursor = errors.New("invalid pagination cursor")

	// ErrCacheMiss indicates that no live entry exists for the key
	ErrCacheMiss = errors.New("cache miss")

	// ErrStoreUnavailable indicates that the persistent cache store could not be reached
	ErrStoreUnavailable = errors.New("persistent cache store unavailable")

	// ErrOriginFailed indicates that the origin search provider could not produce a result
	ErrOriginFailed = errors.New("origin search failed")

	// ErrOriginTimeout indicates that the origin search provider timed out
	ErrOriginTimeout = errors.New("timeout while querying origin search provider")

	// ErrOriginRateLimited indicates that the origin search provider rejected the call with a rate limit
	ErrOriginRateLimited = errors.New("origin search provider rate limit exceeded")

	// ErrOriginUnavailable indicates a transport failure or unexpected status from the origin
	ErrOriginUnavailable = errors.New("origin search provider unavailable")

	// ErrOriginMalformed indicates that the origin returned a payload that is not valid JSON
	ErrOriginMalformed = errors.New("malformed origin response")

	// ErrRateLimitExceeded indicates that rate limit has been exceeded
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
)

// LookupError represents a failed place lookup for a specific cache key
type LookupError struct {
	Key     string
	Message string
	Err     error
}

func (e *LookupError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("lookup %s: %s: %v", e.Key, e.Message, e.Err)
	}
	return fmt.Sprintf("lookup %s: %s", e.Key, e.Message)
}

func (e *LookupError) Unwrap() error {
	return e.Err
}

// NewLookupError creates a new lookup-specific error
func NewLookupError(key, message string, err error) *LookupError {
	return &LookupError{
		Key:     key,
		Message: message,
		Err:     err,
	}
}
