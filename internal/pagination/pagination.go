// Package pagination turns ordered result sets into cursor or page based
// envelopes. It knows nothing about caching and works on any slice ordered
// newest first by a timestamp field.
package pagination

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"PlaceCache/internal/models"
)

const (
	// DefaultLimit is the page size used when the caller does not ask for one
	DefaultLimit = 20

	// MaxLimit is the largest page size a caller can get
	MaxLimit = 100
)

// Settings holds the page size policy
type Settings struct {
	DefaultLimit int
	MaxLimit     int
}

// DefaultSettings returns the standard page size policy
func DefaultSettings() Settings {
	return Settings{DefaultLimit: DefaultLimit, MaxLimit: MaxLimit}
}

func (s Settings) withDefaults() Settings {
	if s.MaxLimit <= 0 {
		s.MaxLimit = MaxLimit
	}
	if s.DefaultLimit <= 0 {
		s.DefaultLimit = DefaultLimit
	}
	if s.DefaultLimit > s.MaxLimit {
		s.DefaultLimit = s.MaxLimit
	}
	return s
}

// Request is a normalized pagination request. When Cursor is set it takes
// precedence over Page.
type Request struct {
	Limit  int
	Page   int
	Cursor *time.Time
}

// NewRequest builds a Request, clamping limit into [1, MaxLimit] and page to
// at least 1. Out of range values are never rejected.
func NewRequest(limit, page int, cursor *time.Time, settings Settings) Request {
	settings = settings.withDefaults()

	if limit < 1 {
		limit = 1
	}
	if limit > settings.MaxLimit {
		limit = settings.MaxLimit
	}
	if page < 1 {
		page = 1
	}

	return Request{Limit: limit, Page: page, Cursor: cursor}
}

// ParseRequest reads limit, page and cursor query parameters.
// A missing or unparsable limit means the default limit; a malformed cursor
// is the only input that is rejected.
func ParseRequest(values url.Values, settings Settings) (Request, error) {
	settings = settings.withDefaults()

	limit := settings.DefaultLimit
	if raw := strings.TrimSpace(values.Get("limit")); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			limit = v
		}
	}

	page := 1
	if raw := strings.TrimSpace(values.Get("page")); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			page = v
		}
	}

	var cursor *time.Time
	if raw := strings.TrimSpace(values.Get("cursor")); raw != "" {
		c, err := DecodeCursor(raw)
		if err != nil {
			return Request{}, err
		}
		cursor = &c
	}

	return NewRequest(limit, page, cursor, settings), nil
}

// HasCursor reports whether the request continues from a cursor
func (r Request) HasCursor() bool {
	return r.Cursor != nil
}

// Skip returns the offset the upstream query should apply.
// Cursor requests never skip.
func (r Request) Skip() int {
	if r.HasCursor() || r.Page <= 1 {
		return 0
	}
	return (r.Page - 1) * r.Limit
}

// Pagination describes a returned page.
// HasMore is a heuristic: a full page is assumed to have a successor, so a
// result set that is an exact multiple of the limit ends with an empty page.
type Pagination struct {
	HasMore    bool    `json:"hasMore"`
	NextCursor *string `json:"nextCursor"`
	Page       int     `json:"page"`
	Limit      int     `json:"limit"`
	Count      int     `json:"count"`
}

// Page is the response envelope
type Page[T any] struct {
	Items      []T        `json:"items"`
	Pagination Pagination `json:"pagination"`
}

// NewPage builds the envelope for items an upstream query already
// constrained with the request's cursor or Skip and Limit.
func NewPage[T any](items []T, req Request, orderKey func(T) time.Time) Page[T] {
	if len(items) > req.Limit {
		items = items[:req.Limit]
	}
	if items == nil {
		items = []T{}
	}

	p := Pagination{
		HasMore: len(items) == req.Limit,
		Page:    req.Page,
		Limit:   req.Limit,
		Count:   len(items),
	}
	if p.HasMore {
		next := EncodeCursor(orderKey(items[len(items)-1]))
		p.NextCursor = &next
	}

	return Page[T]{Items: items, Pagination: p}
}

// Paginate applies the request to a full slice ordered newest first.
// With a cursor only items strictly older than the cursor are considered, so
// the boundary item of the previous page is never repeated.
func Paginate[T any](items []T, req Request, orderKey func(T) time.Time) Page[T] {
	var window []T

	if req.HasCursor() {
		for _, item := range items {
			if orderKey(item).Before(*req.Cursor) {
				window = append(window, item)
				if len(window) == req.Limit {
					break
				}
			}
		}
	} else {
		skip := req.Skip()
		if skip < len(items) {
			end := skip + req.Limit
			if end > len(items) {
				end = len(items)
			}
			window = items[skip:end]
		}
	}

	return NewPage(window, req, orderKey)
}

// EncodeCursor renders a cursor token for the given ordering value
func EncodeCursor(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// DecodeCursor parses a cursor token produced by EncodeCursor (any RFC 3339
// timestamp is accepted)
func DecodeCursor(raw string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", models.ErrInvalidCursor, raw)
	}
	return t, nil
}
