package origin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"PlaceCache/internal/models"
	"PlaceCache/internal/ratelimit"

	"github.com/go-resty/resty/v2"
)

const (
	searchPath = "/places/search"

	// maxResponseBytes bounds the payload a single search may cache
	maxResponseBytes = 1 << 20

	userAgent = "PlaceCache/1.0"
)

// Settings configures the origin client
type Settings struct {
	BaseURL     string
	APIKey      string
	Timeout     time.Duration
	ResultLimit int
}

// HTTPClient implements Service against a Foursquare-style places API
type HTTPClient struct {
	resty       *resty.Client
	throttle    ratelimit.Throttle
	resultLimit int
}

// NewHTTPClient creates a new origin client; calls are paced by throttle when it is non-nil
func NewHTTPClient(settings Settings, throttle ratelimit.Throttle) Service {
	return newHTTPClient(settings, throttle)
}

// newHTTPClient creates the concrete implementation
func newHTTPClient(settings Settings, throttle ratelimit.Throttle) *HTTPClient {
	if settings.Timeout <= 0 {
		settings.Timeout = 10 * time.Second
	}
	if settings.ResultLimit <= 0 {
		settings.ResultLimit = 20
	}

	rc := resty.New().
		SetBaseURL(strings.TrimRight(settings.BaseURL, "/")).
		SetTimeout(settings.Timeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", userAgent).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(5))

	if settings.APIKey != "" {
		rc.SetHeader("Authorization", settings.APIKey)
	}

	return &HTTPClient{
		resty:       rc,
		throttle:    throttle,
		resultLimit: settings.ResultLimit,
	}
}

// Search queries the provider for places around the requested point
func (c *HTTPClient) Search(ctx context.Context, req models.PlaceSearchRequest) (json.RawMessage, error) {
	if c.throttle != nil {
		if err := c.throttle.Wait(ctx); err != nil {
			return nil, classifyTransportError(ctx, fmt.Errorf("waiting for origin quota: %w", err))
		}
	}

	limit := req.Limit
	if limit <= 0 || limit > c.resultLimit {
		limit = c.resultLimit
	}

	params := map[string]string{
		"ll":    formatCoordinate(req.Latitude) + "," + formatCoordinate(req.Longitude),
		"limit": strconv.Itoa(limit),
	}
	if query := strings.TrimSpace(req.Query); query != "" {
		params["query"] = query
	}

	resp, err := c.resty.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get(searchPath)
	if err != nil {
		return nil, classifyTransportError(ctx, err)
	}

	switch status := resp.StatusCode(); {
	case status == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: HTTP %d", models.ErrOriginRateLimited, status)
	case status < 200 || status >= 300:
		return nil, fmt.Errorf("%w: HTTP %d %s", models.ErrOriginUnavailable, status, strings.TrimSpace(truncate(resp.String(), 200)))
	}

	body := resp.Body()
	if len(body) > maxResponseBytes {
		return nil, fmt.Errorf("%w: response exceeds %d bytes", models.ErrOriginMalformed, maxResponseBytes)
	}

	var result models.PlaceSearchResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrOriginMalformed, err)
	}
	if result.Results == nil {
		result.Results = []models.Place{}
	}

	// Re-encode so the cached payload only carries fields we understand
	normalized, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrOriginMalformed, err)
	}

	return normalized, nil
}

// classifyTransportError maps network and context failures onto origin sentinels
func classifyTransportError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", models.ErrOriginTimeout, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", models.ErrOriginTimeout, err)
	}

	if errors.Is(err, context.Canceled) {
		return err
	}

	return fmt.Errorf("%w: %v", models.ErrOriginUnavailable, err)
}

func formatCoordinate(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
