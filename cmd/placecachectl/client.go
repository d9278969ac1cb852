package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	apihttp "PlaceCache/internal/http"

	"github.com/go-resty/resty/v2"
)

// apiClient calls the place cache API
type apiClient struct {
	resty *resty.Client
}

func newAPIClient(addr string, timeout time.Duration) *apiClient {
	rc := resty.New().
		SetBaseURL(strings.TrimRight(addr, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "placecachectl/"+version)

	return &apiClient{resty: rc}
}

// do sends the request and decodes a successful body into out
func (c *apiClient) do(ctx context.Context, method, path string, query map[string]string, out interface{}) error {
	var apiErr apihttp.ErrorResponse

	req := c.resty.R().
		SetContext(ctx).
		SetResult(out).
		SetError(&apiErr)
	if len(query) > 0 {
		req.SetQueryParams(query)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}

	if resp.IsError() {
		if apiErr.Error == "" {
			if apiErr.Message != "" {
				// Bodies such as a failed clear carry only a message
				return fmt.Errorf("%s %s: %d %s", method, path, resp.StatusCode(), apiErr.Message)
			}
			return fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode())
		}
		if apiErr.Message != "" {
			return fmt.Errorf("%s %s: %d %s: %s", method, path, resp.StatusCode(), apiErr.Error, apiErr.Message)
		}
		return fmt.Errorf("%s %s: %d %s", method, path, resp.StatusCode(), apiErr.Error)
	}

	return nil
}
