package http

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	httpMocks "PlaceCache/internal/http/mocks"
	"PlaceCache/internal/mocks"
	"PlaceCache/internal/pagination"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newMockedServer(addr string, mockLogger *mocks.MockLogger, mockRateLimiter *httpMocks.MockRateLimiter) *Server {
	handler := NewHandler(&httpMocks.MockSearchService{}, &httpMocks.MockPlaceCache{}, mockLogger, pagination.DefaultSettings(), 0)
	return NewServer(addr, handler, mockLogger, mockRateLimiter, 10*time.Second, 10*time.Second)
}

func TestServer_StartWithInvalidAddr(t *testing.T) {
	// Arrange
	mockLogger := &mocks.MockLogger{}
	server := newMockedServer("invalid-address:99999", mockLogger, &httpMocks.MockRateLimiter{})

	mockLogger.On("LogInfo", mock.Anything, "server_start", "Starting HTTP server", mock.MatchedBy(func(metadata map[string]interface{}) bool {
		return metadata["addr"] == "invalid-address:99999"
	})).Return()

	// Act
	err := server.Start()

	// Assert
	assert.Error(t, err)
	mockLogger.AssertExpectations(t)
}

func TestServer_StartWithPortInUse(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	mockLogger := &mocks.MockLogger{}
	server := newMockedServer(listener.Addr().String(), mockLogger, &httpMocks.MockRateLimiter{})
	mockLogger.On("LogInfo", mock.Anything, "server_start", "Starting HTTP server", mock.Anything).Return()

	err = server.Start()

	assert.Error(t, err)
	mockLogger.AssertExpectations(t)
}

func TestServer_Shutdown(t *testing.T) {
	mockLogger := &mocks.MockLogger{}
	server := newMockedServer("localhost:0", mockLogger, &httpMocks.MockRateLimiter{})
	mockLogger.On("LogInfo", mock.Anything, "server_shutdown", "Shutting down HTTP server", mock.Anything).Return()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Shutdown succeeds even if the server was never started
	assert.NoError(t, server.Shutdown(ctx))
	mockLogger.AssertExpectations(t)
}

func TestServer_Timeouts(t *testing.T) {
	handler := NewHandler(&httpMocks.MockSearchService{}, &httpMocks.MockPlaceCache{}, &mocks.MockLogger{}, pagination.DefaultSettings(), 0)
	server := NewServer(":8080", handler, &mocks.MockLogger{}, &httpMocks.MockRateLimiter{}, 15*time.Second, 20*time.Second)

	assert.Equal(t, ":8080", server.server.Addr)
	assert.Equal(t, 15*time.Second, server.server.ReadTimeout)
	assert.Equal(t, 20*time.Second, server.server.WriteTimeout)
	assert.NotNil(t, server.server.Handler)
}

func TestRouterRegistration(t *testing.T) {
	mockLogger := mocks.NewQuietLogger()
	// Rate limiting every matched route keeps handlers out of the picture
	mockRateLimiter := httpMocks.NewClientRateLimiter(false)

	server := newMockedServer("localhost:0", mockLogger, mockRateLimiter)

	testCases := []struct {
		method   string
		path     string
		expected int
	}{
		{"GET", "/health", http.StatusTooManyRequests},
		{"GET", "/", http.StatusTooManyRequests},
		{"GET", "/api/places/search", http.StatusTooManyRequests},
		{"POST", "/api/places/batch", http.StatusTooManyRequests},
		{"DELETE", "/api/cache", http.StatusTooManyRequests},
		{"POST", "/api/cache/clear", http.StatusTooManyRequests},
		{"GET", "/api/cache/entries", http.StatusTooManyRequests},
		{"GET", "/api/cache/stats", http.StatusTooManyRequests},
		{"PUT", "/health", http.StatusMethodNotAllowed},
		{"GET", "/api/cache", http.StatusMethodNotAllowed},
		{"GET", "/api/places/batch", http.StatusMethodNotAllowed},
		{"GET", "/nonexistent", http.StatusNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.method+"_"+tc.path, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			req.RemoteAddr = "127.0.0.1:12345"
			w := httptest.NewRecorder()

			server.server.Handler.ServeHTTP(w, req)

			assert.Equal(t, tc.expected, w.Code)
		})
	}
}
