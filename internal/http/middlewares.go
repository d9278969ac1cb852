package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"PlaceCache/internal/logger"
	"PlaceCache/internal/models"
	"PlaceCache/internal/ratelimit"
)

// maxLoggedBody bounds how much of a request body ends up in the request log
const maxLoggedBody = 1000

// maxRequestBody bounds how much of a request body is read into memory
const maxRequestBody = 1 << 20

// loggingMiddleware creates the request LogEvent and logs request start and completion
func loggingMiddleware(loggerService logger.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientIP := getClientIP(r)
			logEvent := logger.NewRequestLogEvent(clientIP)

			ctx := logger.WithLogEvent(r.Context(), logEvent)
			r = r.WithContext(ctx)

			requestMetadata := map[string]interface{}{
				"method":     r.Method,
				"path":       r.URL.Path,
				"user_agent": r.UserAgent(),
				"client_ip":  clientIP,
			}
			if r.URL.RawQuery != "" {
				requestMetadata["query"] = r.URL.RawQuery
			}
			if body := captureBody(w, r); body != "" {
				requestMetadata["body"] = body
			}

			loggerService.LogInfo(ctx, "http_request_start", "HTTP request received", requestMetadata)

			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r)

			loggerService.LogInfo(ctx, "http_request_complete", "HTTP request processed", map[string]interface{}{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status_code": wrapped.statusCode,
				"duration_ms": time.Since(logEvent.StartTime).Milliseconds(),
				"client_ip":   clientIP,
			})
		})
	}
}

// captureBody reads the request body for logging and restores it for the handler.
// Bodies over maxRequestBody are not buffered: the handler sees the read error instead.
func captureBody(w http.ResponseWriter, r *http.Request) string {
	if r.Body == nil || r.Body == http.NoBody {
		return ""
	}

	bodyBytes, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBody))
	r.Body.Close()
	if err != nil {
		r.Body = io.NopCloser(&failedBody{err: err})
		return fmt.Sprintf("(unreadable body: %v)", err)
	}
	r.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))

	if len(bodyBytes) > maxLoggedBody {
		return string(bodyBytes[:maxLoggedBody]) + "... (truncated)"
	}
	return string(bodyBytes)
}

// failedBody replays a body read error to the handler
type failedBody struct {
	err error
}

func (b *failedBody) Read([]byte) (int, error) {
	return 0, b.err
}

// corsMiddleware adds CORS headers
func corsMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Expose-Headers", "X-Request-ID")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(loggerService logger.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					loggerService.LogError(
						r.Context(),
						"panic_recovery",
						"",
						"Panic recovered in HTTP handler",
						fmt.Errorf("panic: %v", err),
						models.LogSeverityHigh,
						map[string]interface{}{
							"panic":  err,
							"path":   r.URL.Path,
							"method": r.Method,
						},
					)

					writeMiddlewareError(w, r, http.StatusInternalServerError, "internal server error", "An unexpected error occurred")
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// rateLimitingMiddleware applies per client rate limiting.
// Expects the LogEvent to already be in context from the logging middleware.
func rateLimitingMiddleware(rateLimiter ratelimit.Service, loggerService logger.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			clientIP := logger.GetLogEvent(ctx).ClientIP

			if !rateLimiter.Allow(clientIP) {
				loggerService.LogError(ctx, logger.OpRateLimited, clientIP, "Rate limit exceeded", models.ErrRateLimitExceeded, models.LogSeverityMedium, map[string]interface{}{
					"path":   r.URL.Path,
					"method": r.Method,
				})

				w.Header().Set("Retry-After", "1")
				writeMiddlewareError(w, r, http.StatusTooManyRequests, "rate limit exceeded", "Please try again later")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// writeMiddlewareError writes an ErrorResponse outside of a Handler
func writeMiddlewareError(w http.ResponseWriter, r *http.Request, statusCode int, error, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Request-ID", logger.GetLogEvent(r.Context()).ProcessID)
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error:     error,
		Message:   message,
		Timestamp: time.Now().UTC(),
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// getClientIP extracts the client IP address from the request
func getClientIP(r *http.Request) string {
	// X-Forwarded-For first, for load balancers and proxies
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return host
}
