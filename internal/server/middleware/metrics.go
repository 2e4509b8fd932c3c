package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/traktrelay/traktrelay/internal/observability"
)

// responseWriter wraps http.ResponseWriter to capture status code and response size
type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int64
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += int64(n)
	return n, err
}

// getEndpointPattern extracts the chi route pattern to avoid high-cardinality
// metric labels. The proxied upstream path is a query parameter and never part
// of the route, so the proxy route stays a single label value.
func getEndpointPattern(r *http.Request) string {
	routePattern := chi.RouteContext(r.Context()).RoutePattern()
	if routePattern != "" {
		return routePattern
	}

	path := r.URL.Path
	switch {
	case strings.HasPrefix(path, "/health"):
		return "/health/*"
	case path == "/version":
		return "/version"
	case path == "/metrics":
		return "/metrics"
	case path == "/proxy":
		return "/proxy"
	default:
		return "/unknown"
	}
}

// RequestMetrics captures HTTP request metrics and writes the per-request log line.
func RequestMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start)
		endpoint := getEndpointPattern(r)

		if observability.TelemetrySystem != nil {
			commonLabels := map[string]string{
				"method":   r.Method,
				"endpoint": endpoint,
				"status":   strconv.Itoa(wrapped.statusCode),
			}

			_ = observability.TelemetrySystem.Counter(
				"http_requests_total",
				1,
				commonLabels,
			)

			_ = observability.TelemetrySystem.Histogram(
				"http_request_duration_ms",
				duration,
				commonLabels,
			)

			if wrapped.statusCode >= 400 {
				errorType := "client_error"
				if wrapped.statusCode >= 500 {
					errorType = "server_error"
				}

				_ = observability.TelemetrySystem.Counter(
					"http_errors_total",
					1,
					map[string]string{
						"method":     r.Method,
						"endpoint":   endpoint,
						"status":     strconv.Itoa(wrapped.statusCode),
						"error_type": errorType,
					},
				)
			}
		}

		if observability.GatewayLogger != nil {
			observability.GatewayLogger.Info("HTTP request completed",
				zap.String("method", r.Method),
				zap.String("endpoint", endpoint),
				zap.Int("status", wrapped.statusCode),
				zap.Duration("duration", duration),
				zap.Int64("response_size", wrapped.bytesWritten),
				zap.String("requestID", GetRequestID(r.Context())),
			)
		}
	})
}
