// Package trace assigns request IDs and keeps the request counters served
// on /metrics.
package trace

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"regexp"
	"sync/atomic"
	"time"
)

// ContextKey type for context keys
type ContextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey ContextKey = "request_id"

	// HeaderRequestID is echoed on every response.
	HeaderRequestID = "X-Request-ID"
)

var validRequestID = regexp.MustCompile(`^[A-Za-z0-9_\-]{8,64}$`)

// Metrics is a snapshot of the request counters.
type Metrics struct {
	TotalRequests   int64
	InFlight        int64
	ClientErrors    int64
	ServerErrors    int64
	TotalDurationMs int64
}

// AverageDurationMs is the mean request duration.
func (m Metrics) AverageDurationMs() float64 {
	if m.TotalRequests == 0 {
		return 0
	}
	return float64(m.TotalDurationMs) / float64(m.TotalRequests)
}

type Middleware struct {
	total, inFlight, clientErr, serverErr, durationMs atomic.Int64
}

func NewMiddleware() *Middleware {
	return &Middleware{}
}

// Middleware tags the request with an ID, reusing a well-formed incoming
// X-Request-ID, and records the outcome.
func (m *Middleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := r.Header.Get(HeaderRequestID)
		if !validRequestID.MatchString(requestID) {
			requestID = GenerateRequestID()
		}
		w.Header().Set(HeaderRequestID, requestID)
		r = r.WithContext(context.WithValue(r.Context(), RequestIDKey, requestID))

		m.inFlight.Add(1)
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		defer func() {
			m.inFlight.Add(-1)
			m.total.Add(1)
			m.durationMs.Add(time.Since(start).Milliseconds())
			switch {
			case rw.statusCode >= 500:
				m.serverErr.Add(1)
			case rw.statusCode >= 400:
				m.clientErr.Add(1)
			}
		}()
		next.ServeHTTP(rw, r)
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// GenerateRequestID creates a unique request ID for tracing
func GenerateRequestID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(b)
}

// GetRequestID extracts the request ID from context
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}

// RequestID reads the ID of a request that went through the middleware.
func RequestID(r *http.Request) string {
	return GetRequestID(r.Context())
}

// GetMetrics returns current metrics
func (m *Middleware) GetMetrics() Metrics {
	return Metrics{
		TotalRequests:   m.total.Load(),
		InFlight:        m.inFlight.Load(),
		ClientErrors:    m.clientErr.Load(),
		ServerErrors:    m.serverErr.Load(),
		TotalDurationMs: m.durationMs.Load(),
	}
}
