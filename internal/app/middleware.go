package app

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"expensebot-go/internal/metrics"
)

// contextKey is a custom type to use as a key for context values.
type contextKey string

// requestIDKey is the key for storing the request ID in the request context.
const requestIDKey = contextKey("requestID")

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// withRequestID assigns each request a unique id for log correlation.
func (a *Application) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		ctx := context.WithValue(r.Context(), requestIDKey, id)
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// withLogging logs one line per request with outcome and duration.
func (a *Application) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		a.Logger.Printf("%s %s %d %s request_id=%s",
			r.Method, r.URL.Path, rec.status, time.Since(start), requestIDFromContext(r.Context()))
	})
}

// withMetrics records request duration per path.
func (a *Application) withMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		metrics.RequestDuration.WithLabelValues(metricsPath(r.URL.Path)).Observe(time.Since(start).Seconds())
	})
}

// metricsPath collapses unregistered paths into one bucket so arbitrary
// probes cannot grow the label set without bound.
func metricsPath(path string) string {
	switch path {
	case "/health", "/process-message":
		return path
	default:
		return "other"
	}
}

// requestIDFromContext retrieves the request ID, empty if absent.
func requestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
