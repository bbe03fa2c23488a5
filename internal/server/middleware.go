package server

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/example/go-vibrato/internal/metrics"
)

type requestIDKey struct{}

// RequestIDFromContext returns the ID assigned by withRequestID, if any.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// statusRecorder remembers the status code written by the wrapped handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// withRequestID keeps a client-supplied X-Request-ID or assigns a new one.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

// routeLabel maps a request path onto the fixed set of served routes so
// arbitrary paths cannot create new metric series.
func routeLabel(path string) string {
	switch path {
	case "/health", "/metrics", "/tokenize", "/surfaces":
		return path
	default:
		return "other"
	}
}

// withMetrics counts every request except metric scrapes.
func withMetrics(next http.Handler, m *metrics.Collector) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		elapsed := time.Since(start)
		if r.URL.Path == "/metrics" {
			return
		}
		m.RecordRequest(routeLabel(r.URL.Path), rec.status, elapsed)
	})
}
