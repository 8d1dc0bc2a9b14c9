package middleware

import (
	"net/http"
	"time"
)

// HTTPRecorder receives one observation per completed request.
// *metrics.Collector implements it.
type HTTPRecorder interface {
	RecordHTTPRequest(path string, status int, duration time.Duration)
}

// MetricsMiddleware records the path, status and latency of every request.
// Paths are reported as requested; the recorder bounds their cardinality.
//
// Example usage:
//
//	handler = MetricsMiddleware(collector)(handler)
func MetricsMiddleware(rec HTTPRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if rec == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := newResponseWriter(w)

			next.ServeHTTP(rw, r)

			rec.RecordHTTPRequest(r.URL.Path, rw.status(r.Context()), time.Since(start))
		})
	}
}
