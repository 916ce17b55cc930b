package middleware

import (
	"net/http"
	"time"

	"github.com/crucial707/timecard/internal/metrics"
)

// Prometheus records duration and count for every request except the scrape
// endpoint itself. Mount after Recoverer so 500s from panics are counted.
func Prometheus(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		if r.URL.Path == "/metrics" {
			return
		}
		path := r.URL.Path
		if path == "" {
			path = "/"
		}
		metrics.RecordRequest(r.Method, path, sw.status, time.Since(start).Seconds())
	})
}
