package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/velora-hq/explorer-engine/pkg/metrics"
)

// Metrics returns middleware that records request durations per route.
// It must wrap the mux directly: the route label comes from r.Pattern,
// which the mux fills in during dispatch.
func Metrics() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			route := r.Pattern
			if route == "" {
				route = "unmatched"
			}
			metrics.HTTPRequestDuration.WithLabelValues(
				r.Method,
				route,
				strconv.Itoa(wrapped.statusCode),
			).Observe(time.Since(start).Seconds())
		})
	}
}
