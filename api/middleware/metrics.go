package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/aquaticpose/aquaticpose-backend/pkg/metrics"
)

// Metrics records request counters and latencies.
func Metrics(m *metrics.HTTPMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w}
			start := time.Now()

			next.ServeHTTP(rec, r)

			if rec.status == 0 {
				rec.status = http.StatusOK
			}
			m.Observe(r.Method, strconv.Itoa(rec.status), time.Since(start))
		})
	}
}
