// Package middleware provides the HTTP middleware chain for the resolve API:
// request ids, Prometheus request metrics, and per-request timeouts.
package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/lexiconlabs/resolution-platform/pkg/metrics"
)

// Metrics records request count, latency, and the in-flight gauge for every
// API route.
func Metrics(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			m.HTTPRequestsInFlight.Inc()
			defer m.HTTPRequestsInFlight.Dec()

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			route := routeLabel(r.URL.Path)
			m.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
			m.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
		})
	}
}

// routeLabel collapses unknown paths into one label so ad-hoc probes cannot
// blow up metric cardinality.
func routeLabel(path string) string {
	switch path {
	case "/v1/resolve", "/v1/token", "/healthz", "/readyz":
		return path
	}
	return "other"
}

// statusRecorder captures the response status code for the request counter.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
