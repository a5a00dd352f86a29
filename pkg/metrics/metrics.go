// Package metrics defines the Prometheus metric collectors used across the
// platform and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the platform.
type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
	RunsResolvedTotal    *prometheus.CounterVec
	RunsUnresolvedTotal  prometheus.Counter
	ResolvePassesTotal   prometheus.Counter
	OverflowRunsTotal    prometheus.Counter
	SettleStepsTotal     prometheus.Counter
	HyphenFallbackTotal  *prometheus.CounterVec
	ResolveLatency       *prometheus.HistogramVec
	VocabCacheHitsTotal  *prometheus.CounterVec
	VocabCacheMissTotal  prometheus.Counter
	TokensMintedTotal    prometheus.Counter
	ActiveArenas         prometheus.Gauge
	DocsProcessedTotal   prometheus.Counter
	CircuitBreakerState  *prometheus.GaugeVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed.",
			},
		),
		RunsResolvedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "runs_resolved_total",
				Help: "Total character runs resolved, labelled by tier.",
			},
			[]string{"tier"},
		),
		RunsUnresolvedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "runs_unresolved_total",
				Help: "Total character runs that exhausted every tier without a match.",
			},
		),
		ResolvePassesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "resolve_passes_total",
				Help: "Total arena passes, including overflow re-passes.",
			},
		),
		OverflowRunsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "overflow_runs_total",
				Help: "Total runs deferred to a later pass because a slot pool was full.",
			},
		),
		SettleStepsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "settle_steps_total",
				Help: "Total settlement steps executed across all arenas.",
			},
		),
		HyphenFallbackTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hyphen_fallback_total",
				Help: "Hyphen fallback attempts by stage (compound, segment) and outcome.",
			},
			[]string{"stage", "outcome"},
		),
		ResolveLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "resolve_latency_seconds",
				Help:    "End-to-end Resolve call latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
			[]string{"source"},
		),
		VocabCacheHitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vocab_cache_hits_total",
				Help: "Vocabulary token cache hits by layer (lru, redis).",
			},
			[]string{"layer"},
		),
		VocabCacheMissTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "vocab_cache_misses_total",
				Help: "Vocabulary token cache misses that fell through to the store.",
			},
		),
		TokensMintedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "tokens_minted_total",
				Help: "New token ids minted for previously unknown words.",
			},
		),
		ActiveArenas: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "active_arenas",
				Help: "Number of per-length resolution arenas initialized.",
			},
		),
		DocsProcessedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "docs_processed_total",
				Help: "Documents consumed from the ingest topic and resolved.",
			},
		),
		CircuitBreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "circuit_breaker_state",
				Help: "Circuit breaker state (0=closed, 1=open, 2=half-open).",
			},
			[]string{"name"},
		),
	}

	prometheus.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.RunsResolvedTotal,
		m.RunsUnresolvedTotal,
		m.ResolvePassesTotal,
		m.OverflowRunsTotal,
		m.SettleStepsTotal,
		m.HyphenFallbackTotal,
		m.ResolveLatency,
		m.VocabCacheHitsTotal,
		m.VocabCacheMissTotal,
		m.TokensMintedTotal,
		m.ActiveArenas,
		m.DocsProcessedTotal,
		m.CircuitBreakerState,
	)

	return m
}

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
