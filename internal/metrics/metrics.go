// Package metrics registers the Prometheus collectors exported on /metrics.
//
// Collectors are package-level and registered once through promauto, so any
// component may record into them without wiring a registry around.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Upstream calls (TMDB, Gemini)
	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "morelikethis_upstream_requests_total",
			Help: "Total number of upstream API calls by service, operation and outcome",
		},
		[]string{"service", "operation", "outcome"}, // outcome: "ok", "not_found", "error", "rejected"
	)

	UpstreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "morelikethis_upstream_request_duration_seconds",
			Help:    "Latency of upstream API calls in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"service", "operation"},
	)

	// Memoization caches
	CacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "morelikethis_cache_requests_total",
			Help: "Total number of cache lookups by cache and result",
		},
		[]string{"cache", "result"}, // result: "hit", "miss", "stale"
	)

	CacheEntries = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "morelikethis_cache_entries",
			Help: "Current number of entries held by each cache",
		},
		[]string{"cache"},
	)

	// Reconciliation
	ReconcileCandidates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "morelikethis_reconcile_candidates_total",
			Help: "Generative suggestions processed by reconciliation, by outcome",
		},
		[]string{"outcome"}, // "resolved", "not_found", "failed"
	)

	// Addon protocol
	AddonRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "morelikethis_addon_requests_total",
			Help: "Addon protocol requests by resource and mode",
		},
		[]string{"resource", "mode"},
	)

	// Circuit breakers
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "morelikethis_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "morelikethis_circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)
)

// ObserveUpstream records one upstream call.
func ObserveUpstream(service, operation, outcome string, elapsed time.Duration) {
	UpstreamRequests.WithLabelValues(service, operation, outcome).Inc()
	UpstreamDuration.WithLabelValues(service, operation).Observe(elapsed.Seconds())
}
