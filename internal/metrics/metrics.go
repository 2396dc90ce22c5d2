package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collectors are registered with the default registry through promauto
// and exposed by promhttp on /metrics.

var (
	// ==================== HTTP METRICS ====================

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	// ==================== STORE METRICS ====================

	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "store_operation_duration_seconds",
			Help:    "Duration of mapping store operations in seconds",
			Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"operation"}, // save, find
	)

	StoreErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_errors_total",
			Help: "Total number of mapping store errors",
		},
		[]string{"operation", "kind"}, // kind: conflict, backend
	)

	// ==================== BUSINESS METRICS ====================

	MappingsCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mappings_created_total",
			Help: "Total number of short code mappings created",
		},
	)

	ShortenConflictsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shorten_conflicts_total",
			Help: "Total number of generated short codes that collided with an existing one",
		},
	)

	LookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lookups_total",
			Help: "Total number of short code lookups by outcome",
		},
		[]string{"endpoint", "outcome"}, // outcome: found, absent, error
	)

	RedirectsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redirects_total",
			Help: "Total number of redirects issued",
		},
		[]string{"target"}, // original, not_found
	)
)

// ObserveStoreOperation records the latency of one store call.
func ObserveStoreOperation(operation string, start time.Time) {
	StoreOperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// RecordStoreError counts a failed store call.
func RecordStoreError(operation, kind string) {
	StoreErrorsTotal.WithLabelValues(operation, kind).Inc()
}

// RecordMappingCreated increments the created mappings counter.
func RecordMappingCreated() {
	MappingsCreatedTotal.Inc()
}

// RecordShortenConflict increments the conflict counter.
func RecordShortenConflict() {
	ShortenConflictsTotal.Inc()
}

// RecordLookup counts a lookup outcome for an endpoint.
func RecordLookup(endpoint, outcome string) {
	LookupsTotal.WithLabelValues(endpoint, outcome).Inc()
}

// RecordRedirect counts a redirect to either the original URL or the not-found page.
func RecordRedirect(target string) {
	RedirectsTotal.WithLabelValues(target).Inc()
}
