// Package telemetry unifies OpenTelemetry tracing and Prometheus metrics.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	cacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stplive_cache_lookups_total",
			Help: "Document cache lookups, labeled by key and hit/miss.",
		},
		[]string{"key", "result"},
	)

	sourceFetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stplive_source_fetch_total",
			Help: "Upstream fetches, labeled by source and outcome.",
		},
		[]string{"source", "outcome"},
	)

	sourceFetchDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stplive_source_fetch_duration_seconds",
			Help:    "Histogram of upstream fetch latencies, labeled by source.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 15},
		},
		[]string{"source"},
	)

	extractionTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stplive_extraction_total",
			Help: "Extraction runs, labeled by strategy and the tier that produced candidates.",
		},
		[]string{"strategy", "tier"},
	)

	pacingDelaySeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stplive_pacing_delay_seconds",
			Help:    "Time spent waiting for a per-host fetch token, labeled by host.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2},
		},
		[]string{"host"},
	)

	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests, labeled by method and code.",
		},
		[]string{"method", "code"},
	)

	httpRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request latencies, labeled by method and route.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"method", "route"},
	)
)

// Handler returns the standard Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveCacheLookup records a cache hit or miss.
func ObserveCacheLookup(key string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheLookupsTotal.WithLabelValues(key, result).Inc()
}

// ObserveSourceFetch records the outcome and latency of one upstream fetch.
// outcome is "ok" or a fetch error kind.
func ObserveSourceFetch(source, outcome string, duration time.Duration) {
	sourceFetchTotal.WithLabelValues(source, outcome).Inc()
	sourceFetchDurationSeconds.WithLabelValues(source).Observe(duration.Seconds())
}

// ObserveExtraction records which tier of a strategy produced the result.
func ObserveExtraction(strategy, tier string) {
	extractionTotal.WithLabelValues(strategy, tier).Inc()
}

// ObservePacingDelay records how long a fetch waited for its host's rate limiter.
func ObservePacingDelay(host string, delay time.Duration) {
	pacingDelaySeconds.WithLabelValues(host).Observe(delay.Seconds())
}

// ObserveHTTPRequest records metrics for an HTTP request.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
