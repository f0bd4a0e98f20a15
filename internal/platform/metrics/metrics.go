// Package metrics provides Prometheus metrics for the report refresh
// pipeline and the HTTP API.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RefreshesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskboard_report_refreshes_total",
			Help: "Total number of report refresh runs by outcome",
		},
		[]string{"outcome"},
	)
	RefreshDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "taskboard_report_refresh_duration_seconds",
			Help:    "Report refresh pipeline duration in seconds",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
	)
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "taskboard_report_cache_hits_total",
			Help: "Total number of valid report cache reads",
		},
	)
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "taskboard_report_cache_misses_total",
			Help: "Total number of report cache reads that missed or expired",
		},
	)
	EntitiesSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskboard_report_entities_skipped_total",
			Help: "Entities skipped during aggregation because their fetch failed",
		},
		[]string{"entity"},
	)
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskboard_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "taskboard_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)
)

func RecordRefresh(outcome string, duration time.Duration) {
	RefreshesTotal.WithLabelValues(outcome).Inc()
	RefreshDuration.Observe(duration.Seconds())
}

func RecordCacheHit()  { CacheHits.Inc() }
func RecordCacheMiss() { CacheMisses.Inc() }

func RecordEntitySkipped(entity string) {
	EntitiesSkipped.WithLabelValues(entity).Inc()
}

func RecordHTTPRequest(method, endpoint, status string, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}
