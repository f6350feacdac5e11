// Package metrics registers the Prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "fleet"

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	SessionsReconstructed = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "sessions_reconstructed_total", Help: "Usage sessions reconstructed, by status"},
		[]string{"status"},
	)
	MaintenanceEvaluations = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "maintenance_evaluations_total", Help: "Component evaluations, by classification"},
		[]string{"classification"},
	)
	AlertsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "alerts_published_total", Help: "Maintenance alerts sent to the broker, by result"},
		[]string{"result"},
	)
	BoardCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "board_cache_lookups_total", Help: "Maintenance board cache lookups, by result"},
		[]string{"result"},
	)
	RateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Name: "rate_limited_requests_total", Help: "Requests rejected by the per-client rate limit",
	})
	FleetScanDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "fleet_scan_duration_seconds",
		Help:      "Duration of the scheduled fleet maintenance scan",
	})
)
