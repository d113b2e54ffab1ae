package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal     *prometheus.CounterVec
	HTTPRequestDuration   *prometheus.HistogramVec
	HTTPActiveConnections prometheus.Gauge

	// Cache metrics, labelled by resource type (group, groups:list, ...)
	CacheHitsTotal          *prometheus.CounterVec
	CacheMissesTotal        *prometheus.CounterVec
	CacheErrorsTotal        *prometheus.CounterVec
	CacheInvalidationsTotal *prometheus.CounterVec
	CacheBreakerState       prometheus.Gauge

	// Real-time hub metrics
	SocketSessionsActive  prometheus.Gauge
	SocketRoomsActive     prometheus.Gauge
	SocketEventsPublished *prometheus.CounterVec
	SocketEventsReceived  *prometheus.CounterVec
	SocketDeliveriesDrop  prometheus.Counter
	SocketRateLimited     prometheus.Counter

	// Error metrics
	ErrorsTotal *prometheus.CounterVec
}

var (
	instance *Metrics
	once     sync.Once
)

// Initialize creates and registers all Prometheus metrics
func Initialize() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			HTTPRequestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "http_requests_total",
					Help: "Total number of HTTP requests",
				},
				[]string{"method", "path", "status"},
			),
			HTTPRequestDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "http_request_duration_seconds",
					Help:    "HTTP request latency in seconds",
					Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
				},
				[]string{"method", "path", "status"},
			),
			HTTPActiveConnections: promauto.NewGauge(
				prometheus.GaugeOpts{
					Name: "http_active_connections",
					Help: "Number of requests currently in flight",
				},
			),

			CacheHitsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "cache_hits_total",
					Help: "Total number of read-through cache hits",
				},
				[]string{"resource"},
			),
			CacheMissesTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "cache_misses_total",
					Help: "Total number of read-through cache misses",
				},
				[]string{"resource"},
			),
			CacheErrorsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "cache_errors_total",
					Help: "Cache backend failures swallowed as miss or no-op",
				},
				[]string{"operation"},
			),
			CacheInvalidationsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "cache_invalidations_total",
					Help: "Cache keys deleted by mutating handlers",
				},
				[]string{"mutation"},
			),
			CacheBreakerState: promauto.NewGauge(
				prometheus.GaugeOpts{
					Name: "cache_breaker_state",
					Help: "Cache circuit breaker state (0 closed, 1 half-open, 2 open)",
				},
			),

			SocketSessionsActive: promauto.NewGauge(
				prometheus.GaugeOpts{
					Name: "socket_sessions_active",
					Help: "Number of connected socket sessions",
				},
			),
			SocketRoomsActive: promauto.NewGauge(
				prometheus.GaugeOpts{
					Name: "socket_rooms_active",
					Help: "Number of rooms with at least one joined session",
				},
			),
			SocketEventsPublished: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "socket_events_published_total",
					Help: "Events published to rooms",
				},
				[]string{"event"},
			),
			SocketEventsReceived: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "socket_events_received_total",
					Help: "Events received from clients",
				},
				[]string{"event"},
			),
			SocketDeliveriesDrop: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "socket_deliveries_dropped_total",
					Help: "Deliveries skipped because a session's send buffer was full",
				},
			),
			SocketRateLimited: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "socket_rate_limited_total",
					Help: "Client events rejected by the per-session rate limiter",
				},
			),

			ErrorsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "errors_total",
					Help: "Total number of errors by type",
				},
				[]string{"error_type", "endpoint"},
			),
		}
	})
	return instance
}

// Get returns the global metrics instance
func Get() *Metrics {
	return Initialize()
}
