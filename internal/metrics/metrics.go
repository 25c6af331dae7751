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
	HTTPResponseSize      *prometheus.HistogramVec
	HTTPActiveConnections *prometheus.GaugeVec

	// Page cache metrics
	CacheHitsTotal         *prometheus.CounterVec
	CacheMissesTotal       *prometheus.CounterVec
	CacheOperationDuration *prometheus.HistogramVec
	CacheClearsTotal       *prometheus.CounterVec

	// Rate limiting metrics
	RateLimitExceededTotal *prometheus.CounterVec

	// Database metrics
	DatabaseQueryDuration *prometheus.HistogramVec
	DatabaseQueriesTotal  *prometheus.CounterVec

	// Domain metrics
	PostsCreatedTotal    prometheus.Counter
	PostsEditedTotal     prometheus.Counter
	CommentsCreatedTotal prometheus.Counter
	FollowChangesTotal   *prometheus.CounterVec
	SignupsTotal         prometheus.Counter
	LoginsTotal          *prometheus.CounterVec

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
			HTTPResponseSize: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "http_response_size_bytes",
					Help:    "HTTP response size in bytes",
					Buckets: prometheus.ExponentialBuckets(100, 10, 7),
				},
				[]string{"method", "path", "status"},
			),
			HTTPActiveConnections: promauto.NewGaugeVec(
				prometheus.GaugeOpts{
					Name: "http_active_connections",
					Help: "Number of currently active HTTP connections",
				},
				[]string{"method", "path"},
			),

			CacheHitsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "cache_hits_total",
					Help: "Total number of cache hits",
				},
				[]string{"cache_name"},
			),
			CacheMissesTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "cache_misses_total",
					Help: "Total number of cache misses",
				},
				[]string{"cache_name"},
			),
			CacheOperationDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "cache_operation_duration_seconds",
					Help:    "Cache operation latency in seconds",
					Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1},
				},
				[]string{"operation", "cache_name"},
			),
			CacheClearsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "cache_clears_total",
					Help: "Total number of full cache clears",
				},
				[]string{"cache_name"},
			),

			RateLimitExceededTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "rate_limit_exceeded_total",
					Help: "Total number of requests rejected by the rate limiter",
				},
				[]string{"endpoint", "method"},
			),

			DatabaseQueryDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "database_query_duration_seconds",
					Help:    "Database query latency in seconds",
					Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
				},
				[]string{"operation", "table"},
			),
			DatabaseQueriesTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "database_queries_total",
					Help: "Total number of database queries",
				},
				[]string{"operation", "table", "status"},
			),

			PostsCreatedTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "yatube_posts_created_total",
					Help: "Total number of posts created",
				},
			),
			PostsEditedTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "yatube_posts_edited_total",
					Help: "Total number of post edits",
				},
			),
			CommentsCreatedTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "yatube_comments_created_total",
					Help: "Total number of comments created",
				},
			),
			FollowChangesTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "yatube_follow_changes_total",
					Help: "Follow edges created or removed",
				},
				[]string{"action"},
			),
			SignupsTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "yatube_signups_total",
					Help: "Total number of accounts created",
				},
			),
			LoginsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "yatube_logins_total",
					Help: "Login attempts by outcome",
				},
				[]string{"outcome"},
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
	if instance == nil {
		return Initialize()
	}
	return instance
}
