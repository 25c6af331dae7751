package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yatube/backend/internal/metrics"
)

// MetricsMiddleware collects HTTP metrics for Prometheus.
// Paths are labelled by route template so /posts/1/ and /posts/2/ share a series.
func MetricsMiddleware() gin.HandlerFunc {
	m := metrics.Get()

	return func(c *gin.Context) {
		method := c.Request.Method
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		m.HTTPActiveConnections.WithLabelValues(method, path).Inc()
		defer m.HTTPActiveConnections.WithLabelValues(method, path).Dec()

		startTime := time.Now()

		c.Next()

		duration := time.Since(startTime).Seconds()
		// numeric status so queries like status=~"5.." work
		statusStr := strconv.Itoa(c.Writer.Status())

		m.HTTPRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
		m.HTTPRequestDuration.WithLabelValues(method, path, statusStr).Observe(duration)

		if size := c.Writer.Size(); size > 0 {
			m.HTTPResponseSize.WithLabelValues(method, path, statusStr).Observe(float64(size))
		}
	}
}

func RecordCacheHit(cacheName string) {
	metrics.Get().CacheHitsTotal.WithLabelValues(cacheName).Inc()
}

func RecordCacheMiss(cacheName string) {
	metrics.Get().CacheMissesTotal.WithLabelValues(cacheName).Inc()
}

func RecordCacheOperation(operation, cacheName string, duration time.Duration) {
	metrics.Get().CacheOperationDuration.WithLabelValues(operation, cacheName).Observe(duration.Seconds())
}

func RecordRateLimitExceeded(endpoint, method string) {
	metrics.Get().RateLimitExceededTotal.WithLabelValues(endpoint, method).Inc()
}
