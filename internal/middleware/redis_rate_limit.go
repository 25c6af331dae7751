package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yatube/backend/internal/cache"
	"github.com/yatube/backend/internal/logger"
	"go.uber.org/zap"
)

// WindowCounter counts requests in fixed windows shared across processes
type WindowCounter interface {
	IncrWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

var _ WindowCounter = (*cache.RedisClient)(nil)

// NewRedisRateLimiter creates a distributed fixed-window limiter. It works
// across multiple server instances sharing one Redis.
func NewRedisRateLimiter(counter WindowCounter, config RateLimitConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := fmt.Sprintf("rate_limit:%s:%s", c.FullPath(), config.key(c))

		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		count, ttl, err := counter.IncrWindow(ctx, key, config.Window)
		if err != nil {
			// Failing closed keeps a broken Redis from disabling auth throttling
			logger.Log.Error("Rate limit check failed",
				logger.WithIP(c.ClientIP()),
				zap.Error(err),
			)
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}

		if count > int64(config.Limit) {
			logger.Log.Warn("Rate limit exceeded",
				logger.WithIP(c.ClientIP()),
				zap.Int("limit", config.Limit),
				zap.Int64("count", count),
			)
			retryAfter := int(ttl.Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			abortRateLimited(c, config.Limit, retryAfter)
			return
		}

		c.Next()
	}
}

// RateLimit picks the Redis limiter when a shared counter is available and
// the in-process one otherwise
func RateLimit(counter WindowCounter, config RateLimitConfig) gin.HandlerFunc {
	if counter != nil {
		return NewRedisRateLimiter(counter, config)
	}
	return NewRateLimiter(config)
}
