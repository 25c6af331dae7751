package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yatube/backend/internal/logger"
	"github.com/yatube/backend/internal/util"
	"go.uber.org/zap"
)

// GinLoggerMiddleware logs each HTTP request with structured fields.
// It replaces gin.Logger.
func GinLoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		method := c.Request.Method
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		statusCode := c.Writer.Status()

		fields := []zap.Field{
			zap.String("method", method),
			zap.String("path", path),
			zap.String("query", query),
			logger.WithIP(c.ClientIP()),
			logger.WithStatus(statusCode),
			zap.Int("response_size", c.Writer.Size()),
			zap.Duration("latency", time.Since(startTime)),
			zap.String("user_agent", c.Request.UserAgent()),
		}

		if requestID, ok := c.Get("request_id"); ok {
			if s, ok := requestID.(string); ok {
				fields = append(fields, logger.WithRequestID(s))
			}
		}
		if userID, ok := util.GetUserIDFromContext(c); ok {
			fields = append(fields, logger.WithUserID(userID))
		}
		if cacheStatus := c.Writer.Header().Get(CacheStatusHeader); cacheStatus != "" {
			fields = append(fields, zap.String("cache", cacheStatus))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch {
		case statusCode >= 500:
			logger.Log.Error("HTTP request", fields...)
		case statusCode >= 400:
			logger.Log.Warn("HTTP request", fields...)
		default:
			logger.Log.Info("HTTP request", fields...)
		}
	}
}
