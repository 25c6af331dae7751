package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/yatube/backend/internal/util"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracingMiddleware traces HTTP requests using OpenTelemetry.
// It wraps otelgin and adds the user and paging attributes.
func TracingMiddleware(serviceName string) gin.HandlerFunc {
	base := otelgin.Middleware(serviceName)

	return func(c *gin.Context) {
		base(c)

		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			return
		}

		if userID, ok := util.GetUserIDFromContext(c); ok {
			span.SetAttributes(attribute.Int64("user.id", int64(userID)))
		}
		if page := c.Query("page"); page != "" {
			span.SetAttributes(attribute.String("query.page", page))
		}
		if cacheStatus := c.Writer.Header().Get(CacheStatusHeader); cacheStatus != "" {
			span.SetAttributes(attribute.String("cache.status", cacheStatus))
		}

		for _, ginErr := range c.Errors {
			if ginErr.Err != nil {
				span.RecordError(ginErr.Err)
				span.SetStatus(codes.Error, ginErr.Error())
			}
		}
	}
}
