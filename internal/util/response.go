package util

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yatube/backend/internal/errors"
	"github.com/yatube/backend/internal/logger"
	"go.uber.org/zap"
)

// ErrorResponse represents a standard JSON error response
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
	Details string `json:"details,omitempty"`
}

// LogAPIError logs at error level for 5xx and warn level for 4xx
func LogAPIError(c *gin.Context, apiErr *errors.APIError) {
	fields := []zap.Field{
		zap.String("code", string(apiErr.Code)),
		zap.String("message", apiErr.Message),
		zap.String("path", c.Request.URL.Path),
		zap.Int("status", apiErr.Status),
	}
	if apiErr.Details != "" {
		fields = append(fields, zap.String("details", apiErr.Details))
	}
	if id, ok := c.Get("request_id"); ok {
		if s, ok := id.(string); ok {
			fields = append(fields, logger.WithRequestID(s))
		}
	}

	switch {
	case apiErr.Status >= http.StatusInternalServerError:
		logger.Log.Error("Request failed", fields...)
	case apiErr.Status >= http.StatusBadRequest:
		logger.Log.Warn("Request rejected", fields...)
	}
}

// RespondWithAPIError sends a structured JSON error response
func RespondWithAPIError(c *gin.Context, apiErr *errors.APIError) {
	LogAPIError(c, apiErr)
	response := ErrorResponse{
		Code:    string(apiErr.Code),
		Message: apiErr.Message,
	}
	if apiErr.Status < http.StatusInternalServerError {
		response.Details = apiErr.Details
	}
	c.AbortWithStatusJSON(apiErr.Status, response)
}
