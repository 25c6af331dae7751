package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstructorsCarryStatus(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, NotFound("post").Status)
	assert.Equal(t, "post not found", NotFound("post").Message)
	assert.Equal(t, http.StatusForbidden, Forbidden("staff only").Status)
	assert.Equal(t, http.StatusTooManyRequests, RateLimited("").Status)
	assert.Equal(t, "rate limit exceeded", RateLimited("").Message)
	assert.Equal(t, http.StatusServiceUnavailable, ServiceUnavailable("database").Status)
}

func TestAsUnwrapsWrappedAPIError(t *testing.T) {
	wrapped := fmt.Errorf("loading profile: %w", NotFound("user"))
	apiErr := As(wrapped)
	assert.Equal(t, ErrNotFound, apiErr.Code)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
}

func TestAsWrapsPlainError(t *testing.T) {
	apiErr := As(stderrors.New("disk full"))
	assert.Equal(t, ErrInternalError, apiErr.Code)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.Equal(t, "disk full", apiErr.Details)
	assert.Contains(t, apiErr.Error(), "disk full")
}

func TestUnknownCodeIsInternal(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, ErrorCode("NOPE").StatusCode())
}
