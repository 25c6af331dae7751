package util

import (
	"github.com/gin-gonic/gin"
	"github.com/yatube/backend/internal/models"
)

// Context keys set by the session middleware
const (
	ContextUserKey   = "user"
	ContextUserIDKey = "user_id"
)

// SetUser attaches the authenticated user to the request
func SetUser(c *gin.Context, user *models.User) {
	c.Set(ContextUserKey, user)
	c.Set(ContextUserIDKey, user.ID)
}

// GetUserFromContext returns the authenticated user, or nil and false for
// anonymous requests
func GetUserFromContext(c *gin.Context) (*models.User, bool) {
	user, exists := c.Get(ContextUserKey)
	if !exists {
		return nil, false
	}
	userPtr, ok := user.(*models.User)
	if !ok || userPtr == nil {
		return nil, false
	}
	return userPtr, true
}

// GetUserIDFromContext returns the authenticated user's ID, or 0 and false
func GetUserIDFromContext(c *gin.Context) (uint, bool) {
	userID, exists := c.Get(ContextUserIDKey)
	if !exists {
		return 0, false
	}
	id, ok := userID.(uint)
	return id, ok && id != 0
}

// ClearUser makes the rest of the request anonymous, e.g. right after logout
func ClearUser(c *gin.Context) {
	c.Set(ContextUserKey, (*models.User)(nil))
	c.Set(ContextUserIDKey, uint(0))
}
