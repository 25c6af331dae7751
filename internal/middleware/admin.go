package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/yatube/backend/internal/logger"
	"github.com/yatube/backend/internal/util"
	"go.uber.org/zap"
)

// RequireAdmin ensures the request is authenticated and the user is an admin.
// It must run after LoadSession. Anonymous users are sent to the login page;
// signed-in non-admins get the forbidden handler.
func RequireAdmin(forbidden gin.HandlerFunc) gin.HandlerFunc {
	login := RequireLogin()

	return func(c *gin.Context) {
		user, ok := util.GetUserFromContext(c)
		if !ok {
			login(c)
			return
		}

		if !user.IsAdmin {
			logger.Log.Warn("Admin access denied",
				logger.WithUserID(user.ID),
				zap.String("path", c.Request.URL.Path),
			)
			forbidden(c)
			c.Abort()
			return
		}

		c.Next()
	}
}
