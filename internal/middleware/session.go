package middleware

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yatube/backend/internal/auth"
	"github.com/yatube/backend/internal/logger"
	"github.com/yatube/backend/internal/util"
	"go.uber.org/zap"
)

// SessionCookieName is the cookie holding the signed session token
const SessionCookieName = "sessionid"

// LoginURL is where RequireLogin sends anonymous users
const LoginURL = "/auth/login/"

// LoadSession resolves the session cookie to a user. Missing, expired or
// tampered cookies leave the request anonymous and clear the cookie.
func LoadSession(sessions auth.AuthServiceInterface) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(SessionCookieName)
		if err != nil || token == "" {
			c.Next()
			return
		}

		user, err := sessions.ValidateSession(c.Request.Context(), token)
		if err != nil {
			logger.Log.Debug("Discarding invalid session", zap.Error(err))
			ClearSessionCookie(c)
			c.Next()
			return
		}

		util.SetUser(c, user)
		c.Next()
	}
}

// RequireLogin redirects anonymous requests to the login page, carrying the
// original URI in ?next= so the user lands back where they started
func RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := util.GetUserFromContext(c); ok {
			c.Next()
			return
		}
		c.Redirect(http.StatusFound, LoginRedirectURL(c.Request.URL.RequestURI()))
		c.Abort()
	}
}

// LoginRedirectURL builds the login URL for next, escaped with slashes kept
// readable (/auth/login/?next=/create/)
func LoginRedirectURL(next string) string {
	return LoginURL + "?next=" + strings.ReplaceAll(url.QueryEscape(next), "%2F", "/")
}

// SetSessionCookie writes the session token as an HttpOnly, SameSite=Lax cookie
func SetSessionCookie(c *gin.Context, session *auth.Session, secure bool) {
	maxAge := int(time.Until(session.ExpiresAt).Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookieName, session.Token, maxAge, "/", "", secure, true)
}

// ClearSessionCookie expires the session cookie
func ClearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookieName, "", -1, "/", "", false, true)
}
