package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yatube/backend/internal/auth"
	"github.com/yatube/backend/internal/models"
	"github.com/yatube/backend/internal/repository"
	"github.com/yatube/backend/internal/util"
)

// stubSessions resolves the token "good" to a fixed user
type stubSessions struct {
	auth.AuthServiceInterface
	user *models.User
}

func (s *stubSessions) ValidateSession(_ context.Context, token string) (*models.User, error) {
	if token == "good" {
		return s.user, nil
	}
	return nil, auth.ErrInvalidSession
}

type stubPosts map[uint]*models.Post

func (s stubPosts) GetPost(_ context.Context, postID uint) (*models.Post, error) {
	if postID == 99 {
		return nil, errors.New("database is locked")
	}
	post, ok := s[postID]
	if !ok {
		return nil, repository.ErrPostNotFound
	}
	return post, nil
}

func withSession(req *http.Request, token string) *http.Request {
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: token})
	return req
}

func TestLoadSession(t *testing.T) {
	gin.SetMode(gin.TestMode)
	sessions := &stubSessions{user: &models.User{ID: 3, Username: "leo"}}

	router := gin.New()
	router.Use(LoadSession(sessions))
	router.GET("/whoami", func(c *gin.Context) {
		if user, ok := util.GetUserFromContext(c); ok {
			c.String(http.StatusOK, user.Username)
			return
		}
		c.String(http.StatusOK, "anonymous")
	})

	t.Run("valid cookie", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, withSession(httptest.NewRequest(http.MethodGet, "/whoami", nil), "good"))
		assert.Equal(t, "leo", w.Body.String())
	})

	t.Run("tampered cookie is cleared", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, withSession(httptest.NewRequest(http.MethodGet, "/whoami", nil), "forged"))
		assert.Equal(t, "anonymous", w.Body.String())
		assert.Contains(t, w.Header().Get("Set-Cookie"), SessionCookieName+"=;")
	})

	t.Run("no cookie", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/whoami", nil))
		assert.Equal(t, "anonymous", w.Body.String())
	})
}

func TestRequireLoginRedirectsWithNext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(LoadSession(&stubSessions{user: &models.User{ID: 1, Username: "leo"}}))
	router.GET("/follow/", RequireLogin(), func(c *gin.Context) { c.String(http.StatusOK, "feed") })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/follow/?page=2", nil))
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/auth/login/?next=/follow/%3Fpage%3D2", w.Header().Get("Location"))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, withSession(httptest.NewRequest(http.MethodGet, "/follow/", nil), "good"))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "feed", w.Body.String())
}

func TestSetSessionCookie(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	SetSessionCookie(c, &auth.Session{Token: "abc", ExpiresAt: time.Now().Add(time.Hour)}, false)

	cookie := w.Header().Get("Set-Cookie")
	assert.Contains(t, cookie, "sessionid=abc")
	assert.Contains(t, cookie, "HttpOnly")
	assert.Contains(t, cookie, "SameSite=Lax")
}

func TestRequireAuthor(t *testing.T) {
	gin.SetMode(gin.TestMode)
	posts := stubPosts{1: {ID: 1, AuthorID: 10, Text: "mine"}}

	newRouter := func(user *models.User) *gin.Engine {
		router := gin.New()
		router.Use(func(c *gin.Context) {
			if user != nil {
				util.SetUser(c, user)
			}
		})
		notFound := func(c *gin.Context) { c.String(http.StatusNotFound, "missing") }
		failed := func(c *gin.Context) { c.String(http.StatusInternalServerError, "failed") }
		router.GET("/posts/:post_id/edit/", RequireAuthor(posts, notFound, failed), func(c *gin.Context) {
			post, ok := GetPostFromContext(c)
			require.True(t, ok)
			c.String(http.StatusOK, "editing "+post.Text)
		})
		return router
	}

	t.Run("author passes", func(t *testing.T) {
		w := get(newRouter(&models.User{ID: 10}), "/posts/1/edit/")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "editing mine", w.Body.String())
	})

	t.Run("other user redirected to detail", func(t *testing.T) {
		w := get(newRouter(&models.User{ID: 11}), "/posts/1/edit/")
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/posts/1/", w.Header().Get("Location"))
	})

	t.Run("unknown post", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, get(newRouter(&models.User{ID: 10}), "/posts/5/edit/").Code)
		assert.Equal(t, http.StatusNotFound, get(newRouter(&models.User{ID: 10}), "/posts/abc/edit/").Code)
	})

	t.Run("store failure", func(t *testing.T) {
		assert.Equal(t, http.StatusInternalServerError, get(newRouter(&models.User{ID: 10}), "/posts/99/edit/").Code)
	})
}

func TestRequireAdmin(t *testing.T) {
	gin.SetMode(gin.TestMode)

	newRouter := func(user *models.User) *gin.Engine {
		router := gin.New()
		router.Use(func(c *gin.Context) {
			if user != nil {
				util.SetUser(c, user)
			}
		})
		forbidden := func(c *gin.Context) { c.String(http.StatusForbidden, "forbidden") }
		router.GET("/admin/", RequireAdmin(forbidden), func(c *gin.Context) { c.String(http.StatusOK, "admin") })
		return router
	}

	assert.Equal(t, http.StatusOK, get(newRouter(&models.User{ID: 1, IsAdmin: true}), "/admin/").Code)
	assert.Equal(t, http.StatusForbidden, get(newRouter(&models.User{ID: 2}), "/admin/").Code)

	w := get(newRouter(nil), "/admin/")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/auth/login/?next=/admin/", w.Header().Get("Location"))
}

func TestRequestIDMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestIDMiddleware())
	router.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("request_id")) })

	w := get(router, "/")
	assert.Len(t, w.Header().Get(RequestIDHeader), 36)
	assert.Equal(t, w.Header().Get(RequestIDHeader), w.Body.String())

	w = get(router, "/", RequestIDHeader, "abc-123")
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}
