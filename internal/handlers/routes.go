package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yatube/backend/internal/middleware"
	"github.com/yatube/backend/internal/storage"
	"github.com/yatube/backend/internal/web"
)

// Mount installs the template renderer, the session loader and every route
func (h *Handlers) Mount(r *gin.Engine) error {
	renderer, err := web.NewRenderer(h.images.URL)
	if err != nil {
		return fmt.Errorf("failed to load templates: %w", err)
	}
	r.HTMLRender = renderer

	r.Use(middleware.LoadSession(h.auth))
	r.NoRoute(h.NotFound)

	if local, ok := h.images.(*storage.LocalStore); ok {
		r.StaticFS("/media", http.Dir(local.Root()))
	}

	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// posts
	r.GET("/", middleware.PageCache(h.pageCache, h.pageCacheTTL), h.Index)
	r.GET("/group/:slug/", h.GroupPosts)
	r.GET("/profile/:username/", h.Profile)
	r.GET("/posts/:post_id/", h.PostDetail)

	login := middleware.RequireLogin()
	author := middleware.RequireAuthor(h.posts, h.NotFound, h.ServerError)

	r.GET("/create/", login, h.PostCreate)
	r.POST("/create/", login, h.uploadLimit, h.PostCreate)
	r.GET("/posts/:post_id/edit/", login, author, h.PostEdit)
	r.POST("/posts/:post_id/edit/", login, h.uploadLimit, author, h.PostEdit)
	r.POST("/posts/:post_id/comment/", login, h.AddComment)

	r.GET("/follow/", login, h.FollowIndex)
	r.GET("/profile/:username/follow/", login, h.ProfileFollow)
	r.GET("/profile/:username/unfollow/", login, h.ProfileUnfollow)

	// users
	users := r.Group("/auth")
	{
		users.GET("/signup/", h.Signup)
		users.POST("/signup/", h.authLimit, h.Signup)
		users.GET("/login/", h.Login)
		users.POST("/login/", h.authLimit, h.Login)
		users.GET("/logout/", h.Logout)
		users.POST("/logout/", h.Logout)

		users.GET("/password_change/", login, h.PasswordChange)
		users.POST("/password_change/", login, h.authLimit, h.PasswordChange)
		users.GET("/password_change/done/", login, h.PasswordChangeDone)

		users.GET("/password_reset/", h.PasswordReset)
		users.POST("/password_reset/", h.authLimit, h.PasswordReset)
		users.GET("/password_reset/done/", h.PasswordResetDone)
		users.GET("/reset/done/", h.PasswordResetComplete)
		users.GET("/reset/:token/", h.PasswordResetConfirm)
		users.POST("/reset/:token/", h.authLimit, h.PasswordResetConfirm)
	}

	// about
	r.GET("/about/author/", h.AboutAuthor)
	r.GET("/about/tech/", h.AboutTech)

	// admin
	r.POST("/admin/cache/clear/", middleware.RequireAdmin(h.Forbidden), h.ClearCache)

	return nil
}
