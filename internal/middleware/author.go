package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yatube/backend/internal/models"
	"github.com/yatube/backend/internal/repository"
	"github.com/yatube/backend/internal/util"
)

// ContextPostKey holds the post loaded by RequireAuthor
const ContextPostKey = "post"

// PostGetter is the part of the post repository RequireAuthor needs
type PostGetter interface {
	GetPost(ctx context.Context, postID uint) (*models.Post, error)
}

// RequireAuthor loads the post named by :post_id and lets the request through
// only when the signed-in user wrote it. Other users are redirected to the
// post page without the handler running. Unknown posts go to notFound and
// lookup failures to failed.
func RequireAuthor(posts PostGetter, notFound, failed gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		postID, ok := util.ParseID(c.Param("post_id"))
		if !ok {
			notFound(c)
			c.Abort()
			return
		}

		post, err := posts.GetPost(c.Request.Context(), postID)
		if errors.Is(err, repository.ErrPostNotFound) {
			notFound(c)
			c.Abort()
			return
		}
		if err != nil {
			_ = c.Error(err)
			failed(c)
			c.Abort()
			return
		}

		user, ok := util.GetUserFromContext(c)
		if !ok || user.ID != post.AuthorID {
			c.Redirect(http.StatusFound, fmt.Sprintf("/posts/%d/", post.ID))
			c.Abort()
			return
		}

		c.Set(ContextPostKey, post)
		c.Next()
	}
}

// GetPostFromContext returns the post stored by RequireAuthor
func GetPostFromContext(c *gin.Context) (*models.Post, bool) {
	v, ok := c.Get(ContextPostKey)
	if !ok {
		return nil, false
	}
	post, ok := v.(*models.Post)
	return post, ok && post != nil
}
