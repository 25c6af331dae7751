package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yatube/backend/internal/logger"
	"github.com/yatube/backend/internal/metrics"
	"github.com/yatube/backend/internal/repository"
	"github.com/yatube/backend/internal/telemetry"
	"github.com/yatube/backend/internal/util"
	"github.com/yatube/backend/internal/web"
)

// FollowIndex lists posts by the authors the signed-in user follows
// GET /follow/
func (h *Handlers) FollowIndex(c *gin.Context) {
	me, _ := util.GetUserFromContext(c)

	page, err := h.loadPosts(c, repository.PostFilter{FollowerID: &me.ID})
	if err != nil {
		h.fail(c, err)
		return
	}
	h.render(c, http.StatusOK, web.PageFollowIndex, gin.H{"Page": page})
}

// ProfileFollow subscribes the signed-in user to an author. Following
// yourself or someone you already follow changes nothing.
// GET /profile/:username/follow/
func (h *Handlers) ProfileFollow(c *gin.Context) {
	me, _ := util.GetUserFromContext(c)
	ctx := c.Request.Context()
	username := c.Param("username")

	author, err := h.users.GetUserByUsername(ctx, username)
	if errors.Is(err, repository.ErrUserNotFound) {
		h.NotFound(c)
		return
	}
	if err != nil {
		h.fail(c, err)
		return
	}

	profileURL := "/profile/" + author.Username + "/"
	if author.ID == me.ID {
		redirect(c, profileURL)
		return
	}

	// fast path; the unique index still decides under concurrent requests
	already, err := h.users.IsFollowing(ctx, me.ID, author.ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	if already {
		redirect(c, profileURL)
		return
	}

	ctx, span := telemetry.StartFollowEvent(ctx, "follow.create", me.ID, author.Username)
	created, err := h.users.CreateFollow(ctx, me.ID, author.ID)
	telemetry.EndEvent(span, err)
	if err != nil {
		h.fail(c, err)
		return
	}

	if created {
		metrics.Get().FollowChangesTotal.WithLabelValues("follow").Inc()
		logger.Log.Info("User followed author",
			logger.WithUserID(me.ID),
			logger.WithUsername(author.Username),
		)
	}
	redirect(c, profileURL)
}

// ProfileUnfollow removes a subscription if there is one. Unknown authors
// are not an error; the visitor is sent to the profile URL regardless.
// GET /profile/:username/unfollow/
func (h *Handlers) ProfileUnfollow(c *gin.Context) {
	me, _ := util.GetUserFromContext(c)
	ctx := c.Request.Context()
	username := c.Param("username")
	profileURL := "/profile/" + username + "/"

	author, err := h.users.GetUserByUsername(ctx, username)
	if errors.Is(err, repository.ErrUserNotFound) {
		redirect(c, profileURL)
		return
	}
	if err != nil {
		h.fail(c, err)
		return
	}

	ctx, span := telemetry.StartFollowEvent(ctx, "follow.delete", me.ID, author.Username)
	deleted, err := h.users.DeleteFollow(ctx, me.ID, author.ID)
	telemetry.EndEvent(span, err)
	if err != nil {
		h.fail(c, err)
		return
	}

	if deleted {
		metrics.Get().FollowChangesTotal.WithLabelValues("unfollow").Inc()
		logger.Log.Info("User unfollowed author",
			logger.WithUserID(me.ID),
			logger.WithUsername(author.Username),
		)
	}
	redirect(c, profileURL)
}
