package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yatube/backend/internal/logger"
	"github.com/yatube/backend/internal/metrics"
	"github.com/yatube/backend/internal/middleware"
	"github.com/yatube/backend/internal/models"
	"github.com/yatube/backend/internal/paginate"
	"github.com/yatube/backend/internal/repository"
	"github.com/yatube/backend/internal/storage"
	"github.com/yatube/backend/internal/telemetry"
	"github.com/yatube/backend/internal/util"
	"github.com/yatube/backend/internal/web"
	"go.uber.org/zap"
)

// loadPosts fetches the requested page of posts matching filter
func (h *Handlers) loadPosts(c *gin.Context, filter repository.PostFilter) (*paginate.Page[*models.Post], error) {
	ctx := c.Request.Context()
	return paginate.Load(c.Query("page"), h.perPage,
		func() (int64, error) { return h.posts.CountPosts(ctx, filter) },
		func(limit, offset int) ([]*models.Post, error) { return h.posts.ListPosts(ctx, filter, limit, offset) },
	)
}

// Index lists every post, newest first
// GET /
func (h *Handlers) Index(c *gin.Context) {
	page, err := h.loadPosts(c, repository.PostFilter{})
	if err != nil {
		h.fail(c, err)
		return
	}
	h.render(c, http.StatusOK, web.PageIndex, gin.H{"Page": page})
}

// GroupPosts lists the posts of one group
// GET /group/:slug/
func (h *Handlers) GroupPosts(c *gin.Context) {
	group, err := h.groups.GetGroupBySlug(c.Request.Context(), c.Param("slug"))
	if errors.Is(err, repository.ErrGroupNotFound) {
		h.NotFound(c)
		return
	}
	if err != nil {
		h.fail(c, err)
		return
	}

	page, err := h.loadPosts(c, repository.PostFilter{GroupID: &group.ID})
	if err != nil {
		h.fail(c, err)
		return
	}
	h.render(c, http.StatusOK, web.PageGroupList, gin.H{"Group": group, "Page": page})
}

// Profile lists one author's posts, with a follow toggle for signed-in visitors
// GET /profile/:username/
func (h *Handlers) Profile(c *gin.Context) {
	ctx := c.Request.Context()

	profile, err := h.users.GetUserByUsername(ctx, c.Param("username"))
	if errors.Is(err, repository.ErrUserNotFound) {
		h.NotFound(c)
		return
	}
	if err != nil {
		h.fail(c, err)
		return
	}

	page, err := h.loadPosts(c, repository.PostFilter{AuthorID: &profile.ID})
	if err != nil {
		h.fail(c, err)
		return
	}

	following := false
	if me, ok := util.GetUserFromContext(c); ok {
		following, err = h.users.IsFollowing(ctx, me.ID, profile.ID)
		if err != nil {
			h.fail(c, err)
			return
		}
	}

	followers, err := h.users.GetFollowerCount(ctx, profile.ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	followingCount, err := h.users.GetFollowingCount(ctx, profile.ID)
	if err != nil {
		h.fail(c, err)
		return
	}

	h.render(c, http.StatusOK, web.PageProfile, gin.H{
		"Profile":        profile,
		"Page":           page,
		"Following":      following,
		"FollowerCount":  followers,
		"FollowingCount": followingCount,
	})
}

// PostDetail shows one post with its comments and an empty comment form
// GET /posts/:post_id/
func (h *Handlers) PostDetail(c *gin.Context) {
	ctx := c.Request.Context()

	post, ok := h.lookupPost(c)
	if !ok {
		return
	}

	comments, err := h.comments.ListComments(ctx, post.ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	authorPosts, err := h.posts.CountPosts(ctx, repository.PostFilter{AuthorID: &post.AuthorID})
	if err != nil {
		h.fail(c, err)
		return
	}

	h.render(c, http.StatusOK, web.PagePostDetail, gin.H{
		"Post":            post,
		"Comments":        comments,
		"CommentForm":     CommentForm{},
		"AuthorPostCount": authorPosts,
	})
}

// lookupPost loads :post_id, rendering 404 or 500 itself when it cannot
func (h *Handlers) lookupPost(c *gin.Context) (*models.Post, bool) {
	postID, ok := util.ParseID(c.Param("post_id"))
	if !ok {
		h.NotFound(c)
		return nil, false
	}
	post, err := h.posts.GetPost(c.Request.Context(), postID)
	if errors.Is(err, repository.ErrPostNotFound) {
		h.NotFound(c)
		return nil, false
	}
	if err != nil {
		h.fail(c, err)
		return nil, false
	}
	return post, true
}

// PostCreate shows the new post form and publishes valid submissions
// GET,POST /create/
func (h *Handlers) PostCreate(c *gin.Context) {
	me, _ := util.GetUserFromContext(c)
	ctx := c.Request.Context()

	if c.Request.Method != http.MethodPost {
		h.renderPostForm(c, http.StatusOK, &PostForm{Errors: FormErrors{}}, false)
		return
	}

	form := &PostForm{}
	post := &models.Post{AuthorID: me.ID}
	if !h.applyPostForm(c, form, post) {
		h.renderPostForm(c, http.StatusOK, form, false)
		return
	}

	ctx, span := telemetry.StartPostEvent(ctx, "post.create", me.ID, post.GroupID)
	err := h.posts.CreatePost(ctx, post)
	telemetry.EndEvent(span, err)
	if err != nil {
		h.discardImage(ctx, post.Image)
		h.fail(c, err)
		return
	}

	metrics.Get().PostsCreatedTotal.Inc()
	logger.Log.Info("Post created",
		logger.WithPostID(post.ID),
		logger.WithUserID(me.ID),
	)
	redirect(c, "/profile/"+me.Username+"/")
}

// PostEdit lets the author change a post. RequireAuthor has already loaded
// the post and turned away everyone else.
// GET,POST /posts/:post_id/edit/
func (h *Handlers) PostEdit(c *gin.Context) {
	post, ok := middleware.GetPostFromContext(c)
	if !ok {
		h.NotFound(c)
		return
	}

	if c.Request.Method != http.MethodPost {
		form := &PostForm{
			Text:         post.Text,
			CurrentImage: post.Image,
			Errors:       FormErrors{},
		}
		if post.GroupID != nil {
			form.GroupID = *post.GroupID
		}
		h.renderPostForm(c, http.StatusOK, form, true)
		return
	}

	previousImage := post.Image
	form := &PostForm{CurrentImage: post.Image}
	if !h.applyPostForm(c, form, post) {
		h.renderPostForm(c, http.StatusOK, form, true)
		return
	}

	ctx, span := telemetry.StartPostEvent(c.Request.Context(), "post.edit", post.AuthorID, post.GroupID)
	err := h.posts.UpdatePost(ctx, post)
	telemetry.EndEvent(span, err)
	if err != nil {
		if post.Image != previousImage {
			h.discardImage(ctx, post.Image)
		}
		h.fail(c, err)
		return
	}

	metrics.Get().PostsEditedTotal.Inc()
	logger.Log.Info("Post edited", logger.WithPostID(post.ID))
	redirect(c, fmt.Sprintf("/posts/%d/", post.ID))
}

// applyPostForm binds and validates the post form and copies the result
// onto post. It stores an uploaded image only once every field is valid.
func (h *Handlers) applyPostForm(c *gin.Context, form *PostForm, post *models.Post) bool {
	ctx := c.Request.Context()
	form.Errors = bindForm(c, form)

	var groupID *uint
	if raw := strings.TrimSpace(form.Group); raw != "" {
		id, ok := util.ParseID(raw)
		if ok {
			if _, err := h.groups.GetGroup(ctx, id); err != nil {
				if !errors.Is(err, repository.ErrGroupNotFound) {
					logger.Log.Error("Failed to look up group", zap.Uint("group_id", id), zap.Error(err))
				}
				ok = false
			}
		}
		if ok {
			groupID = &id
			form.GroupID = id
		} else {
			form.Errors.Add("group", msgInvalidChoice)
		}
	}

	image, hasImage, err := readImage(c)
	if err != nil {
		form.Errors.Add("image", imageErrorMessage(err))
	}

	if form.Errors.Any() {
		return false
	}

	if hasImage {
		name, err := h.images.Save(ctx, image.filename, image.data)
		if err != nil {
			logger.Log.Error("Failed to store post image", zap.Error(err))
			form.Errors.Add("image", "The image could not be saved. Please try again.")
			return false
		}
		post.Image = name
	}

	post.Text = form.Text
	post.GroupID = groupID
	post.Group = nil
	return true
}

// discardImage removes an image stored for a post that was never saved
func (h *Handlers) discardImage(ctx context.Context, name string) {
	if name == "" {
		return
	}
	if err := h.images.Delete(ctx, name); err != nil {
		logger.Log.Warn("Failed to remove orphaned post image", zap.String("image", name), zap.Error(err))
	}
}

func (h *Handlers) renderPostForm(c *gin.Context, status int, form *PostForm, isEdit bool) {
	groups, err := h.groups.ListGroups(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	h.render(c, status, web.PageCreatePost, gin.H{
		"Form":   form,
		"Groups": groups,
		"IsEdit": isEdit,
	})
}

type uploadedImage struct {
	filename string
	data     []byte
}

// readImage reads and validates the optional "image" upload
func readImage(c *gin.Context) (*uploadedImage, bool, error) {
	header, err := c.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, storage.ErrNotAnImage
	}
	if header.Size == 0 {
		return nil, false, nil
	}

	data, err := readUpload(header)
	if err != nil {
		return nil, false, err
	}
	mimeType, err := storage.ValidateImage(data)
	if err != nil {
		return nil, false, err
	}
	return &uploadedImage{filename: storage.ImageFilename(header.Filename, mimeType), data: data}, true, nil
}

func readUpload(header *multipart.FileHeader) ([]byte, error) {
	if header.Size > storage.MaxImageSize {
		return nil, storage.ErrImageTooLarge
	}
	src, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, storage.MaxImageSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > storage.MaxImageSize {
		return nil, storage.ErrImageTooLarge
	}
	return data, nil
}

func imageErrorMessage(err error) string {
	if errors.Is(err, storage.ErrImageTooLarge) {
		return msgImageTooLarge
	}
	return msgInvalidImage
}

// AddComment attaches a comment to a post. An invalid form is dropped
// without feedback; the visitor lands back on the post either way.
// POST /posts/:post_id/comment/
func (h *Handlers) AddComment(c *gin.Context) {
	me, _ := util.GetUserFromContext(c)

	post, ok := h.lookupPost(c)
	if !ok {
		return
	}
	detailURL := fmt.Sprintf("/posts/%d/", post.ID)

	var form CommentForm
	if errs := bindForm(c, &form); errs.Any() {
		redirect(c, detailURL)
		return
	}

	comment := &models.Comment{PostID: post.ID, AuthorID: me.ID, Text: form.Text}
	if err := h.comments.CreateComment(c.Request.Context(), comment); err != nil {
		if errors.Is(err, repository.ErrPostNotFound) {
			h.NotFound(c)
			return
		}
		h.fail(c, err)
		return
	}

	metrics.Get().CommentsCreatedTotal.Inc()
	logger.Log.Debug("Comment added", logger.WithPostID(post.ID), logger.WithUserID(me.ID))
	redirect(c, detailURL)
}

// compile-time check that the post repository satisfies the guard
var _ middleware.PostGetter = repository.PostRepository(nil)
