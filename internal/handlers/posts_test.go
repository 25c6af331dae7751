package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/yatube/backend/internal/models"
	"github.com/yatube/backend/internal/repository"
	"github.com/yatube/backend/internal/testutil"
)

func (s *HandlersTestSuite) TestCreatePostRedirectsToProfile() {
	before := s.countPosts()

	w := s.postForm("/create/", url.Values{
		"text":  {"Test text"},
		"group": {strconv.Itoa(int(s.group.ID))},
	}, s.author)

	s.Equal(http.StatusFound, w.Code)
	s.Equal("/profile/auth/", w.Header().Get("Location"))
	s.Equal(before+1, s.countPosts())

	var latest models.Post
	s.Require().NoError(s.db.Order("id DESC").First(&latest).Error)
	s.Equal("Test text", latest.Text)
	s.Equal(s.author.ID, latest.AuthorID)
	s.Require().NotNil(latest.GroupID)
	s.Equal(s.group.ID, *latest.GroupID)
}

func (s *HandlersTestSuite) TestCreatePostWithoutGroup() {
	w := s.postForm("/create/", url.Values{"text": {"Hello"}}, s.author)
	s.Require().Equal(http.StatusFound, w.Code)

	var latest models.Post
	s.Require().NoError(s.db.Order("id DESC").First(&latest).Error)
	s.Equal("Hello", latest.Text)
	s.Nil(latest.GroupID)

	detail := s.get(fmt.Sprintf("/posts/%d/", latest.ID), nil)
	s.Equal(http.StatusOK, detail.Code)
	s.Contains(detail.Body.String(), "Hello")
	s.NotContains(detail.Body.String(), "/group/")
}

func (s *HandlersTestSuite) TestCreatePostInvalidFormRerenders() {
	before := s.countPosts()

	w := s.postForm("/create/", url.Values{"text": {"   "}}, s.author)
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), msgRequired)

	w = s.postForm("/create/", url.Values{"text": {"ok"}, "group": {"999"}}, s.author)
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), msgInvalidChoice)

	s.Equal(before, s.countPosts())
}

func (s *HandlersTestSuite) TestCreatePostWithImage() {
	w := s.postMultipart("/create/", map[string]string{"text": "With picture"}, "small.gif", testutil.SmallGIF, s.author)
	s.Require().Equal(http.StatusFound, w.Code)

	var latest models.Post
	s.Require().NoError(s.db.Order("id DESC").First(&latest).Error)
	s.Equal("posts/small.gif", latest.Image)
	_, err := os.Stat(filepath.Join(s.mediaRoot, "posts", "small.gif"))
	s.NoError(err)

	detail := s.get(fmt.Sprintf("/posts/%d/", latest.ID), nil)
	s.Contains(detail.Body.String(), `src="/media/posts/small.gif"`)
}

func (s *HandlersTestSuite) TestCreatePostStoresImageUnderDetectedExtension() {
	payload := append(append([]byte{}, testutil.SmallGIF...), []byte("<script>alert(1)</script>")...)
	w := s.postMultipart("/create/", map[string]string{"text": "Disguised"}, "evil.html", payload, s.author)
	s.Require().Equal(http.StatusFound, w.Code)

	var latest models.Post
	s.Require().NoError(s.db.Order("id DESC").First(&latest).Error)
	s.Equal("posts/evil.gif", latest.Image)
	_, err := os.Stat(filepath.Join(s.mediaRoot, "posts", "evil.html"))
	s.True(os.IsNotExist(err))

	served := s.get("/media/posts/evil.gif", nil)
	s.Equal(http.StatusOK, served.Code)
	s.Equal("image/gif", served.Header().Get("Content-Type"))
}

// brokenPosts fails every write, as a database outage would
type brokenPosts struct {
	repository.PostRepository
}

func (brokenPosts) CreatePost(ctx context.Context, post *models.Post) error {
	return errors.New("connection reset")
}

func (brokenPosts) UpdatePost(ctx context.Context, post *models.Post) error {
	return errors.New("connection reset")
}

func (s *HandlersTestSuite) TestFailedSaveRemovesUploadedImage() {
	post := s.createPost(s.author, nil, "Before")
	s.handlers.posts = brokenPosts{s.posts}

	w := s.postMultipart("/create/", map[string]string{"text": "Lost"}, "small.gif", testutil.SmallGIF, s.author)
	s.Equal(http.StatusInternalServerError, w.Code)

	w = s.postMultipart(fmt.Sprintf("/posts/%d/edit/", post.ID), map[string]string{"text": "After"}, "other.gif", testutil.SmallGIF, s.author)
	s.Equal(http.StatusInternalServerError, w.Code)

	entries, err := os.ReadDir(filepath.Join(s.mediaRoot, "posts"))
	if !os.IsNotExist(err) {
		s.Require().NoError(err)
	}
	s.Empty(entries)
}

func (s *HandlersTestSuite) TestCreatePostRejectsNonImage() {
	before := s.countPosts()

	w := s.postMultipart("/create/", map[string]string{"text": "Bad file"}, "notes.png", []byte("plain text, not a png"), s.author)
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), "Upload a valid image.")
	s.Equal(before, s.countPosts())
}

func (s *HandlersTestSuite) TestEditByAuthorUpdatesInPlace() {
	post := s.createPost(s.author, s.group, "Original")
	before := s.countPosts()

	form := s.get(fmt.Sprintf("/posts/%d/edit/", post.ID), s.author)
	s.Equal(http.StatusOK, form.Code)
	s.Contains(form.Body.String(), "Original")
	s.Contains(form.Body.String(), "Edit post")

	w := s.postForm(fmt.Sprintf("/posts/%d/edit/", post.ID), url.Values{"text": {"Edited"}}, s.author)
	s.Equal(http.StatusFound, w.Code)
	s.Equal(fmt.Sprintf("/posts/%d/", post.ID), w.Header().Get("Location"))

	got, err := s.posts.GetPost(s.ctx, post.ID)
	s.Require().NoError(err)
	s.Equal("Edited", got.Text)
	s.Nil(got.GroupID, "an empty group choice clears the group")
	s.Equal(post.CreatedAt.Unix(), got.CreatedAt.Unix())
	s.Equal(before, s.countPosts())
}

func (s *HandlersTestSuite) TestEditByNonAuthorRedirectsWithoutChange() {
	post := s.createPost(s.author, nil, "Original")

	w := s.get(fmt.Sprintf("/posts/%d/edit/", post.ID), s.reader)
	s.Equal(http.StatusFound, w.Code)
	s.Equal(fmt.Sprintf("/posts/%d/", post.ID), w.Header().Get("Location"))

	w = s.postForm(fmt.Sprintf("/posts/%d/edit/", post.ID), url.Values{"text": {"Hijacked"}}, s.reader)
	s.Equal(http.StatusFound, w.Code)

	got, err := s.posts.GetPost(s.ctx, post.ID)
	s.Require().NoError(err)
	s.Equal("Original", got.Text)

	s.Equal(http.StatusNotFound, s.get("/posts/999/edit/", s.author).Code)
}

func (s *HandlersTestSuite) TestEditInvalidFormShowsErrors() {
	post := s.createPost(s.author, nil, "Original")

	w := s.postForm(fmt.Sprintf("/posts/%d/edit/", post.ID), url.Values{"text": {""}}, s.author)
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), msgRequired)
	s.Contains(w.Body.String(), "Edit post")
}

func (s *HandlersTestSuite) TestAddComment() {
	post := s.createPost(s.author, nil, "Commented")
	target := fmt.Sprintf("/posts/%d/comment/", post.ID)
	detail := fmt.Sprintf("/posts/%d/", post.ID)

	w := s.postForm(target, url.Values{"text": {"Nice post"}}, s.reader)
	s.Equal(http.StatusFound, w.Code)
	s.Equal(detail, w.Header().Get("Location"))

	var comments []models.Comment
	s.Require().NoError(s.db.Where("post_id = ?", post.ID).Find(&comments).Error)
	s.Require().Len(comments, 1)
	s.Equal("Nice post", comments[0].Text)
	s.Equal(s.reader.ID, comments[0].AuthorID)

	page := s.get(detail, nil)
	s.Contains(page.Body.String(), "Nice post")
	s.Contains(page.Body.String(), "Comments (1)")
}

func (s *HandlersTestSuite) TestAddCommentEdgeCases() {
	post := s.createPost(s.author, nil, "Commented")
	target := fmt.Sprintf("/posts/%d/comment/", post.ID)

	// anonymous: login redirect, nothing stored
	w := s.postForm(target, url.Values{"text": {"Sneaky"}}, nil)
	s.Equal(http.StatusFound, w.Code)
	s.Contains(w.Header().Get("Location"), "/auth/login/?next=")

	// blank: silently redirected back, nothing stored
	w = s.postForm(target, url.Values{"text": {"  "}}, s.reader)
	s.Equal(http.StatusFound, w.Code)
	s.Equal(fmt.Sprintf("/posts/%d/", post.ID), w.Header().Get("Location"))

	var n int64
	s.Require().NoError(s.db.Model(&models.Comment{}).Count(&n).Error)
	s.Zero(n)

	s.Equal(http.StatusNotFound, s.postForm("/posts/999/comment/", url.Values{"text": {"x"}}, s.reader).Code)
}

func (s *HandlersTestSuite) TestPaginationSplitsListings() {
	for i := 0; i < 13; i++ {
		s.createPost(s.author, s.group, fmt.Sprintf("Post %d", i))
	}

	for _, base := range []string{"/", "/group/test-slug/", "/profile/auth/"} {
		s.Equal(10, articles(s.get(base, nil)), base)
		s.Equal(3, articles(s.get(base+"?page=2", nil)), base)
		s.Equal(10, articles(s.get(base+"?page=abc", nil)), base+" non-numeric page")
		s.Equal(3, articles(s.get(base+"?page=99", nil)), base+" page past the end")
	}
}

func (s *HandlersTestSuite) TestIndexNewestFirst() {
	s.createPost(s.author, nil, "older post")
	s.createPost(s.author, nil, "newer post")

	body := s.get("/", nil).Body.String()
	s.Less(strings.Index(body, "newer post"), strings.Index(body, "older post"))
}

func (s *HandlersTestSuite) TestGroupListingExcludesOtherGroups() {
	other := &models.Group{Title: "Other", Slug: "other"}
	s.Require().NoError(s.groups.CreateGroup(s.ctx, other))

	s.createPost(s.author, s.group, "in test group")
	s.createPost(s.author, other, "in other group")

	body := s.get("/group/test-slug/", nil).Body.String()
	s.Contains(body, "in test group")
	s.NotContains(body, "in other group")
	s.Contains(body, "Test description")
}

func (s *HandlersTestSuite) TestDeletingGroupKeepsPosts() {
	post := s.createPost(s.author, s.group, "survives")

	s.Require().NoError(s.groups.DeleteGroup(s.ctx, s.group.Slug))

	got, err := s.posts.GetPost(s.ctx, post.ID)
	s.Require().NoError(err)
	s.Nil(got.GroupID)
	s.Equal(http.StatusNotFound, s.get("/group/test-slug/", nil).Code)
	s.Equal(http.StatusOK, s.get(fmt.Sprintf("/posts/%d/", post.ID), nil).Code)
}

func (s *HandlersTestSuite) TestIndexCacheServesSnapshotUntilCleared() {
	s.createPost(s.author, nil, "first")

	first := s.get("/", nil)
	s.Require().Equal(http.StatusOK, first.Code)

	s.createPost(s.author, nil, "second")

	cached := s.get("/", nil)
	s.Equal("HIT", cached.Header().Get("X-Cache"))
	s.Equal(first.Body.String(), cached.Body.String())
	s.NotContains(cached.Body.String(), "second")

	// signed-in users bypass the cache
	s.Contains(s.get("/", s.reader).Body.String(), "second")

	s.Require().NoError(s.pageCache.Clear(s.ctx))
	s.Contains(s.get("/", nil).Body.String(), "second")
}

func (s *HandlersTestSuite) TestAdminCacheClear() {
	s.get("/", nil)
	s.Equal(1, s.pageCache.Len())

	w := s.postForm("/admin/cache/clear/", nil, s.reader)
	s.Equal(http.StatusForbidden, w.Code)
	s.Equal(1, s.pageCache.Len())

	w = s.postForm("/admin/cache/clear/", nil, nil)
	s.Equal(http.StatusFound, w.Code)

	s.Require().NoError(s.users.SetAdmin(s.ctx, "auth", true))
	s.author.IsAdmin = true
	w = s.postForm("/admin/cache/clear/", nil, s.author)
	s.Equal(http.StatusFound, w.Code)
	s.Equal("/", w.Header().Get("Location"))
	s.Equal(0, s.pageCache.Len())
}
