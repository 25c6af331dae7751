package handlers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
	"github.com/yatube/backend/internal/auth"
	"github.com/yatube/backend/internal/cache"
	"github.com/yatube/backend/internal/email"
	"github.com/yatube/backend/internal/middleware"
	"github.com/yatube/backend/internal/models"
	"github.com/yatube/backend/internal/repository"
	"github.com/yatube/backend/internal/storage"
	"github.com/yatube/backend/internal/testutil"
	"gorm.io/gorm"
)

// HandlersTestSuite drives the full router against a temp sqlite database
type HandlersTestSuite struct {
	suite.Suite
	db        *gorm.DB
	ctx       context.Context
	router    *gin.Engine
	handlers  *Handlers
	auth      *auth.Service
	users     repository.UserRepository
	posts     repository.PostRepository
	groups    repository.GroupRepository
	pageCache *cache.MemoryStore
	mailer    *email.LogSender
	mediaRoot string

	author *models.User
	reader *models.User
	group  *models.Group
}

func TestHandlersTestSuite(t *testing.T) {
	suite.Run(t, new(HandlersTestSuite))
}

func (s *HandlersTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	s.db = testutil.OpenDB(s.T())
	s.ctx = context.Background()
	s.users = repository.NewUserRepository(s.db)
	s.posts = repository.NewPostRepository(s.db)
	s.groups = repository.NewGroupRepository(s.db)
	s.auth = auth.NewService([]byte("test-secret"), time.Hour, s.users, repository.NewPasswordResetRepository(s.db))

	s.mediaRoot = s.T().TempDir()
	images, err := storage.NewLocalStore(s.mediaRoot, "/media/")
	s.Require().NoError(err)

	s.handlers = NewHandlers(s.db, s.auth, images, 10)
	s.pageCache = cache.NewMemoryStore()
	s.handlers.SetPageCache(s.pageCache, time.Minute)
	s.mailer = email.NewLogSender()
	s.handlers.SetMailer(s.mailer)
	s.handlers.SetBaseURL("http://testserver")

	s.router = gin.New()
	s.Require().NoError(s.handlers.Mount(s.router))

	s.author = s.createUser("auth")
	s.reader = s.createUser("reader")
	s.group = &models.Group{Title: "Test group", Slug: "test-slug", Description: "Test description"}
	s.Require().NoError(s.groups.CreateGroup(s.ctx, s.group))
}

func (s *HandlersTestSuite) createUser(username string) *models.User {
	u := &models.User{Username: username, Email: username + "@example.com", PasswordHash: "unusable"}
	s.Require().NoError(s.users.CreateUser(s.ctx, u))
	return u
}

func (s *HandlersTestSuite) createPost(author *models.User, group *models.Group, text string) *models.Post {
	p := &models.Post{Text: text, AuthorID: author.ID}
	if group != nil {
		p.GroupID = &group.ID
	}
	s.Require().NoError(s.posts.CreatePost(s.ctx, p))
	return p
}

func (s *HandlersTestSuite) countPosts() int64 {
	var n int64
	s.Require().NoError(s.db.Model(&models.Post{}).Count(&n).Error)
	return n
}

// do sends a request, signed in as user when user is not nil
func (s *HandlersTestSuite) do(method, target string, body io.Reader, contentType string, user *models.User) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if user != nil {
		session, err := s.auth.IssueSession(user)
		s.Require().NoError(err)
		req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: session.Token})
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *HandlersTestSuite) get(target string, user *models.User) *httptest.ResponseRecorder {
	return s.do(http.MethodGet, target, nil, "", user)
}

func (s *HandlersTestSuite) postForm(target string, form url.Values, user *models.User) *httptest.ResponseRecorder {
	return s.do(http.MethodPost, target, strings.NewReader(form.Encode()), "application/x-www-form-urlencoded", user)
}

func (s *HandlersTestSuite) postMultipart(target string, fields map[string]string, fileName string, fileData []byte, user *models.User) *httptest.ResponseRecorder {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		s.Require().NoError(mw.WriteField(k, v))
	}
	if fileName != "" {
		fw, err := mw.CreateFormFile("image", fileName)
		s.Require().NoError(err)
		_, err = fw.Write(fileData)
		s.Require().NoError(err)
	}
	s.Require().NoError(mw.Close())
	return s.do(http.MethodPost, target, &body, mw.FormDataContentType(), user)
}

func articles(w *httptest.ResponseRecorder) int {
	return strings.Count(w.Body.String(), "<article>")
}

func (s *HandlersTestSuite) TestPublicPagesRender() {
	post := s.createPost(s.author, s.group, "Test post")

	for _, target := range []string{
		"/",
		"/group/test-slug/",
		"/profile/auth/",
		fmt.Sprintf("/posts/%d/", post.ID),
		"/about/author/",
		"/about/tech/",
		"/auth/signup/",
		"/auth/login/",
		"/auth/password_reset/",
	} {
		w := s.get(target, nil)
		s.Equal(http.StatusOK, w.Code, target)
	}
}

func (s *HandlersTestSuite) TestUnknownRoutesAndEntitiesAre404() {
	for _, target := range []string{
		"/unexisting_page/",
		"/group/nope/",
		"/profile/nobody/",
		"/posts/999/",
		"/posts/abc/",
	} {
		w := s.get(target, nil)
		s.Equal(http.StatusNotFound, w.Code, target)
		s.Contains(w.Body.String(), "Error 404", target)
	}
}

func (s *HandlersTestSuite) TestLoginRequiredRedirects() {
	post := s.createPost(s.author, nil, "Test post")

	cases := map[string]string{
		"/create/":  "/auth/login/?next=/create/",
		"/follow/":  "/auth/login/?next=/follow/",
		fmt.Sprintf("/posts/%d/edit/", post.ID): fmt.Sprintf("/auth/login/?next=/posts/%d/edit/", post.ID),
		"/auth/password_change/":                "/auth/login/?next=/auth/password_change/",
		"/profile/auth/follow/":                 "/auth/login/?next=/profile/auth/follow/",
	}
	for target, location := range cases {
		w := s.get(target, nil)
		s.Equal(http.StatusFound, w.Code, target)
		s.Equal(location, w.Header().Get("Location"), target)
	}
}

func (s *HandlersTestSuite) TestHealth() {
	w := s.get("/health", nil)
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), `"status":"ok"`)
	s.Contains(w.Body.String(), `"page_cache":"memory"`)
}

func (s *HandlersTestSuite) TestMetricsEndpoint() {
	w := s.get("/metrics", nil)
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), "go_goroutines")
}
