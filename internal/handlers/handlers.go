package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yatube/backend/internal/auth"
	"github.com/yatube/backend/internal/cache"
	"github.com/yatube/backend/internal/email"
	"github.com/yatube/backend/internal/repository"
	"github.com/yatube/backend/internal/storage"
	"gorm.io/gorm"
)

// Handlers contains all HTTP handlers for the site
type Handlers struct {
	db       *gorm.DB
	posts    repository.PostRepository
	comments repository.CommentRepository
	groups   repository.GroupRepository
	users    repository.UserRepository
	auth     auth.AuthServiceInterface
	images   storage.ImageStore
	mailer   email.Sender

	pageCache    cache.Store
	pageCacheTTL time.Duration

	perPage       int
	baseURL       string
	secureCookies bool

	// optional middleware for throttled routes; pass-through when unset
	authLimit   gin.HandlerFunc
	uploadLimit gin.HandlerFunc
}

// NewHandlers creates a new handlers instance backed by db
func NewHandlers(db *gorm.DB, authService auth.AuthServiceInterface, images storage.ImageStore, perPage int) *Handlers {
	return &Handlers{
		db:          db,
		posts:       repository.NewPostRepository(db),
		comments:    repository.NewCommentRepository(db),
		groups:      repository.NewGroupRepository(db),
		users:       repository.NewUserRepository(db),
		auth:        authService,
		images:      images,
		mailer:      email.NewLogSender(),
		perPage:     perPage,
		baseURL:     "http://localhost:8000",
		authLimit:   passThrough,
		uploadLimit: passThrough,
	}
}

// SetMailer sets the sender used for password reset mail
func (h *Handlers) SetMailer(sender email.Sender) {
	h.mailer = sender
}

// SetPageCache enables the home page cache
func (h *Handlers) SetPageCache(store cache.Store, ttl time.Duration) {
	h.pageCache = store
	h.pageCacheTTL = ttl
}

// SetBaseURL sets the absolute site URL used in mailed links
func (h *Handlers) SetBaseURL(baseURL string) {
	h.baseURL = baseURL
}

// SetSecureCookies marks the session cookie Secure (HTTPS deployments)
func (h *Handlers) SetSecureCookies(secure bool) {
	h.secureCookies = secure
}

// SetRateLimiters sets the throttles for credential and upload endpoints
func (h *Handlers) SetRateLimiters(authLimit, uploadLimit gin.HandlerFunc) {
	if authLimit != nil {
		h.authLimit = authLimit
	}
	if uploadLimit != nil {
		h.uploadLimit = uploadLimit
	}
}

func passThrough(c *gin.Context) {
	c.Next()
}
