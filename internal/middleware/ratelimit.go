package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimitConfig holds configuration for rate limiting
type RateLimitConfig struct {
	// Requests per window
	Limit int
	// Window duration
	Window time.Duration
	// KeyFunc picks the bucket for a request; defaults to the client IP
	KeyFunc func(c *gin.Context) string
}

func clientIPKey(c *gin.Context) string {
	return c.ClientIP()
}

// DefaultRateLimitConfig returns sensible defaults
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Limit:   100,
		Window:  time.Minute,
		KeyFunc: clientIPKey,
	}
}

// AuthRateLimitConfig returns stricter limits for login, signup and password reset
func AuthRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Limit:   10,
		Window:  time.Minute,
		KeyFunc: clientIPKey,
	}
}

// UploadRateLimitConfig returns limits for post creation and editing
func UploadRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Limit:   20,
		Window:  time.Minute,
		KeyFunc: clientIPKey,
	}
}

func (cfg RateLimitConfig) key(c *gin.Context) string {
	if cfg.KeyFunc == nil {
		return c.ClientIP()
	}
	return cfg.KeyFunc(c)
}

// TokenBucket for rate limiting
type TokenBucket struct {
	tokens     float64
	maxTokens  float64
	refillRate float64 // tokens per second
	lastRefill time.Time
	mu         sync.Mutex
}

// NewTokenBucket creates a new token bucket
func NewTokenBucket(maxTokens float64, refillRate float64) *TokenBucket {
	return &TokenBucket{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

// Allow checks if a request is allowed based on token availability
func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(tb.lastRefill).Seconds()
	tb.tokens = min(tb.maxTokens, tb.tokens+elapsed*tb.refillRate)
	tb.lastRefill = now

	if tb.tokens >= 1 {
		tb.tokens--
		return true
	}
	return false
}

// GetRetryAfter returns seconds to wait before next request
func (tb *TokenBucket) GetRetryAfter() int {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	if tb.tokens < 1 {
		timeToToken := (1 - tb.tokens) / tb.refillRate
		return int(timeToToken) + 1
	}
	return 0
}

// idle reports whether the bucket would be full again by now
func (tb *TokenBucket) idle(now time.Time) bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return tb.tokens+now.Sub(tb.lastRefill).Seconds()*tb.refillRate >= tb.maxTokens
}

// RateLimiter keeps one token bucket per key
type RateLimiter struct {
	buckets map[string]*TokenBucket
	config  RateLimitConfig
	mu      sync.Mutex
}

// NewRateLimiter creates a new in-process rate limiting middleware
func NewRateLimiter(config RateLimitConfig) gin.HandlerFunc {
	rl := &RateLimiter{
		buckets: make(map[string]*TokenBucket),
		config:  config,
	}

	go rl.cleanupRoutine(time.NewTicker(time.Minute))

	return func(c *gin.Context) {
		key := config.key(c)
		if !rl.Allow(key) {
			abortRateLimited(c, config.Limit, rl.GetRetryAfter(key))
			return
		}
		c.Next()
	}
}

// Allow checks if a key is allowed to make a request
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	bucket, exists := rl.buckets[key]
	if !exists {
		refillRate := float64(rl.config.Limit) / rl.config.Window.Seconds()
		bucket = NewTokenBucket(float64(rl.config.Limit), refillRate)
		rl.buckets[key] = bucket
	}
	rl.mu.Unlock()

	return bucket.Allow()
}

// GetRetryAfter gets retry-after seconds for a key
func (rl *RateLimiter) GetRetryAfter(key string) int {
	rl.mu.Lock()
	bucket, exists := rl.buckets[key]
	rl.mu.Unlock()

	if !exists {
		return 1
	}
	return bucket.GetRetryAfter()
}

// Sweep drops buckets that have refilled completely; a fresh bucket is
// indistinguishable from them
func (rl *RateLimiter) Sweep(now time.Time) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	removed := 0
	for key, bucket := range rl.buckets {
		if bucket.idle(now) {
			delete(rl.buckets, key)
			removed++
		}
	}
	return removed
}

func (rl *RateLimiter) cleanupRoutine(ticker *time.Ticker) {
	for now := range ticker.C {
		rl.Sweep(now)
	}
}

func abortRateLimited(c *gin.Context, limit, retryAfter int) {
	RecordRateLimitExceeded(c.FullPath(), c.Request.Method)

	c.Header("Retry-After", strconv.Itoa(retryAfter))
	c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
	c.Header("X-RateLimit-Remaining", "0")
	c.AbortWithStatus(http.StatusTooManyRequests)
	_, _ = c.Writer.WriteString("Too many requests. Try again later.\n")
}
