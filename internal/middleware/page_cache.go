package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yatube/backend/internal/cache"
	"github.com/yatube/backend/internal/logger"
	"github.com/yatube/backend/internal/util"
	"go.uber.org/zap"
)

// CacheStatusHeader reports HIT or MISS for cacheable requests
const CacheStatusHeader = "X-Cache"

// PageCacheName labels page cache metrics
const PageCacheName = "page_cache"

// cachedPage is the blob stored for one rendered page
type cachedPage struct {
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// PageCacheKey builds the cache key for a request path and raw query
func PageCacheKey(path, rawQuery string) string {
	return "page:" + path + "?" + rawQuery
}

// PageCache serves whole rendered pages from store for up to ttl.
// Only anonymous GET requests are cached and only 200 responses populate
// the cache, so one user's navigation never leaks into the shared copy.
func PageCache(store cache.Store, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if store == nil || ttl <= 0 || c.Request.Method != http.MethodGet {
			c.Next()
			return
		}
		if _, authenticated := util.GetUserFromContext(c); authenticated {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		key := PageCacheKey(c.Request.URL.Path, c.Request.URL.RawQuery)

		startTime := time.Now()
		data, hit, err := store.Get(ctx, key)
		RecordCacheOperation("GET", store.Name(), time.Since(startTime))
		if err != nil {
			logger.Log.Warn("Page cache read failed",
				zap.String("key", key),
				zap.Error(err),
			)
		}

		if hit {
			var page cachedPage
			if err := json.Unmarshal(data, &page); err == nil {
				RecordCacheHit(PageCacheName)
				c.Header(CacheStatusHeader, "HIT")
				c.Data(http.StatusOK, page.ContentType, page.Body)
				c.Abort()
				return
			}
			logger.Log.Warn("Discarding undecodable page cache entry", zap.String("key", key))
		}

		RecordCacheMiss(PageCacheName)
		c.Header(CacheStatusHeader, "MISS")

		writer := &cachedResponseWriter{
			ResponseWriter: c.Writer,
			body:           &bytes.Buffer{},
		}
		c.Writer = writer

		c.Next()

		if writer.Status() != http.StatusOK || writer.body.Len() == 0 {
			return
		}

		blob, err := json.Marshal(cachedPage{
			ContentType: writer.Header().Get("Content-Type"),
			Body:        writer.body.Bytes(),
		})
		if err != nil {
			return
		}

		setStartTime := time.Now()
		if err := store.Set(ctx, key, blob, ttl); err != nil {
			logger.Log.Warn("Page cache write failed",
				zap.String("key", key),
				zap.Error(err),
			)
			return
		}
		RecordCacheOperation("SET", store.Name(), time.Since(setStartTime))
		logger.Log.Debug("Page cached",
			zap.String("key", key),
			zap.Duration("ttl", ttl),
			zap.Int("size_bytes", len(blob)),
		)
	}
}

// cachedResponseWriter intercepts response writes to capture the response body
type cachedResponseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *cachedResponseWriter) Write(data []byte) (int, error) {
	w.body.Write(data)
	return w.ResponseWriter.Write(data)
}

func (w *cachedResponseWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}
