package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/yatube/backend/internal/logger"
	"github.com/yatube/backend/internal/metrics"
	"github.com/yatube/backend/internal/middleware"
	"github.com/yatube/backend/internal/util"
	"go.uber.org/zap"
)

// ClearCache drops every cached page so the next visitor sees fresh content
// POST /admin/cache/clear/
func (h *Handlers) ClearCache(c *gin.Context) {
	me, _ := util.GetUserFromContext(c)

	if h.pageCache != nil {
		if err := h.pageCache.Clear(c.Request.Context()); err != nil {
			h.fail(c, err)
			return
		}
		metrics.Get().CacheClearsTotal.WithLabelValues(middleware.PageCacheName).Inc()
		logger.Log.Info("Page cache cleared",
			logger.WithUserID(me.ID),
			zap.String("store", h.pageCache.Name()),
		)
	}

	redirect(c, "/")
}
