package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yatube/backend/internal/database"
	apierrors "github.com/yatube/backend/internal/errors"
	"github.com/yatube/backend/internal/util"
)

// Health reports whether the server can reach its database
// GET /health
func (h *Handlers) Health(c *gin.Context) {
	if err := database.Health(h.db); err != nil {
		util.RespondWithAPIError(c, apierrors.ServiceUnavailable("database").WithDetails(err.Error()))
		return
	}

	response := gin.H{
		"status":    "ok",
		"database":  "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if h.pageCache != nil {
		response["page_cache"] = h.pageCache.Name()
	}
	c.JSON(http.StatusOK, response)
}
