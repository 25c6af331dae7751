package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yatube/backend/internal/web"
)

// GET /about/author/
func (h *Handlers) AboutAuthor(c *gin.Context) {
	h.render(c, http.StatusOK, web.PageAboutAuthor, nil)
}

// GET /about/tech/
func (h *Handlers) AboutTech(c *gin.Context) {
	h.render(c, http.StatusOK, web.PageAboutTech, nil)
}
