package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apierrors "github.com/yatube/backend/internal/errors"
	"github.com/yatube/backend/internal/metrics"
	"github.com/yatube/backend/internal/util"
	"github.com/yatube/backend/internal/web"
)

// render writes a page with the signed-in user merged into its data
func (h *Handlers) render(c *gin.Context, status int, page string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	if user, ok := util.GetUserFromContext(c); ok {
		data["CurrentUser"] = user
	} else {
		data["CurrentUser"] = nil
	}
	data["Path"] = c.Request.URL.Path
	c.HTML(status, page, data)
}

// NotFound renders the 404 page; also the engine's NoRoute handler
func (h *Handlers) NotFound(c *gin.Context) {
	h.render(c, http.StatusNotFound, web.PageNotFound, nil)
}

// Forbidden renders the 403 page
func (h *Handlers) Forbidden(c *gin.Context) {
	h.render(c, http.StatusForbidden, web.PageForbidden, nil)
}

// ServerError logs the errors attached to the request and renders the 500 page
func (h *Handlers) ServerError(c *gin.Context) {
	apiErr := apierrors.InternalError("request failed")
	if last := c.Errors.Last(); last != nil {
		apiErr = apierrors.As(last.Err)
	}
	util.LogAPIError(c, apiErr)
	metrics.Get().ErrorsTotal.WithLabelValues(string(apiErr.Code), c.FullPath()).Inc()
	h.render(c, http.StatusInternalServerError, web.PageServerError, nil)
}

// fail records err and renders the 500 page
func (h *Handlers) fail(c *gin.Context, err error) {
	_ = c.Error(err)
	h.ServerError(c)
}

func redirect(c *gin.Context, location string) {
	c.Redirect(http.StatusFound, location)
}
