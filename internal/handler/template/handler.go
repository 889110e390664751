package template

import (
	"github.com/gin-gonic/gin"

	"github.com/avitalak/salon-api/internal/model"
	"github.com/avitalak/salon-api/internal/service/notification"
	apperrors "github.com/avitalak/salon-api/pkg/errors"
	"github.com/avitalak/salon-api/pkg/httputil"
)

type Handler struct {
	admin notification.TemplateAdmin
}

func NewHandler(admin notification.TemplateAdmin) *Handler {
	return &Handler{admin: admin}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("", h.List)
	r.PUT("", h.Upsert)
}

func (h *Handler) List(c *gin.Context) {
	templates, err := h.admin.ListTemplates(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, templates)
}

func (h *Handler) Upsert(c *gin.Context) {
	var req model.UpsertTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid request", err))
		return
	}

	tpl, err := h.admin.UpsertTemplate(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, tpl)
}
