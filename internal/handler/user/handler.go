package user

import (
	"github.com/gin-gonic/gin"

	"github.com/avitalak/salon-api/internal/middleware"
	"github.com/avitalak/salon-api/internal/model"
	"github.com/avitalak/salon-api/internal/service/user"
	apperrors "github.com/avitalak/salon-api/pkg/errors"
	"github.com/avitalak/salon-api/pkg/httputil"
)

type Handler struct {
	service user.Service
}

func NewHandler(service user.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/me", h.Me)
	r.PUT("/me", h.UpdateMe)
}

func (h *Handler) RegisterAdminRoutes(r *gin.RouterGroup) {
	r.GET("", h.List)
}

func (h *Handler) Me(c *gin.Context) {
	claims := middleware.ClaimsFromContext(c)
	u, err := h.service.Get(c.Request.Context(), claims.UserID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, u)
}

func (h *Handler) UpdateMe(c *gin.Context) {
	var req model.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid request", err))
		return
	}

	claims := middleware.ClaimsFromContext(c)
	u, err := h.service.UpdateProfile(c.Request.Context(), claims.UserID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, u)
}

func (h *Handler) List(c *gin.Context) {
	users, err := h.service.List(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, users)
}
