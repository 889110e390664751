package waitlist

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/avitalak/salon-api/internal/middleware"
	"github.com/avitalak/salon-api/internal/model"
	"github.com/avitalak/salon-api/internal/service/waitlist"
	apperrors "github.com/avitalak/salon-api/pkg/errors"
	"github.com/avitalak/salon-api/pkg/httputil"
)

type Handler struct {
	service waitlist.Service
}

func NewHandler(service waitlist.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("", h.Join)
	r.GET("", h.List)
	r.DELETE("/:id", h.Remove)
}

func (h *Handler) Join(c *gin.Context) {
	var req model.JoinWaitlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid request", err))
		return
	}

	claims := middleware.ClaimsFromContext(c)
	entry, err := h.service.Join(c.Request.Context(), claims.UserID, &req)
	if errors.Is(err, waitlist.ErrDuplicateEntry) {
		httputil.RespondWithError(c, apperrors.Conflict("already on the waitlist for this slot", err))
		return
	}
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, entry)
}

func (h *Handler) List(c *gin.Context) {
	claims := middleware.ClaimsFromContext(c)
	all := claims.Role == model.RoleAdmin && c.Query("all") == "true"

	entries, err := h.service.List(c.Request.Context(), claims.UserID, all)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, entries)
}

func (h *Handler) Remove(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid waitlist entry ID", err))
		return
	}

	claims := middleware.ClaimsFromContext(c)
	if err := h.service.Remove(c.Request.Context(), id, claims.UserID, claims.Role == model.RoleAdmin); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"removed": true})
}
