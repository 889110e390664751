package appointment

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/avitalak/salon-api/internal/middleware"
	"github.com/avitalak/salon-api/internal/model"
	"github.com/avitalak/salon-api/internal/service/appointment"
	apperrors "github.com/avitalak/salon-api/pkg/errors"
	"github.com/avitalak/salon-api/pkg/httputil"
)

type Handler struct {
	service appointment.Service
}

func NewHandler(service appointment.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/availability", h.Availability)
	r.GET("/next-available", h.NextAvailable)
	r.GET("", h.List)
	r.GET("/:id", h.Get)
	r.POST("", h.Create)
	r.PUT("/:id", h.Update)
	r.POST("/:id/cancel", h.Cancel)
}

func (h *Handler) RegisterAdminRoutes(r *gin.RouterGroup) {
	r.DELETE("/:id", h.Delete)
}

// Availability lists the free start times for a service on a given day.
func (h *Handler) Availability(c *gin.Context) {
	serviceID, err := uuid.Parse(c.Query("service_id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid service_id", err))
		return
	}
	date := c.Query("date")
	if date == "" {
		httputil.RespondWithError(c, apperrors.BadRequest("date is required", nil))
		return
	}

	slots, err := h.service.AvailableSlots(c.Request.Context(), serviceID, date)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"date": date, "slots": slots})
}

func (h *Handler) NextAvailable(c *gin.Context) {
	serviceID, err := uuid.Parse(c.Query("service_id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid service_id", err))
		return
	}

	slot, err := h.service.NextAvailable(c.Request.Context(), serviceID)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, slot)
}

func (h *Handler) Create(c *gin.Context) {
	var req model.CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid request", err))
		return
	}

	apt, err := h.service.Create(c.Request.Context(), &req, middleware.ClaimsFromContext(c))
	if err != nil {
		respondDomainError(c, err)
		return
	}
	httputil.RespondWithCreated(c, apt)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid appointment ID", err))
		return
	}

	apt, err := h.service.Get(c.Request.Context(), id, middleware.ClaimsFromContext(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, apt)
}

func (h *Handler) List(c *gin.Context) {
	filters, err := parseFilters(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	appointments, err := h.service.List(c.Request.Context(), filters, middleware.ClaimsFromContext(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, appointments)
}

func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid appointment ID", err))
		return
	}

	var req model.UpdateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid request", err))
		return
	}

	apt, err := h.service.Update(c.Request.Context(), id, &req, middleware.ClaimsFromContext(c))
	if err != nil {
		respondDomainError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, apt)
}

func (h *Handler) Cancel(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid appointment ID", err))
		return
	}

	if err := h.service.Cancel(c.Request.Context(), id, middleware.ClaimsFromContext(c)); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"cancelled": true})
}

func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid appointment ID", err))
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"deleted": true})
}

func parseFilters(c *gin.Context) (*model.AppointmentFilters, error) {
	filters := &model.AppointmentFilters{}

	if raw := c.Query("service_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, apperrors.BadRequest("invalid service_id", err)
		}
		filters.ServiceID = id
	}
	if raw := c.Query("user_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, apperrors.BadRequest("invalid user_id", err)
		}
		filters.UserID = id
	}
	if raw := c.Query("date"); raw != "" {
		day, err := time.ParseInLocation("2006-01-02", raw, time.Local)
		if err != nil {
			return nil, apperrors.BadRequest("invalid date", err)
		}
		filters.Day = day
	}
	if raw := c.Query("status"); raw != "" {
		filters.Statuses = []model.AppointmentStatus{model.AppointmentStatus(raw)}
	}
	return filters, nil
}

// respondDomainError maps scheduling sentinels onto HTTP statuses before
// falling back to the generic handler.
func respondDomainError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, appointment.ErrSlotTaken):
		httputil.RespondWithError(c, apperrors.Conflict("time slot is already taken", err))
	case errors.Is(err, appointment.ErrNoAvailability):
		httputil.RespondWithError(c, apperrors.NotFound("available slot", err))
	case errors.Is(err, appointment.ErrInvalidInterval):
		httputil.RespondWithError(c, apperrors.BadRequest("invalid time interval", err))
	default:
		httputil.RespondWithError(c, err)
	}
}
