package appointment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/avitalak/salon-api/internal/model"
	"github.com/avitalak/salon-api/internal/repository"
	"github.com/avitalak/salon-api/internal/service/catalog"
	"github.com/avitalak/salon-api/internal/service/notification"
	"github.com/avitalak/salon-api/internal/service/waitlist"
	apperrors "github.com/avitalak/salon-api/pkg/errors"
)

// Service orchestrates bookings on the single shared calendar. The decisive
// conflict check lives inside the repository transaction; everything here is
// validation, authorization and follow-up work (waitlist settlement,
// notifications).
type Service interface {
	Create(ctx context.Context, req *model.CreateAppointmentRequest, actor *model.TokenClaims) (*model.Appointment, error)
	Get(ctx context.Context, id uuid.UUID, actor *model.TokenClaims) (*model.Appointment, error)
	List(ctx context.Context, filters *model.AppointmentFilters, actor *model.TokenClaims) ([]*model.Appointment, error)
	Update(ctx context.Context, id uuid.UUID, req *model.UpdateAppointmentRequest, actor *model.TokenClaims) (*model.Appointment, error)
	Cancel(ctx context.Context, id uuid.UUID, actor *model.TokenClaims) error
	Delete(ctx context.Context, id uuid.UUID) error
	AvailableSlots(ctx context.Context, serviceID uuid.UUID, date string) ([]string, error)
	NextAvailable(ctx context.Context, serviceID uuid.UUID) (*model.NextAvailableSlot, error)
}

type service struct {
	repo        repository.AppointmentRepository
	users       repository.UserRepository
	catalog     catalog.Service
	waitlist    waitlist.Service
	notifier    notification.Service
	logger      *zerolog.Logger
	horizonDays int
	now         func() time.Time
}

func NewService(
	repo repository.AppointmentRepository,
	users repository.UserRepository,
	cat catalog.Service,
	wl waitlist.Service,
	notifier notification.Service,
	logger *zerolog.Logger,
	horizonDays int,
) Service {
	return &service{
		repo:        repo,
		users:       users,
		catalog:     cat,
		waitlist:    wl,
		notifier:    notifier,
		logger:      logger,
		horizonDays: horizonDays,
		now:         time.Now,
	}
}

func (s *service) Create(ctx context.Context, req *model.CreateAppointmentRequest, actor *model.TokenClaims) (*model.Appointment, error) {
	svc, err := s.catalog.Get(ctx, req.ServiceID)
	if err != nil {
		return nil, err
	}
	if !svc.Active {
		return nil, apperrors.BadRequest("service is no longer offered", nil)
	}

	start, err := s.parseStart(req.Date, req.Time, svc)
	if err != nil {
		return nil, err
	}

	userID := actor.UserID
	status := model.AppointmentStatusPending
	if actor.Role == model.RoleAdmin {
		// Bookings made at the desk skip the confirmation step.
		status = model.AppointmentStatusConfirmed
		if req.UserID != uuid.Nil {
			userID = req.UserID
		}
	}

	apt := &model.Appointment{
		UserID:    userID,
		ServiceID: req.ServiceID,
		Date:      start,
		EndDate:   start.Add(time.Duration(svc.Duration) * time.Minute),
		Status:    status,
		Notes:     req.Notes,
	}

	conflict, err := s.repo.Book(ctx, apt)
	if err != nil {
		return nil, fmt.Errorf("failed to book appointment: %w", err)
	}
	if conflict {
		return nil, ErrSlotTaken
	}

	s.notify(ctx, model.TemplateAppointmentCreated, apt, svc.Name)
	return apt, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID, actor *model.TokenClaims) (*model.Appointment, error) {
	apt, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(apt, actor); err != nil {
		return nil, err
	}
	return apt, nil
}

func (s *service) List(ctx context.Context, filters *model.AppointmentFilters, actor *model.TokenClaims) ([]*model.Appointment, error) {
	if filters == nil {
		filters = &model.AppointmentFilters{}
	}
	if actor.Role != model.RoleAdmin {
		// Customers only ever see their own bookings.
		filters.UserID = actor.UserID
	}
	return s.repo.List(ctx, filters)
}

func (s *service) Update(ctx context.Context, id uuid.UUID, req *model.UpdateAppointmentRequest, actor *model.TokenClaims) (*model.Appointment, error) {
	apt, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(apt, actor); err != nil {
		return nil, err
	}
	if !apt.Status.Blocks() {
		return nil, apperrors.BadRequest("appointment can no longer be modified", nil)
	}

	if req.Status != nil && *req.Status == model.AppointmentStatusCancelled {
		if err := s.cancel(ctx, apt); err != nil {
			return nil, err
		}
		return apt, nil
	}

	if req.Date != nil || req.Time != nil {
		apt, err = s.reschedule(ctx, apt, req)
		if err != nil {
			return nil, err
		}
	}

	changed := false
	if req.Status != nil && *req.Status != apt.Status {
		if !isValidTransition(apt.Status, *req.Status) {
			return nil, apperrors.BadRequest(fmt.Sprintf("cannot move appointment from %s to %s", apt.Status, *req.Status), nil)
		}
		apt.Status = *req.Status
		changed = true
	}
	if req.Notes != nil {
		apt.Notes = *req.Notes
		changed = true
	}
	if changed {
		if err := s.repo.Update(ctx, apt); err != nil {
			return nil, fmt.Errorf("failed to update appointment: %w", err)
		}
	}

	s.notifyUpdated(ctx, apt)
	return apt, nil
}

func (s *service) Cancel(ctx context.Context, id uuid.UUID, actor *model.TokenClaims) error {
	apt, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := authorize(apt, actor); err != nil {
		return err
	}
	if !apt.Status.Blocks() {
		return apperrors.BadRequest("appointment is already closed", nil)
	}
	return s.cancel(ctx, apt)
}

// cancel soft-cancels and then frees the slot for the waitlist. The record
// stays for history; only its status changes.
func (s *service) cancel(ctx context.Context, apt *model.Appointment) error {
	apt.Status = model.AppointmentStatusCancelled
	if err := s.repo.Update(ctx, apt); err != nil {
		return fmt.Errorf("failed to cancel appointment: %w", err)
	}

	if err := s.waitlist.Settle(ctx, apt); err != nil {
		// The cancellation itself stuck; settlement will not be retried for
		// this appointment unless the claim was rolled back with it.
		s.logger.Error().Err(err).Str("appointment_id", apt.ID.String()).Msg("waitlist settlement failed")
	}

	s.notify(ctx, model.TemplateAppointmentCancelled, apt, "")
	return nil
}

// Delete removes the record entirely. Admin only; the freed slot still goes
// through waitlist settlement before the row disappears.
func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	apt, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}

	if apt.Status.Blocks() {
		if err := s.waitlist.Settle(ctx, apt); err != nil {
			s.logger.Error().Err(err).Str("appointment_id", apt.ID.String()).Msg("waitlist settlement failed")
		}
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete appointment: %w", err)
	}
	return nil
}

func (s *service) AvailableSlots(ctx context.Context, serviceID uuid.UUID, date string) ([]string, error) {
	svc, err := s.catalog.Get(ctx, serviceID)
	if err != nil {
		return nil, err
	}

	day, err := time.ParseInLocation("2006-01-02", date, time.Local)
	if err != nil {
		return nil, apperrors.BadRequest(fmt.Sprintf("invalid date %q", date), err)
	}

	existing, err := s.repo.ListBlockingBetween(ctx, startOfDay(day), startOfDay(day).AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("failed to load bookings: %w", err)
	}
	return ListFreeSlots(svc, day, existing, s.now())
}

// NextAvailable searches from tomorrow; today is deliberately excluded so
// the answer is bookable without same-day scrambling.
func (s *service) NextAvailable(ctx context.Context, serviceID uuid.UUID) (*model.NextAvailableSlot, error) {
	svc, err := s.catalog.Get(ctx, serviceID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	searchStart := startOfDay(now).AddDate(0, 0, 1)
	searchEnd := searchStart.AddDate(0, 0, s.horizonDays)

	existing, err := s.repo.ListBlockingBetween(ctx, searchStart, searchEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to load bookings: %w", err)
	}
	return FindNextAvailable(svc, searchStart, s.horizonDays, existing, now)
}

func (s *service) reschedule(ctx context.Context, apt *model.Appointment, req *model.UpdateAppointmentRequest) (*model.Appointment, error) {
	if req.Date == nil || req.Time == nil {
		return nil, apperrors.BadRequest("rescheduling requires both date and time", nil)
	}

	svc, err := s.catalog.Get(ctx, apt.ServiceID)
	if err != nil {
		return nil, err
	}
	start, err := s.parseStart(*req.Date, *req.Time, svc)
	if err != nil {
		return nil, err
	}
	end := start.Add(time.Duration(svc.Duration) * time.Minute)

	conflict, err := s.repo.Reschedule(ctx, apt.ID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to reschedule appointment: %w", err)
	}
	if conflict {
		return nil, ErrSlotTaken
	}

	apt.Date = start
	apt.EndDate = end
	return apt, nil
}

// parseStart validates a requested slot against the service definition:
// future start, operating weekday, on the tick grid, whole service inside the
// working window.
func (s *service) parseStart(date, clock string, svc *model.Service) (time.Time, error) {
	start, err := time.ParseInLocation("2006-01-02 15:04", date+" "+clock, time.Local)
	if err != nil {
		return time.Time{}, apperrors.BadRequest(fmt.Sprintf("invalid date or time %q %q", date, clock), err)
	}
	if !start.After(s.now()) {
		return time.Time{}, apperrors.BadRequest("appointment must be in the future", nil)
	}
	if !svc.Days.Contains(start.Weekday()) {
		return time.Time{}, apperrors.BadRequest(fmt.Sprintf("service is not offered on %s", start.Weekday()), nil)
	}

	minute, err := model.MinutesOfDay(clock)
	if err != nil {
		return time.Time{}, apperrors.BadRequest(fmt.Sprintf("invalid time %q", clock), err)
	}
	if minute%slotMinutes != 0 {
		return time.Time{}, apperrors.BadRequest("appointments start on 30-minute boundaries", nil)
	}

	windowStart, err := model.MinutesOfDay(svc.StartTime)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid service start time %q: %w", svc.StartTime, err)
	}
	windowEnd, err := model.MinutesOfDay(svc.EndTime)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid service end time %q: %w", svc.EndTime, err)
	}
	if minute < windowStart || minute+svc.Duration > windowEnd {
		return time.Time{}, apperrors.BadRequest(fmt.Sprintf("service runs %s to %s", svc.StartTime, svc.EndTime), nil)
	}
	return start, nil
}

func (s *service) notifyUpdated(ctx context.Context, apt *model.Appointment) {
	svc, err := s.catalog.Get(ctx, apt.ServiceID)
	name := ""
	if err == nil {
		name = svc.Name
	}
	s.notify(ctx, model.TemplateAppointmentUpdated, apt, name)
}

// notify is best effort: scheduling state never rolls back over email.
func (s *service) notify(ctx context.Context, kind model.TemplateKind, apt *model.Appointment, serviceName string) {
	user, err := s.users.Get(ctx, apt.UserID)
	if err != nil {
		s.logger.Warn().Err(err).Str("user_id", apt.UserID.String()).Msg("failed to load user for notification")
		return
	}

	vars := map[string]interface{}{
		"Name":    user.Name,
		"Service": serviceName,
		"Date":    apt.Date.Format("2006-01-02"),
		"Time":    apt.Date.Format("15:04"),
		"Status":  string(apt.Status),
	}
	if err := s.notifier.Send(ctx, kind, user.Email, vars); err != nil {
		s.logger.Warn().Err(err).Str("kind", string(kind)).Msg("failed to send notification")
	}
}

func authorize(apt *model.Appointment, actor *model.TokenClaims) error {
	if actor.Role == model.RoleAdmin || apt.UserID == actor.UserID {
		return nil
	}
	// Hide other customers' bookings entirely rather than confirming they
	// exist.
	return apperrors.NotFound("appointment", nil)
}

func isValidTransition(from, to model.AppointmentStatus) bool {
	switch from {
	case model.AppointmentStatusPending:
		return to == model.AppointmentStatusConfirmed || to == model.AppointmentStatusCompleted
	case model.AppointmentStatusConfirmed:
		return to == model.AppointmentStatusCompleted
	default:
		return false
	}
}
