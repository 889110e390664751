package waitlist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/avitalak/salon-api/internal/model"
	"github.com/avitalak/salon-api/internal/repository"
	"github.com/avitalak/salon-api/internal/service/notification"
)

// ErrDuplicateEntry means the user already holds an active entry for the
// same service, day and time slot.
var ErrDuplicateEntry = errors.New("already on the waitlist for this slot")

// Service manages waitlist membership and settles freed slots. Settlement is
// strictly FIFO per (service, day, slot) and at most one entry is notified
// per freed appointment, no matter how many times settlement runs.
type Service interface {
	Join(ctx context.Context, userID uuid.UUID, req *model.JoinWaitlistRequest) (*model.WaitlistEntry, error)
	List(ctx context.Context, userID uuid.UUID, all bool) ([]*model.WaitlistEntry, error)
	Remove(ctx context.Context, id, userID uuid.UUID, isAdmin bool) error
	Settle(ctx context.Context, freed *model.Appointment) error
}

type service struct {
	repo     repository.WaitlistRepository
	users    repository.UserRepository
	services repository.ServiceRepository
	notifier notification.Service
	logger   *zerolog.Logger
}

func NewService(repo repository.WaitlistRepository, users repository.UserRepository, services repository.ServiceRepository, notifier notification.Service, logger *zerolog.Logger) Service {
	return &service{
		repo:     repo,
		users:    users,
		services: services,
		notifier: notifier,
		logger:   logger,
	}
}

func (s *service) Join(ctx context.Context, userID uuid.UUID, req *model.JoinWaitlistRequest) (*model.WaitlistEntry, error) {
	if _, err := s.services.Get(ctx, req.ServiceID); err != nil {
		return nil, err
	}

	day, err := time.ParseInLocation("2006-01-02", req.Date, time.Local)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", req.Date, err)
	}

	slot := req.TimeSlot
	if slot == "" {
		slot = model.AnyTimeSlot
	}
	if slot != model.AnyTimeSlot {
		if _, err := model.MinutesOfDay(slot); err != nil {
			return nil, fmt.Errorf("invalid time slot %q: %w", slot, err)
		}
	}

	exists, err := s.repo.ExistsActive(ctx, userID, req.ServiceID, day, slot)
	if err != nil {
		return nil, fmt.Errorf("failed to check waitlist membership: %w", err)
	}
	if exists {
		return nil, ErrDuplicateEntry
	}

	entry := &model.WaitlistEntry{
		UserID:    userID,
		ServiceID: req.ServiceID,
		Day:       day,
		TimeSlot:  slot,
		Active:    true,
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to create waitlist entry: %w", err)
	}
	return entry, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID, all bool) ([]*model.WaitlistEntry, error) {
	if all {
		return s.repo.List(ctx, uuid.Nil)
	}
	return s.repo.List(ctx, userID)
}

func (s *service) Remove(ctx context.Context, id, userID uuid.UUID, isAdmin bool) error {
	owner := userID
	if isAdmin {
		owner = uuid.Nil
	}
	return s.repo.Deactivate(ctx, id, owner)
}

// Settle reacts to a freed appointment slot. The repository claims the
// appointment and picks the oldest matching active entry in one transaction,
// so concurrent or repeated settles for the same appointment notify at most
// one waiter. Entries registered for the exact slot and for any slot on the
// day compete in plain arrival order.
func (s *service) Settle(ctx context.Context, freed *model.Appointment) error {
	entry, err := s.repo.Settle(ctx, freed.ID, freed.ServiceID, startOfDay(freed.Date), freed.Date.Format("15:04"))
	if err != nil {
		return fmt.Errorf("failed to settle waitlist for appointment %s: %w", freed.ID, err)
	}
	if entry == nil {
		return nil
	}

	user, err := s.users.Get(ctx, entry.UserID)
	if err != nil {
		return fmt.Errorf("failed to load waitlisted user %s: %w", entry.UserID, err)
	}
	svc, err := s.services.Get(ctx, entry.ServiceID)
	if err != nil {
		return fmt.Errorf("failed to load service %s: %w", entry.ServiceID, err)
	}

	vars := map[string]interface{}{
		"Name":    user.Name,
		"Service": svc.Name,
		"Date":    freed.Date.Format("2006-01-02"),
		"Time":    freed.Date.Format("15:04"),
	}
	if err := s.notifier.Send(ctx, model.TemplateWaitlistFreed, user.Email, vars); err != nil {
		// The entry is already consumed; a lost email must not resurrect it
		// or we would notify a second waiter for the same slot.
		s.logger.Error().Err(err).
			Str("entry_id", entry.ID.String()).
			Str("user_id", user.ID.String()).
			Msg("failed to notify waitlisted user")
	}
	return nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
