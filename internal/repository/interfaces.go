package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/avitalak/salon-api/internal/model"
)

// All repository interfaces in one file
type (
	UserRepository interface {
		Create(ctx context.Context, user *model.User) error
		Get(ctx context.Context, id uuid.UUID) (*model.User, error)
		GetByEmail(ctx context.Context, email string) (*model.User, error)
		Update(ctx context.Context, user *model.User) error
		List(ctx context.Context) ([]*model.User, error)
	}

	ServiceRepository interface {
		Create(ctx context.Context, service *model.Service) error
		Get(ctx context.Context, id uuid.UUID) (*model.Service, error)
		Update(ctx context.Context, service *model.Service) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, activeOnly bool) ([]*model.Service, error)
		CountAppointments(ctx context.Context, serviceID uuid.UUID) (int, error)
	}

	AppointmentRepository interface {
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error)
		// ListBlockingBetween returns pending/confirmed appointments whose
		// interval intersects [from, to), across all services: the salon
		// runs a single shared calendar.
		ListBlockingBetween(ctx context.Context, from, to time.Time) ([]*model.Appointment, error)
		// Book atomically re-checks the calendar for conflicts and inserts
		// the appointment plus its outbox event in one transaction. It
		// reports conflict=true, without inserting, when the slot is taken.
		Book(ctx context.Context, appointment *model.Appointment) (conflict bool, err error)
		// Reschedule moves date and end_date together under the same
		// transactional conflict check as Book, ignoring the appointment's
		// own current occupancy.
		Reschedule(ctx context.Context, id uuid.UUID, start, end time.Time) (conflict bool, err error)
		Update(ctx context.Context, appointment *model.Appointment) error
		Delete(ctx context.Context, id uuid.UUID) error
		ListDueReminders(ctx context.Context, from, to time.Time) ([]*model.Appointment, error)
		// MarkReminderSent claims the reminder for an appointment, at most
		// once. claimed=false means another dispatcher got there first.
		MarkReminderSent(ctx context.Context, id uuid.UUID) (claimed bool, err error)
	}

	WaitlistRepository interface {
		Create(ctx context.Context, entry *model.WaitlistEntry) error
		ExistsActive(ctx context.Context, userID, serviceID uuid.UUID, day time.Time, timeSlot string) (bool, error)
		// List returns active entries, scoped to userID unless it is uuid.Nil.
		List(ctx context.Context, userID uuid.UUID) ([]*model.WaitlistEntry, error)
		// Deactivate requires ownership unless ownerID is uuid.Nil.
		Deactivate(ctx context.Context, id, ownerID uuid.UUID) error
		// Settle claims the freed appointment (at most once per appointment)
		// and, in the same transaction, selects the oldest active
		// non-notified entry matching the freed (service, day, slot-or-ANY)
		// and marks it notified. Returns nil when the appointment was
		// already settled or nothing matches.
		Settle(ctx context.Context, appointmentID, serviceID uuid.UUID, day time.Time, timeSlot string) (*model.WaitlistEntry, error)
	}

	TemplateRepository interface {
		Get(ctx context.Context, kind model.TemplateKind) (*model.EmailTemplate, error)
		Upsert(ctx context.Context, tpl *model.EmailTemplate) error
		List(ctx context.Context) ([]*model.EmailTemplate, error)
	}

	OutboxRepository interface {
		GetPendingWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		MarkProcessed(ctx context.Context, id uuid.UUID) error
		MarkFailed(ctx context.Context, id uuid.UUID, errMsg string, retryAt *time.Time) error
	}
)
