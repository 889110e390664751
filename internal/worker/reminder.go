package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/avitalak/salon-api/internal/model"
	"github.com/avitalak/salon-api/internal/repository"
	"github.com/avitalak/salon-api/internal/service/notification"
	"github.com/avitalak/salon-api/pkg/metrics"
)

// ReminderDispatcher periodically finds confirmed appointments starting
// within the reminder window and emails each customer once. The reminder_sent
// flag is flipped before sending so a crash can only lose a reminder, never
// duplicate one.
type ReminderDispatcher struct {
	appointments repository.AppointmentRepository
	users        repository.UserRepository
	services     repository.ServiceRepository
	notifier     notification.Service
	metrics      *metrics.Metrics
	logger       *zap.Logger

	window       time.Duration
	pollInterval time.Duration
}

func NewReminderDispatcher(
	appointments repository.AppointmentRepository,
	users repository.UserRepository,
	services repository.ServiceRepository,
	notifier notification.Service,
	m *metrics.Metrics,
	logger *zap.Logger,
	window time.Duration,
) *ReminderDispatcher {
	if window <= 0 {
		window = 24 * time.Hour
	}
	return &ReminderDispatcher{
		appointments: appointments,
		users:        users,
		services:     services,
		notifier:     notifier,
		metrics:      m,
		logger:       logger,
		window:       window,
		pollInterval: 5 * time.Minute,
	}
}

func (d *ReminderDispatcher) Start(ctx context.Context) {
	ticker := time.NewTicker(d.pollInterval)
	defer ticker.Stop()

	d.logger.Info("reminder dispatcher started",
		zap.Duration("window", d.window),
		zap.Duration("poll_interval", d.pollInterval))

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("reminder dispatcher stopping")
			return
		case <-ticker.C:
			d.runOnce(ctx)
		}
	}
}

func (d *ReminderDispatcher) runOnce(ctx context.Context) {
	now := time.Now()
	due, err := d.appointments.ListDueReminders(ctx, now, now.Add(d.window))
	if err != nil {
		d.logger.Error("failed to list due reminders", zap.Error(err))
		return
	}

	for _, apt := range due {
		sent, err := d.remind(ctx, apt)
		if err != nil {
			d.metrics.RemindersFailed.Inc()
			d.logger.Error("failed to send reminder",
				zap.String("appointment_id", apt.ID.String()),
				zap.Error(err))
			continue
		}
		if sent {
			d.metrics.RemindersSent.Inc()
		}
	}
}

func (d *ReminderDispatcher) remind(ctx context.Context, apt *model.Appointment) (bool, error) {
	// Claim first. The claim is first-wins, so a concurrent dispatcher that
	// listed the same due row loses the race and skips it.
	claimed, err := d.appointments.MarkReminderSent(ctx, apt.ID)
	if err != nil {
		return false, err
	}
	if !claimed {
		return false, nil
	}

	user, err := d.users.Get(ctx, apt.UserID)
	if err != nil {
		return false, err
	}
	svc, err := d.services.Get(ctx, apt.ServiceID)
	if err != nil {
		return false, err
	}

	vars := map[string]interface{}{
		"Name":    user.Name,
		"Service": svc.Name,
		"Date":    apt.Date.Format("2006-01-02"),
		"Time":    apt.Date.Format("15:04"),
	}
	if err := d.notifier.Send(ctx, model.TemplateAppointmentReminder, user.Email, vars); err != nil {
		return false, err
	}
	return true, nil
}
