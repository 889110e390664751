package worker

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/avitalak/salon-api/internal/model"
	apperrors "github.com/avitalak/salon-api/pkg/errors"
	"github.com/avitalak/salon-api/pkg/metrics"
)

// Registered once: prometheus rejects duplicate collector registration.
var testMetrics = metrics.NewMetrics("salon_test", "reminder")

type fakeAppointmentRepo struct {
	due     []*model.Appointment
	claimed map[uuid.UUID]bool
}

func (f *fakeAppointmentRepo) Get(context.Context, uuid.UUID) (*model.Appointment, error) {
	return nil, apperrors.NotFound("appointment", nil)
}

func (f *fakeAppointmentRepo) List(context.Context, *model.AppointmentFilters) ([]*model.Appointment, error) {
	return nil, nil
}

func (f *fakeAppointmentRepo) ListBlockingBetween(context.Context, time.Time, time.Time) ([]*model.Appointment, error) {
	return nil, nil
}

func (f *fakeAppointmentRepo) Book(context.Context, *model.Appointment) (bool, error) {
	return false, nil
}

func (f *fakeAppointmentRepo) Reschedule(context.Context, uuid.UUID, time.Time, time.Time) (bool, error) {
	return false, nil
}

func (f *fakeAppointmentRepo) Update(context.Context, *model.Appointment) error { return nil }
func (f *fakeAppointmentRepo) Delete(context.Context, uuid.UUID) error          { return nil }

// ListDueReminders deliberately ignores prior claims, emulating a second
// dispatcher working from the same stale listing.
func (f *fakeAppointmentRepo) ListDueReminders(context.Context, time.Time, time.Time) ([]*model.Appointment, error) {
	return f.due, nil
}

func (f *fakeAppointmentRepo) MarkReminderSent(_ context.Context, id uuid.UUID) (bool, error) {
	if f.claimed[id] {
		return false, nil
	}
	f.claimed[id] = true
	return true, nil
}

type fakeUserRepo struct {
	user *model.User
}

func (f *fakeUserRepo) Create(context.Context, *model.User) error { return nil }
func (f *fakeUserRepo) Get(context.Context, uuid.UUID) (*model.User, error) {
	return f.user, nil
}
func (f *fakeUserRepo) GetByEmail(context.Context, string) (*model.User, error) {
	return f.user, nil
}
func (f *fakeUserRepo) Update(context.Context, *model.User) error { return nil }
func (f *fakeUserRepo) List(context.Context) ([]*model.User, error) {
	return nil, nil
}

type fakeServiceRepo struct {
	svc *model.Service
}

func (f *fakeServiceRepo) Create(context.Context, *model.Service) error { return nil }
func (f *fakeServiceRepo) Get(context.Context, uuid.UUID) (*model.Service, error) {
	return f.svc, nil
}
func (f *fakeServiceRepo) Update(context.Context, *model.Service) error { return nil }
func (f *fakeServiceRepo) Delete(context.Context, uuid.UUID) error      { return nil }
func (f *fakeServiceRepo) List(context.Context, bool) ([]*model.Service, error) {
	return nil, nil
}
func (f *fakeServiceRepo) CountAppointments(context.Context, uuid.UUID) (int, error) {
	return 0, nil
}

type fakeNotifier struct {
	sent    int
	sendErr error
}

func (f *fakeNotifier) Send(context.Context, model.TemplateKind, string, map[string]interface{}) error {
	f.sent++
	return f.sendErr
}

func newTestDispatcher(repo *fakeAppointmentRepo, notifier *fakeNotifier) *ReminderDispatcher {
	users := &fakeUserRepo{user: &model.User{
		Base:  model.Base{ID: uuid.New()},
		Email: "dana@example.com",
		Name:  "Dana",
	}}
	services := &fakeServiceRepo{svc: &model.Service{
		Base: model.Base{ID: uuid.New()},
		Name: "Color",
	}}
	return NewReminderDispatcher(repo, users, services, notifier, testMetrics, zap.NewNop(), time.Hour)
}

func dueAppointment() *model.Appointment {
	return &model.Appointment{
		Base:      model.Base{ID: uuid.New()},
		UserID:    uuid.New(),
		ServiceID: uuid.New(),
		Date:      time.Now().Add(30 * time.Minute),
		Status:    model.AppointmentStatusConfirmed,
	}
}

func TestRunOnce_SendsOneReminderPerAppointment(t *testing.T) {
	repo := &fakeAppointmentRepo{
		due:     []*model.Appointment{dueAppointment()},
		claimed: make(map[uuid.UUID]bool),
	}
	notifier := &fakeNotifier{}
	d := newTestDispatcher(repo, notifier)

	// Two polls over the same due listing: the second must lose the claim
	// and skip the row.
	d.runOnce(context.Background())
	d.runOnce(context.Background())

	assert.Equal(t, 1, notifier.sent)
}

func TestRemind_SkipsWhenClaimLost(t *testing.T) {
	apt := dueAppointment()
	repo := &fakeAppointmentRepo{claimed: map[uuid.UUID]bool{apt.ID: true}}
	notifier := &fakeNotifier{}
	d := newTestDispatcher(repo, notifier)

	sent, err := d.remind(context.Background(), apt)
	assert.NoError(t, err)
	assert.False(t, sent)
	assert.Zero(t, notifier.sent)
}

func TestRemind_FailedSendDoesNotRetry(t *testing.T) {
	apt := dueAppointment()
	repo := &fakeAppointmentRepo{
		due:     []*model.Appointment{apt},
		claimed: make(map[uuid.UUID]bool),
	}
	notifier := &fakeNotifier{sendErr: fmt.Errorf("smtp down")}
	d := newTestDispatcher(repo, notifier)

	// The claim is consumed before sending: a failed send is logged and
	// counted, never resent.
	d.runOnce(context.Background())
	notifier.sendErr = nil
	d.runOnce(context.Background())

	assert.Equal(t, 1, notifier.sent)
}
