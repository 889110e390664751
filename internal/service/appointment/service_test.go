package appointment

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avitalak/salon-api/internal/model"
	apperrors "github.com/avitalak/salon-api/pkg/errors"
)

type fakeAppointmentRepo struct {
	appointments       map[uuid.UUID]*model.Appointment
	booked             []*model.Appointment
	updated            []*model.Appointment
	deleted            []uuid.UUID
	bookConflict       bool
	rescheduleConflict bool
}

func newFakeAppointmentRepo() *fakeAppointmentRepo {
	return &fakeAppointmentRepo{appointments: make(map[uuid.UUID]*model.Appointment)}
}

func (f *fakeAppointmentRepo) Get(_ context.Context, id uuid.UUID) (*model.Appointment, error) {
	apt, ok := f.appointments[id]
	if !ok {
		return nil, apperrors.NotFound("appointment", nil)
	}
	copied := *apt
	return &copied, nil
}

func (f *fakeAppointmentRepo) List(_ context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	var out []*model.Appointment
	for _, apt := range f.appointments {
		if filters != nil && filters.UserID != uuid.Nil && apt.UserID != filters.UserID {
			continue
		}
		out = append(out, apt)
	}
	return out, nil
}

func (f *fakeAppointmentRepo) ListBlockingBetween(_ context.Context, from, to time.Time) ([]*model.Appointment, error) {
	var out []*model.Appointment
	for _, apt := range f.appointments {
		if apt.Status.Blocks() && apt.Date.Before(to) && apt.EndDate.After(from) {
			out = append(out, apt)
		}
	}
	return out, nil
}

func (f *fakeAppointmentRepo) Book(_ context.Context, apt *model.Appointment) (bool, error) {
	if f.bookConflict {
		return true, nil
	}
	apt.ID = uuid.New()
	f.appointments[apt.ID] = apt
	f.booked = append(f.booked, apt)
	return false, nil
}

func (f *fakeAppointmentRepo) Reschedule(_ context.Context, id uuid.UUID, start, end time.Time) (bool, error) {
	if f.rescheduleConflict {
		return true, nil
	}
	apt, ok := f.appointments[id]
	if !ok {
		return false, apperrors.NotFound("appointment", nil)
	}
	apt.Date = start
	apt.EndDate = end
	return false, nil
}

func (f *fakeAppointmentRepo) Update(_ context.Context, apt *model.Appointment) error {
	f.appointments[apt.ID] = apt
	f.updated = append(f.updated, apt)
	return nil
}

func (f *fakeAppointmentRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.appointments, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeAppointmentRepo) ListDueReminders(context.Context, time.Time, time.Time) ([]*model.Appointment, error) {
	return nil, nil
}

func (f *fakeAppointmentRepo) MarkReminderSent(context.Context, uuid.UUID) (bool, error) {
	return true, nil
}

type fakeUserRepo struct {
	users map[uuid.UUID]*model.User
}

func (f *fakeUserRepo) Create(_ context.Context, u *model.User) error {
	f.users[u.ID] = u
	return nil
}

func (f *fakeUserRepo) Get(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, apperrors.NotFound("user", nil)
	}
	return u, nil
}

func (f *fakeUserRepo) GetByEmail(context.Context, string) (*model.User, error) {
	return nil, apperrors.NotFound("user", nil)
}

func (f *fakeUserRepo) Update(context.Context, *model.User) error { return nil }

func (f *fakeUserRepo) List(context.Context) ([]*model.User, error) { return nil, nil }

type fakeCatalog struct {
	services map[uuid.UUID]*model.Service
}

func (f *fakeCatalog) Get(_ context.Context, id uuid.UUID) (*model.Service, error) {
	svc, ok := f.services[id]
	if !ok {
		return nil, apperrors.NotFound("service", nil)
	}
	return svc, nil
}

func (f *fakeCatalog) List(context.Context, bool) ([]*model.Service, error) { return nil, nil }

func (f *fakeCatalog) Create(context.Context, *model.CreateServiceRequest) (*model.Service, error) {
	return nil, nil
}

func (f *fakeCatalog) Update(context.Context, uuid.UUID, *model.UpdateServiceRequest) (*model.Service, error) {
	return nil, nil
}

func (f *fakeCatalog) Delete(context.Context, uuid.UUID) error { return nil }

type fakeWaitlist struct {
	settled []*model.Appointment
}

func (f *fakeWaitlist) Join(context.Context, uuid.UUID, *model.JoinWaitlistRequest) (*model.WaitlistEntry, error) {
	return nil, nil
}

func (f *fakeWaitlist) List(context.Context, uuid.UUID, bool) ([]*model.WaitlistEntry, error) {
	return nil, nil
}

func (f *fakeWaitlist) Remove(context.Context, uuid.UUID, uuid.UUID, bool) error { return nil }

func (f *fakeWaitlist) Settle(_ context.Context, freed *model.Appointment) error {
	f.settled = append(f.settled, freed)
	return nil
}

type fakeNotifier struct {
	sent []model.TemplateKind
}

func (f *fakeNotifier) Send(_ context.Context, kind model.TemplateKind, _ string, _ map[string]interface{}) error {
	f.sent = append(f.sent, kind)
	return nil
}

type fixture struct {
	svc       *service
	repo      *fakeAppointmentRepo
	users     *fakeUserRepo
	catalog   *fakeCatalog
	waitlist  *fakeWaitlist
	notifier  *fakeNotifier
	serviceID uuid.UUID
	userID    uuid.UUID
	adminID   uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	days, err := model.ParseDaySet("1") // Mondays
	require.NoError(t, err)

	serviceID := uuid.New()
	userID := uuid.New()
	adminID := uuid.New()

	cat := &fakeCatalog{services: map[uuid.UUID]*model.Service{
		serviceID: {
			Base:      model.Base{ID: serviceID},
			Name:      "Color",
			Duration:  60,
			Days:      days,
			StartTime: "09:00",
			EndTime:   "17:00",
			Active:    true,
		},
	}}
	users := &fakeUserRepo{users: map[uuid.UUID]*model.User{
		userID:  {Base: model.Base{ID: userID}, Email: "customer@example.com", Name: "Dana"},
		adminID: {Base: model.Base{ID: adminID}, Email: "admin@example.com", Name: "Avi", Role: model.RoleAdmin},
	}}
	repo := newFakeAppointmentRepo()
	wl := &fakeWaitlist{}
	notifier := &fakeNotifier{}
	logger := zerolog.Nop()

	svc := NewService(repo, users, cat, wl, notifier, &logger, 90).(*service)
	// Frozen clock: Monday morning before opening.
	svc.now = func() time.Time { return time.Date(2026, 9, 7, 8, 0, 0, 0, time.Local) }

	return &fixture{
		svc:       svc,
		repo:      repo,
		users:     users,
		catalog:   cat,
		waitlist:  wl,
		notifier:  notifier,
		serviceID: serviceID,
		userID:    userID,
		adminID:   adminID,
	}
}

func (f *fixture) customer() *model.TokenClaims {
	return &model.TokenClaims{UserID: f.userID, Role: model.RoleUser}
}

func (f *fixture) admin() *model.TokenClaims {
	return &model.TokenClaims{UserID: f.adminID, Role: model.RoleAdmin}
}

func TestCreate_CustomerBooking(t *testing.T) {
	f := newFixture(t)

	apt, err := f.svc.Create(context.Background(), &model.CreateAppointmentRequest{
		ServiceID: f.serviceID,
		Date:      "2026-09-07",
		Time:      "10:00",
	}, f.customer())
	require.NoError(t, err)

	assert.Equal(t, model.AppointmentStatusPending, apt.Status)
	assert.Equal(t, f.userID, apt.UserID)
	assert.Equal(t, 60*time.Minute, apt.EndDate.Sub(apt.Date))
	assert.Equal(t, []model.TemplateKind{model.TemplateAppointmentCreated}, f.notifier.sent)
}

func TestCreate_AdminBookingIsConfirmed(t *testing.T) {
	f := newFixture(t)

	apt, err := f.svc.Create(context.Background(), &model.CreateAppointmentRequest{
		ServiceID: f.serviceID,
		Date:      "2026-09-07",
		Time:      "10:00",
		UserID:    f.userID,
	}, f.admin())
	require.NoError(t, err)

	assert.Equal(t, model.AppointmentStatusConfirmed, apt.Status)
	assert.Equal(t, f.userID, apt.UserID)
}

func TestCreate_SlotTaken(t *testing.T) {
	f := newFixture(t)
	f.repo.bookConflict = true

	_, err := f.svc.Create(context.Background(), &model.CreateAppointmentRequest{
		ServiceID: f.serviceID,
		Date:      "2026-09-07",
		Time:      "10:00",
	}, f.customer())
	assert.ErrorIs(t, err, ErrSlotTaken)
	assert.Empty(t, f.notifier.sent)
}

func TestCreate_RejectsInvalidSlots(t *testing.T) {
	f := newFixture(t)

	cases := []struct {
		name string
		date string
		time string
	}{
		{"past", "2026-09-07", "07:00"},
		{"off day", "2026-09-08", "10:00"},
		{"off grid", "2026-09-07", "10:15"},
		{"outside window", "2026-09-07", "16:30"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Create(context.Background(), &model.CreateAppointmentRequest{
				ServiceID: f.serviceID,
				Date:      tc.date,
				Time:      tc.time,
			}, f.customer())
			require.Error(t, err)

			var appErr *apperrors.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, 400, appErr.Status)
		})
	}
}

func TestCancel_SoftCancelTriggersSettlement(t *testing.T) {
	f := newFixture(t)

	apt, err := f.svc.Create(context.Background(), &model.CreateAppointmentRequest{
		ServiceID: f.serviceID,
		Date:      "2026-09-07",
		Time:      "10:00",
	}, f.customer())
	require.NoError(t, err)

	require.NoError(t, f.svc.Cancel(context.Background(), apt.ID, f.customer()))

	stored := f.repo.appointments[apt.ID]
	assert.Equal(t, model.AppointmentStatusCancelled, stored.Status)

	require.Len(t, f.waitlist.settled, 1)
	assert.Equal(t, apt.ID, f.waitlist.settled[0].ID)
	assert.Contains(t, f.notifier.sent, model.TemplateAppointmentCancelled)
}

func TestCancel_AlreadyClosed(t *testing.T) {
	f := newFixture(t)

	apt, err := f.svc.Create(context.Background(), &model.CreateAppointmentRequest{
		ServiceID: f.serviceID,
		Date:      "2026-09-07",
		Time:      "10:00",
	}, f.customer())
	require.NoError(t, err)
	require.NoError(t, f.svc.Cancel(context.Background(), apt.ID, f.customer()))

	err = f.svc.Cancel(context.Background(), apt.ID, f.customer())
	assert.Error(t, err)
	// Settlement ran exactly once.
	assert.Len(t, f.waitlist.settled, 1)
}

func TestGet_HidesOtherCustomersBookings(t *testing.T) {
	f := newFixture(t)

	apt, err := f.svc.Create(context.Background(), &model.CreateAppointmentRequest{
		ServiceID: f.serviceID,
		Date:      "2026-09-07",
		Time:      "10:00",
	}, f.customer())
	require.NoError(t, err)

	stranger := &model.TokenClaims{UserID: uuid.New(), Role: model.RoleUser}
	_, err = f.svc.Get(context.Background(), apt.ID, stranger)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 404, appErr.Status)

	// The admin still sees it.
	got, err := f.svc.Get(context.Background(), apt.ID, f.admin())
	require.NoError(t, err)
	assert.Equal(t, apt.ID, got.ID)
}

func TestUpdate_RescheduleConflict(t *testing.T) {
	f := newFixture(t)

	apt, err := f.svc.Create(context.Background(), &model.CreateAppointmentRequest{
		ServiceID: f.serviceID,
		Date:      "2026-09-07",
		Time:      "10:00",
	}, f.customer())
	require.NoError(t, err)

	f.repo.rescheduleConflict = true
	date := "2026-09-07"
	clock := "11:00"
	_, err = f.svc.Update(context.Background(), apt.ID, &model.UpdateAppointmentRequest{
		Date: &date,
		Time: &clock,
	}, f.customer())
	assert.ErrorIs(t, err, ErrSlotTaken)
}

func TestUpdate_Reschedule(t *testing.T) {
	f := newFixture(t)

	apt, err := f.svc.Create(context.Background(), &model.CreateAppointmentRequest{
		ServiceID: f.serviceID,
		Date:      "2026-09-07",
		Time:      "10:00",
	}, f.customer())
	require.NoError(t, err)

	date := "2026-09-07"
	clock := "13:00"
	updated, err := f.svc.Update(context.Background(), apt.ID, &model.UpdateAppointmentRequest{
		Date: &date,
		Time: &clock,
	}, f.customer())
	require.NoError(t, err)

	assert.Equal(t, "13:00", updated.Date.Format("15:04"))
	assert.Equal(t, "14:00", updated.EndDate.Format("15:04"))
}

func TestUpdate_CancelViaStatus(t *testing.T) {
	f := newFixture(t)

	apt, err := f.svc.Create(context.Background(), &model.CreateAppointmentRequest{
		ServiceID: f.serviceID,
		Date:      "2026-09-07",
		Time:      "10:00",
	}, f.customer())
	require.NoError(t, err)

	cancelled := model.AppointmentStatusCancelled
	_, err = f.svc.Update(context.Background(), apt.ID, &model.UpdateAppointmentRequest{
		Status: &cancelled,
	}, f.customer())
	require.NoError(t, err)

	assert.Equal(t, model.AppointmentStatusCancelled, f.repo.appointments[apt.ID].Status)
	assert.Len(t, f.waitlist.settled, 1)
}

func TestDelete_SettlesBeforeRemoving(t *testing.T) {
	f := newFixture(t)

	apt, err := f.svc.Create(context.Background(), &model.CreateAppointmentRequest{
		ServiceID: f.serviceID,
		Date:      "2026-09-07",
		Time:      "10:00",
	}, f.customer())
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(context.Background(), apt.ID))
	assert.Len(t, f.waitlist.settled, 1)
	assert.Equal(t, []uuid.UUID{apt.ID}, f.repo.deleted)
}

func TestAvailableSlots_ReflectsBookings(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), &model.CreateAppointmentRequest{
		ServiceID: f.serviceID,
		Date:      "2026-09-07",
		Time:      "09:00",
	}, f.customer())
	require.NoError(t, err)

	slots, err := f.svc.AvailableSlots(context.Background(), f.serviceID, "2026-09-07")
	require.NoError(t, err)

	assert.NotContains(t, slots, "09:00")
	assert.NotContains(t, slots, "09:30")
	assert.Contains(t, slots, "10:00")
}

func TestNextAvailable_SkipsToday(t *testing.T) {
	f := newFixture(t)

	slot, err := f.svc.NextAvailable(context.Background(), f.serviceID)
	require.NoError(t, err)

	// Today (Monday) is wide open but the search starts tomorrow; the next
	// Monday is the first operating day.
	assert.Equal(t, "2026-09-14", slot.Date)
	assert.Equal(t, "09:00", slot.Time)
}
