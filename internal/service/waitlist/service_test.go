package waitlist

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

type fakeWaitlistRepo struct {
	entries     []*model.WaitlistEntry
	existing    bool
	settleEntry *model.WaitlistEntry
	settleCalls []settleCall
	deactivated []uuid.UUID
}

type settleCall struct {
	appointmentID uuid.UUID
	serviceID     uuid.UUID
	day           time.Time
	timeSlot      string
}

func (f *fakeWaitlistRepo) Create(_ context.Context, entry *model.WaitlistEntry) error {
	entry.ID = uuid.New()
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeWaitlistRepo) ExistsActive(context.Context, uuid.UUID, uuid.UUID, time.Time, string) (bool, error) {
	return f.existing, nil
}

func (f *fakeWaitlistRepo) List(context.Context, uuid.UUID) ([]*model.WaitlistEntry, error) {
	return f.entries, nil
}

func (f *fakeWaitlistRepo) Deactivate(_ context.Context, id, _ uuid.UUID) error {
	f.deactivated = append(f.deactivated, id)
	return nil
}

func (f *fakeWaitlistRepo) Settle(_ context.Context, appointmentID, serviceID uuid.UUID, day time.Time, timeSlot string) (*model.WaitlistEntry, error) {
	f.settleCalls = append(f.settleCalls, settleCall{appointmentID, serviceID, day, timeSlot})
	return f.settleEntry, nil
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

func (f *fakeUserRepo) List(context.Context) ([]*model.User, error) { return nil, nil }

type fakeServiceRepo struct {
	service *model.Service
}

func (f *fakeServiceRepo) Create(context.Context, *model.Service) error { return nil }

func (f *fakeServiceRepo) Get(context.Context, uuid.UUID) (*model.Service, error) {
	if f.service == nil {
		return nil, apperrors.NotFound("service", nil)
	}
	return f.service, nil
}

func (f *fakeServiceRepo) Update(context.Context, *model.Service) error { return nil }

func (f *fakeServiceRepo) Delete(context.Context, uuid.UUID) error { return nil }

func (f *fakeServiceRepo) List(context.Context, bool) ([]*model.Service, error) { return nil, nil }

func (f *fakeServiceRepo) CountAppointments(context.Context, uuid.UUID) (int, error) { return 0, nil }

type fakeNotifier struct {
	sent []model.TemplateKind
}

func (f *fakeNotifier) Send(_ context.Context, kind model.TemplateKind, _ string, _ map[string]interface{}) error {
	f.sent = append(f.sent, kind)
	return nil
}

func newService(repo *fakeWaitlistRepo, services *fakeServiceRepo, notifier *fakeNotifier) Service {
	users := &fakeUserRepo{user: &model.User{
		Base:  model.Base{ID: uuid.New()},
		Email: "dana@example.com",
		Name:  "Dana",
	}}
	logger := zerolog.Nop()
	return NewService(repo, users, services, notifier, &logger)
}

func testServiceRepo() *fakeServiceRepo {
	return &fakeServiceRepo{service: &model.Service{
		Base: model.Base{ID: uuid.New()},
		Name: "Color",
	}}
}

func TestJoin_DefaultsToAnySlot(t *testing.T) {
	repo := &fakeWaitlistRepo{}
	svc := newService(repo, testServiceRepo(), &fakeNotifier{})

	entry, err := svc.Join(context.Background(), uuid.New(), &model.JoinWaitlistRequest{
		ServiceID: uuid.New(),
		Date:      "2026-09-07",
	})
	require.NoError(t, err)
	assert.Equal(t, model.AnyTimeSlot, entry.TimeSlot)
	assert.True(t, entry.Active)
}

func TestJoin_RejectsInvalidTimeSlot(t *testing.T) {
	repo := &fakeWaitlistRepo{}
	svc := newService(repo, testServiceRepo(), &fakeNotifier{})

	_, err := svc.Join(context.Background(), uuid.New(), &model.JoinWaitlistRequest{
		ServiceID: uuid.New(),
		Date:      "2026-09-07",
		TimeSlot:  "25:00",
	})
	assert.Error(t, err)
	assert.Empty(t, repo.entries)
}

func TestJoin_DuplicateEntry(t *testing.T) {
	repo := &fakeWaitlistRepo{existing: true}
	svc := newService(repo, testServiceRepo(), &fakeNotifier{})

	_, err := svc.Join(context.Background(), uuid.New(), &model.JoinWaitlistRequest{
		ServiceID: uuid.New(),
		Date:      "2026-09-07",
		TimeSlot:  "10:00",
	})
	assert.ErrorIs(t, err, ErrDuplicateEntry)
}

func TestSettle_NotifiesMatchedEntry(t *testing.T) {
	entry := &model.WaitlistEntry{
		Base:      model.Base{ID: uuid.New()},
		UserID:    uuid.New(),
		ServiceID: uuid.New(),
		TimeSlot:  "10:00",
	}
	repo := &fakeWaitlistRepo{settleEntry: entry}
	notifier := &fakeNotifier{}
	svc := newService(repo, testServiceRepo(), notifier)

	freed := &model.Appointment{
		Base:      model.Base{ID: uuid.New()},
		ServiceID: entry.ServiceID,
		Date:      time.Date(2026, 9, 7, 10, 0, 0, 0, time.Local),
	}
	require.NoError(t, svc.Settle(context.Background(), freed))

	require.Len(t, repo.settleCalls, 1)
	call := repo.settleCalls[0]
	assert.Equal(t, freed.ID, call.appointmentID)
	assert.Equal(t, freed.ServiceID, call.serviceID)
	assert.Equal(t, "10:00", call.timeSlot)
	assert.Equal(t, time.Date(2026, 9, 7, 0, 0, 0, 0, time.Local), call.day)

	assert.Equal(t, []model.TemplateKind{model.TemplateWaitlistFreed}, notifier.sent)
}

func TestSettle_NobodyWaiting(t *testing.T) {
	repo := &fakeWaitlistRepo{settleEntry: nil}
	notifier := &fakeNotifier{}
	svc := newService(repo, testServiceRepo(), notifier)

	freed := &model.Appointment{
		Base:      model.Base{ID: uuid.New()},
		ServiceID: uuid.New(),
		Date:      time.Date(2026, 9, 7, 10, 0, 0, 0, time.Local),
	}
	require.NoError(t, svc.Settle(context.Background(), freed))
	assert.Empty(t, notifier.sent)
}
