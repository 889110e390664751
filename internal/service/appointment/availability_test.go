package appointment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avitalak/salon-api/internal/model"
)

// 2026-09-07 is a Monday.
var monday = time.Date(2026, 9, 7, 0, 0, 0, 0, time.Local)

func mondayService(t *testing.T, duration int, start, end string) *model.Service {
	t.Helper()
	days, err := model.ParseDaySet("1")
	require.NoError(t, err)
	return &model.Service{
		Name:      "Color",
		Duration:  duration,
		Days:      days,
		StartTime: start,
		EndTime:   end,
		Active:    true,
	}
}

func booked(t *testing.T, start, end string) *model.Appointment {
	t.Helper()
	return &model.Appointment{
		Date:    at(t, start),
		EndDate: at(t, end),
		Status:  model.AppointmentStatusConfirmed,
	}
}

func TestListFreeSlots_EmptyCalendar(t *testing.T) {
	svc := mondayService(t, 60, "09:00", "11:00")
	now := monday.AddDate(0, 0, -1)

	slots, err := ListFreeSlots(svc, monday, nil, now)
	require.NoError(t, err)

	// A 60-minute service in a 09:00-11:00 window: the last start that still
	// fits is 10:00.
	assert.Equal(t, []string{"09:00", "09:30", "10:00"}, slots)
}

func TestListFreeSlots_BookedTicksExcluded(t *testing.T) {
	svc := mondayService(t, 60, "09:00", "11:00")
	now := monday.AddDate(0, 0, -1)
	existing := []*model.Appointment{booked(t, "09:30", "10:00")}

	slots, err := ListFreeSlots(svc, monday, existing, now)
	require.NoError(t, err)

	// 09:00 and 09:30 both need the occupied 09:30 tick; only 10:00 is left.
	assert.Equal(t, []string{"10:00"}, slots)
}

func TestListFreeSlots_CancelledNeverBlocks(t *testing.T) {
	svc := mondayService(t, 60, "09:00", "11:00")
	now := monday.AddDate(0, 0, -1)
	existing := []*model.Appointment{
		{Date: at(t, "09:00"), EndDate: at(t, "11:00"), Status: model.AppointmentStatusCancelled},
	}

	slots, err := ListFreeSlots(svc, monday, existing, now)
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00", "09:30", "10:00"}, slots)
}

func TestListFreeSlots_BackToBack(t *testing.T) {
	svc := mondayService(t, 30, "09:00", "10:30")
	now := monday.AddDate(0, 0, -1)
	existing := []*model.Appointment{booked(t, "09:30", "10:00")}

	slots, err := ListFreeSlots(svc, monday, existing, now)
	require.NoError(t, err)

	// A booking ending 10:00 does not block a slot starting 10:00.
	assert.Equal(t, []string{"09:00", "10:00"}, slots)
}

func TestListFreeSlots_OffDay(t *testing.T) {
	svc := mondayService(t, 30, "09:00", "17:00")
	tuesday := monday.AddDate(0, 0, 1)

	slots, err := ListFreeSlots(svc, tuesday, nil, monday)
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestListFreeSlots_TodayPastSlotsExcluded(t *testing.T) {
	svc := mondayService(t, 30, "09:00", "11:00")
	now := at(t, "09:45")

	slots, err := ListFreeSlots(svc, monday, nil, now)
	require.NoError(t, err)

	// 09:00 and 09:30 have already started; 09:45 excludes them but not
	// 10:00 and 10:30.
	assert.Equal(t, []string{"10:00", "10:30"}, slots)
}

func TestListFreeSlots_LongServiceNeedsConsecutiveTicks(t *testing.T) {
	svc := mondayService(t, 90, "09:00", "12:00")
	now := monday.AddDate(0, 0, -1)
	existing := []*model.Appointment{booked(t, "10:00", "10:30")}

	slots, err := ListFreeSlots(svc, monday, existing, now)
	require.NoError(t, err)

	// 90 minutes spans three ticks. Starts at 09:00, 09:30 and 10:00 all
	// touch the occupied 10:00 tick; 10:30 is the first viable start.
	assert.Equal(t, []string{"10:30"}, slots)
}

func TestFindNextAvailable_FirstFreeDay(t *testing.T) {
	svc := mondayService(t, 60, "09:00", "11:00")
	now := monday.AddDate(0, 0, -3)
	searchStart := monday

	// Monday fully booked; the following Monday is open.
	existing := []*model.Appointment{booked(t, "09:00", "11:00")}

	slot, err := FindNextAvailable(svc, searchStart, 14, existing, now)
	require.NoError(t, err)
	assert.Equal(t, monday.AddDate(0, 0, 7).Format("2006-01-02"), slot.Date)
	assert.Equal(t, "09:00", slot.Time)
}

func TestFindNextAvailable_SkipsOffDays(t *testing.T) {
	svc := mondayService(t, 30, "09:00", "10:00")
	now := monday.AddDate(0, 0, -3)

	// Search starts Tuesday; the service only runs Mondays.
	slot, err := FindNextAvailable(svc, monday.AddDate(0, 0, 1), 14, nil, now)
	require.NoError(t, err)
	assert.Equal(t, monday.AddDate(0, 0, 7).Format("2006-01-02"), slot.Date)
}

func TestFindNextAvailable_HorizonExhausted(t *testing.T) {
	svc := mondayService(t, 30, "09:00", "10:00")
	now := monday.AddDate(0, 0, -3)

	// A 6-day horizon starting Tuesday never reaches the next Monday.
	_, err := FindNextAvailable(svc, monday.AddDate(0, 0, 1), 6, nil, now)
	assert.ErrorIs(t, err, ErrNoAvailability)
}
