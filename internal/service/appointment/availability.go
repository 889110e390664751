package appointment

import (
	"fmt"
	"time"

	"github.com/avitalak/salon-api/internal/model"
)

// SlotInterval is the calendar tick size. Every bookable start time sits on
// a 30-minute boundary and longer services consume consecutive ticks.
const SlotInterval = 30 * time.Minute

const slotMinutes = 30

// ListFreeSlots enumerates the bookable start times ("HH:MM") for svc on the
// given day. A slot is free when every 30-minute tick the service would span
// is unoccupied, the whole service fits inside the working window, and the
// start is strictly after now when day is today. Days the service does not
// operate yield an empty list, never an error.
func ListFreeSlots(svc *model.Service, day time.Time, existing []*model.Appointment, now time.Time) ([]string, error) {
	slots := []string{}
	if !svc.Days.Contains(day.Weekday()) {
		return slots, nil
	}

	windowStart, err := model.MinutesOfDay(svc.StartTime)
	if err != nil {
		return nil, fmt.Errorf("invalid service start time %q: %w", svc.StartTime, err)
	}
	windowEnd, err := model.MinutesOfDay(svc.EndTime)
	if err != nil {
		return nil, fmt.Errorf("invalid service end time %q: %w", svc.EndTime, err)
	}
	if windowEnd <= windowStart {
		return nil, fmt.Errorf("service window %s-%s is empty: %w", svc.StartTime, svc.EndTime, ErrInvalidInterval)
	}

	occupied := occupiedTicks(day, existing)
	required := (svc.Duration + slotMinutes - 1) / slotMinutes
	today := sameDay(day, now)

	for start := windowStart; start+svc.Duration <= windowEnd; start += slotMinutes {
		if today && !minuteOfDay(day, start).After(now) {
			continue
		}
		free := true
		for i := 0; i < required; i++ {
			if _, taken := occupied[start+i*slotMinutes]; taken {
				free = false
				break
			}
		}
		if free {
			slots = append(slots, clockString(start))
		}
	}
	return slots, nil
}

// FindNextAvailable walks day by day from searchStart and returns the first
// day offering at least one free slot, together with that day's earliest
// slot. The scan gives up after horizonDays and returns ErrNoAvailability.
func FindNextAvailable(svc *model.Service, searchStart time.Time, horizonDays int, existing []*model.Appointment, now time.Time) (*model.NextAvailableSlot, error) {
	first := startOfDay(searchStart)
	for offset := 0; offset < horizonDays; offset++ {
		day := first.AddDate(0, 0, offset)
		if !svc.Days.Contains(day.Weekday()) {
			continue
		}
		slots, err := ListFreeSlots(svc, day, existing, now)
		if err != nil {
			return nil, err
		}
		if len(slots) > 0 {
			return &model.NextAvailableSlot{
				Date: day.Format("2006-01-02"),
				Time: slots[0],
			}, nil
		}
	}
	return nil, ErrNoAvailability
}

// occupiedTicks marks every 30-minute tick on day covered by a blocking
// appointment, keyed by minute of day. Appointments from neighboring days
// contribute nothing.
func occupiedTicks(day time.Time, existing []*model.Appointment) map[int]struct{} {
	dayStart := startOfDay(day)
	dayEnd := dayStart.AddDate(0, 0, 1)

	ticks := make(map[int]struct{})
	for _, apt := range existing {
		if !apt.Status.Blocks() {
			continue
		}
		for t := apt.Date; t.Before(apt.EndDate); t = t.Add(SlotInterval) {
			if t.Before(dayStart) || !t.Before(dayEnd) {
				continue
			}
			ticks[t.Hour()*60+t.Minute()] = struct{}{}
		}
	}
	return ticks
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func minuteOfDay(day time.Time, minutes int) time.Time {
	return startOfDay(day).Add(time.Duration(minutes) * time.Minute)
}

func clockString(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
