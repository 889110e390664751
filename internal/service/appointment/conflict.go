package appointment

import (
	"time"

	"github.com/avitalak/salon-api/internal/model"
)

// Overlaps is the canonical half-open interval test: [s1,e1) and [s2,e2)
// intersect iff s1 < e2 && s2 < e1. Back-to-back intervals (e1 == s2) do
// not overlap, so an appointment ending 10:00 never blocks one starting
// 10:00. blockingOverlapSQL in internal/repository/postgres/appointment.go
// applies the same test inside the booking transaction; keep the two in
// sync.
func Overlaps(s1, e1, s2, e2 time.Time) bool {
	return s1.Before(e2) && s2.Before(e1)
}

// HasConflict reports whether the candidate [start, end) collides with any
// appointment that still blocks calendar time. Cancelled and completed
// appointments are skipped. The salon runs one practitioner, so callers pass
// appointments across all services.
func HasConflict(start, end time.Time, existing []*model.Appointment) (bool, error) {
	if !end.After(start) {
		return false, ErrInvalidInterval
	}
	for _, apt := range existing {
		if !apt.Status.Blocks() {
			continue
		}
		if Overlaps(start, end, apt.Date, apt.EndDate) {
			return true, nil
		}
	}
	return false, nil
}
