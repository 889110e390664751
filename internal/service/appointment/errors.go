package appointment

import "errors"

var (
	// ErrInvalidInterval means a candidate time range ends at or before it
	// starts. Programmer or input error; never silently corrected.
	ErrInvalidInterval = errors.New("invalid interval: end must be after start")

	// ErrSlotTaken means the requested slot overlaps an existing booking.
	// Callers typically offer an alternative slot or the waitlist.
	ErrSlotTaken = errors.New("time slot is already taken")

	// ErrNoAvailability means the forward search exhausted its horizon
	// without finding a free slot.
	ErrNoAvailability = errors.New("no free slot within the search horizon")
)
