package model

import (
	"time"

	"github.com/google/uuid"
)

// AnyTimeSlot is the sentinel stored when a customer will take any time on
// the requested day.
const AnyTimeSlot = "ANY"

// WaitlistEntry is a standing request for a (service, day, time slot). FIFO
// order over CreatedAt decides who is offered a freed slot first. Notified
// entries are never offered a slot again; inactive entries are soft-removed.
type WaitlistEntry struct {
	Base
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	ServiceID uuid.UUID `db:"service_id" json:"service_id"`
	Day       time.Time `db:"day" json:"day"`
	TimeSlot  string    `db:"time_slot" json:"time_slot"` // "HH:MM" or AnyTimeSlot
	Notified  bool      `db:"notified" json:"notified"`
	Active    bool      `db:"active" json:"active"`
}

type JoinWaitlistRequest struct {
	ServiceID uuid.UUID `json:"service_id" binding:"required"`
	Date      string    `json:"date" binding:"required"` // YYYY-MM-DD
	TimeSlot  string    `json:"time_slot"`               // empty means any time that day
}
