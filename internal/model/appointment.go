package model

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "PENDING"
	AppointmentStatusConfirmed AppointmentStatus = "CONFIRMED"
	AppointmentStatusCancelled AppointmentStatus = "CANCELLED"
	AppointmentStatusCompleted AppointmentStatus = "COMPLETED"
)

// Blocks reports whether an appointment in this status occupies calendar
// time. Cancelled and completed appointments never conflict with new
// bookings.
func (s AppointmentStatus) Blocks() bool {
	return s == AppointmentStatusPending || s == AppointmentStatusConfirmed
}

// Appointment occupies [Date, EndDate) on the single shared calendar.
// EndDate is denormalized at creation (Date + service duration) and is never
// recomputed, so later edits to a service's duration leave history intact.
type Appointment struct {
	Base
	UserID          uuid.UUID         `db:"user_id" json:"user_id"`
	ServiceID       uuid.UUID         `db:"service_id" json:"service_id"`
	Date            time.Time         `db:"date" json:"date"`
	EndDate         time.Time         `db:"end_date" json:"end_date"`
	Status          AppointmentStatus `db:"status" json:"status"`
	Notes           string            `db:"notes" json:"notes,omitempty"`
	ReminderSent    bool              `db:"reminder_sent" json:"-"`
	WaitlistSettled bool              `db:"waitlist_settled" json:"-"`
}

type CreateAppointmentRequest struct {
	ServiceID uuid.UUID `json:"service_id" binding:"required"`
	Date      string    `json:"date" binding:"required"` // YYYY-MM-DD
	Time      string    `json:"time" binding:"required,hhmm"` // HH:MM
	Notes     string    `json:"notes" binding:"max=1000"`
	UserID    uuid.UUID `json:"user_id"` // admin booking on behalf of a customer
}

type UpdateAppointmentRequest struct {
	Date   *string            `json:"date"`
	Time   *string            `json:"time"`
	Status *AppointmentStatus `json:"status"`
	Notes  *string            `json:"notes"`
}

type AppointmentFilters struct {
	UserID    uuid.UUID
	ServiceID uuid.UUID
	Day       time.Time // zero value means no day filter
	Statuses  []AppointmentStatus
}

// NextAvailableSlot is the result of the forward availability search.
type NextAvailableSlot struct {
	Date string `json:"date"` // YYYY-MM-DD
	Time string `json:"time"` // HH:MM
}
