package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/avitalak/salon-api/internal/model"
	apperrors "github.com/avitalak/salon-api/pkg/errors"
)

// calendarLockKey serializes conflict-check-and-insert across concurrent
// bookings. Single practitioner, single shared calendar, single advisory
// lock.
const calendarLockKey int64 = 0x73616c6f6e

// blockingOverlapSQL is the canonical half-open interval test: an existing
// appointment [date, end_date) overlaps a candidate [$a, $b) iff
// date < $b AND end_date > $a. Back-to-back appointments do not overlap.
// Overlaps in internal/service/appointment is the same test in Go; keep the
// two in sync.
const blockingOverlapSQL = `
	SELECT EXISTS (
		SELECT 1 FROM appointments
		WHERE status IN ('PENDING', 'CONFIRMED')
		AND date < $2
		AND end_date > $1
`

// dayBounds returns the half-open window covering the calendar day that
// contains t, in t's own location. time.Truncate would round to UTC day
// boundaries and shift the window in any non-UTC deployment.
func dayBounds(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 0, 1)
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	query := `
		SELECT id, user_id, service_id, date, end_date, status, notes,
			   reminder_sent, waitlist_settled, created_at, updated_at
		FROM appointments
		WHERE id = $1
	`
	var appointment model.Appointment
	err := r.db.GetContext(ctx, &appointment, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("appointment", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return &appointment, nil
}

func (r *appointmentRepository) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	query := `
		SELECT id, user_id, service_id, date, end_date, status, notes,
			   reminder_sent, waitlist_settled, created_at, updated_at
		FROM appointments
		WHERE 1 = 1
	`
	args := []interface{}{}
	argCount := 1

	if filters.UserID != uuid.Nil {
		query += fmt.Sprintf(" AND user_id = $%d", argCount)
		args = append(args, filters.UserID)
		argCount++
	}

	if filters.ServiceID != uuid.Nil {
		query += fmt.Sprintf(" AND service_id = $%d", argCount)
		args = append(args, filters.ServiceID)
		argCount++
	}

	if !filters.Day.IsZero() {
		from, to := dayBounds(filters.Day)
		query += fmt.Sprintf(" AND date >= $%d AND date < $%d", argCount, argCount+1)
		args = append(args, from, to)
		argCount += 2
	}

	if len(filters.Statuses) > 0 {
		query += fmt.Sprintf(" AND status = ANY($%d)", argCount)
		statuses := make([]string, len(filters.Statuses))
		for i, s := range filters.Statuses {
			statuses[i] = string(s)
		}
		args = append(args, pq.Array(statuses))
		argCount++
	}

	query += " ORDER BY date ASC"

	var appointments []*model.Appointment
	err := r.db.SelectContext(ctx, &appointments, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) ListBlockingBetween(ctx context.Context, from, to time.Time) ([]*model.Appointment, error) {
	query := `
		SELECT id, user_id, service_id, date, end_date, status, notes,
			   reminder_sent, waitlist_settled, created_at, updated_at
		FROM appointments
		WHERE status IN ('PENDING', 'CONFIRMED')
		AND date < $2
		AND end_date > $1
		ORDER BY date ASC
	`
	var appointments []*model.Appointment
	err := r.db.SelectContext(ctx, &appointments, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list blocking appointments: %w", err)
	}
	return appointments, nil
}

// Book holds the calendar advisory lock for the duration of the transaction
// so that two concurrent bookings cannot both pass the conflict check
// against a stale read.
func (r *appointmentRepository) Book(ctx context.Context, appointment *model.Appointment) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", calendarLockKey); err != nil {
		return false, fmt.Errorf("failed to acquire calendar lock: %w", err)
	}

	var conflict bool
	err = tx.GetContext(ctx, &conflict, blockingOverlapSQL+")", appointment.Date, appointment.EndDate)
	if err != nil {
		return false, fmt.Errorf("failed to check conflicts: %w", err)
	}
	if conflict {
		return true, nil
	}

	appointment.ID = uuid.New()
	appointment.CreatedAt = time.Now()
	appointment.UpdatedAt = time.Now()

	query := `
		INSERT INTO appointments (
			id, user_id, service_id, date, end_date, status, notes,
			reminder_sent, waitlist_settled, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, false, false, $8, $9)
	`
	_, err = tx.ExecContext(ctx, query,
		appointment.ID,
		appointment.UserID,
		appointment.ServiceID,
		appointment.Date,
		appointment.EndDate,
		appointment.Status,
		appointment.Notes,
		appointment.CreatedAt,
		appointment.UpdatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to create appointment: %w", err)
	}

	if err := insertOutboxEvent(ctx, tx, model.EventAppointmentCreated, appointment); err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit booking: %w", err)
	}
	return false, nil
}

func (r *appointmentRepository) Reschedule(ctx context.Context, id uuid.UUID, start, end time.Time) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", calendarLockKey); err != nil {
		return false, fmt.Errorf("failed to acquire calendar lock: %w", err)
	}

	var conflict bool
	err = tx.GetContext(ctx, &conflict, blockingOverlapSQL+" AND id != $3)", start, end, id)
	if err != nil {
		return false, fmt.Errorf("failed to check conflicts: %w", err)
	}
	if conflict {
		return true, nil
	}

	query := `
		UPDATE appointments
		SET date = $1, end_date = $2, updated_at = $3
		WHERE id = $4
	`
	result, err := tx.ExecContext(ctx, query, start, end, time.Now(), id)
	if err != nil {
		return false, fmt.Errorf("failed to reschedule appointment: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return false, fmt.Errorf("appointment not found")
	}

	event := map[string]interface{}{"appointment_id": id, "date": start, "end_date": end}
	if err := insertOutboxEvent(ctx, tx, model.EventAppointmentRescheduled, event); err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit reschedule: %w", err)
	}
	return false, nil
}

func (r *appointmentRepository) Update(ctx context.Context, appointment *model.Appointment) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE appointments
		SET status = $1, notes = $2, updated_at = $3
		WHERE id = $4
	`
	appointment.UpdatedAt = time.Now()

	result, err := tx.ExecContext(ctx, query,
		appointment.Status,
		appointment.Notes,
		appointment.UpdatedAt,
		appointment.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update appointment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("appointment not found")
	}

	if appointment.Status == model.AppointmentStatusCancelled {
		if err := insertOutboxEvent(ctx, tx, model.EventAppointmentCancelled, appointment); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit update: %w", err)
	}
	return nil
}

func (r *appointmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, "DELETE FROM appointments WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete appointment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("appointment not found")
	}

	event := map[string]interface{}{"appointment_id": id}
	if err := insertOutboxEvent(ctx, tx, model.EventAppointmentDeleted, event); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit delete: %w", err)
	}
	return nil
}

func (r *appointmentRepository) ListDueReminders(ctx context.Context, from, to time.Time) ([]*model.Appointment, error) {
	query := `
		SELECT id, user_id, service_id, date, end_date, status, notes,
			   reminder_sent, waitlist_settled, created_at, updated_at
		FROM appointments
		WHERE status = 'CONFIRMED'
		AND NOT reminder_sent
		AND date >= $1
		AND date < $2
		ORDER BY date ASC
	`
	var appointments []*model.Appointment
	err := r.db.SelectContext(ctx, &appointments, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list due reminders: %w", err)
	}
	return appointments, nil
}

// MarkReminderSent is first-wins: the conditional update lets concurrent
// dispatchers race on the same row with only one of them claiming it.
func (r *appointmentRepository) MarkReminderSent(ctx context.Context, id uuid.UUID) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		"UPDATE appointments SET reminder_sent = true, updated_at = $1 WHERE id = $2 AND NOT reminder_sent",
		time.Now(), id)
	if err != nil {
		return false, fmt.Errorf("failed to mark reminder sent: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

func insertOutboxEvent(ctx context.Context, tx *sqlx.Tx, eventType string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal outbox payload: %w", err)
	}

	query := `
		INSERT INTO outbox_events (id, event_type, payload, status, retry_count, created_at)
		VALUES ($1, $2, $3, $4, 0, $5)
	`
	_, err = tx.ExecContext(ctx, query, uuid.New(), eventType, body, model.OutboxStatusPending, time.Now())
	if err != nil {
		return fmt.Errorf("failed to insert outbox event: %w", err)
	}
	return nil
}
