package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/avitalak/salon-api/internal/model"
)

func (r *waitlistRepository) Create(ctx context.Context, entry *model.WaitlistEntry) error {
	entry.ID = uuid.New()
	entry.CreatedAt = time.Now()
	entry.UpdatedAt = entry.CreatedAt

	query := `
		INSERT INTO waitlist_entries (
			id, user_id, service_id, day, time_slot, notified, active,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, false, true, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query,
		entry.ID,
		entry.UserID,
		entry.ServiceID,
		entry.Day,
		entry.TimeSlot,
		entry.CreatedAt,
		entry.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create waitlist entry: %w", err)
	}
	return nil
}

func (r *waitlistRepository) ExistsActive(ctx context.Context, userID, serviceID uuid.UUID, day time.Time, timeSlot string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM waitlist_entries
			WHERE user_id = $1
			AND service_id = $2
			AND day = $3
			AND time_slot = $4
			AND active
			AND NOT notified
		)
	`
	var exists bool
	err := r.db.GetContext(ctx, &exists, query, userID, serviceID, day, timeSlot)
	if err != nil {
		return false, fmt.Errorf("failed to check waitlist entry: %w", err)
	}
	return exists, nil
}

func (r *waitlistRepository) List(ctx context.Context, userID uuid.UUID) ([]*model.WaitlistEntry, error) {
	query := `
		SELECT id, user_id, service_id, day, time_slot, notified, active,
			   created_at, updated_at
		FROM waitlist_entries
		WHERE active
		AND ($1 = '00000000-0000-0000-0000-000000000000'::uuid OR user_id = $1)
		ORDER BY created_at ASC
	`
	var entries []*model.WaitlistEntry
	err := r.db.SelectContext(ctx, &entries, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list waitlist entries: %w", err)
	}
	return entries, nil
}

func (r *waitlistRepository) Deactivate(ctx context.Context, id, ownerID uuid.UUID) error {
	query := `
		UPDATE waitlist_entries
		SET active = false, updated_at = $1
		WHERE id = $2
		AND ($3 = '00000000-0000-0000-0000-000000000000'::uuid OR user_id = $3)
	`
	result, err := r.db.ExecContext(ctx, query, time.Now(), id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to deactivate waitlist entry: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("waitlist entry not found")
	}
	return nil
}

// Settle runs the whole settlement as one transaction: claim the freed
// appointment so a second settle for it is a no-op, pick the oldest eligible
// entry, mark it notified. FOR UPDATE SKIP LOCKED keeps two concurrent
// cancellations from racing onto the same entry.
func (r *waitlistRepository) Settle(ctx context.Context, appointmentID, serviceID uuid.UUID, day time.Time, timeSlot string) (*model.WaitlistEntry, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var claimed uuid.UUID
	err = tx.GetContext(ctx, &claimed, `
		UPDATE appointments
		SET waitlist_settled = true, updated_at = $1
		WHERE id = $2 AND NOT waitlist_settled
		RETURNING id
	`, time.Now(), appointmentID)
	if errors.Is(err, sql.ErrNoRows) {
		// Already settled by an earlier cancellation of this appointment.
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to claim freed appointment: %w", err)
	}

	var entry model.WaitlistEntry
	err = tx.GetContext(ctx, &entry, `
		SELECT id, user_id, service_id, day, time_slot, notified, active,
			   created_at, updated_at
		FROM waitlist_entries
		WHERE service_id = $1
		AND day = $2
		AND time_slot IN ($3, $4)
		AND active
		AND NOT notified
		ORDER BY created_at ASC
		LIMIT 1
		FOR UPDATE SKIP LOCKED
	`, serviceID, day, timeSlot, model.AnyTimeSlot)
	if errors.Is(err, sql.ErrNoRows) {
		// Nobody is waiting; commit so the claim sticks.
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("failed to commit settlement: %w", err)
		}
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select waitlist entry: %w", err)
	}

	entry.Notified = true
	entry.UpdatedAt = time.Now()
	if _, err := tx.ExecContext(ctx,
		"UPDATE waitlist_entries SET notified = true, updated_at = $1 WHERE id = $2",
		entry.UpdatedAt, entry.ID); err != nil {
		return nil, fmt.Errorf("failed to mark waitlist entry notified: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit settlement: %w", err)
	}
	return &entry, nil
}
