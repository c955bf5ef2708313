package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"helmsman/internal/calendar"
	"helmsman/internal/domain"
	"helmsman/internal/models"
)

const reservationColumns = `id, captain_id, vessel_id, offering_id, scheduled_start, scheduled_end,
	party_size, status, payment_status, guest_name, guest_contact, hold_reason,
	original_date, manual_override, created_at, updated_at, version`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanReservation(row rowScanner) (*models.Reservation, error) {
	r := &models.Reservation{}
	var originalDate sql.NullTime
	err := row.Scan(
		&r.ID, &r.CaptainID, &r.VesselID, &r.OfferingID, &r.ScheduledStart, &r.ScheduledEnd,
		&r.PartySize, &r.Status, &r.PaymentStatus, &r.GuestName, &r.GuestContact, &r.HoldReason,
		&originalDate, &r.ManualOverride, &r.CreatedAt, &r.UpdatedAt, &r.Version,
	)
	if err != nil {
		return nil, err
	}
	if originalDate.Valid {
		t := originalDate.Time
		r.OriginalDate = &t
	}
	return r, nil
}

// nonTerminalIn renders the status filter shared by every capacity query.
func nonTerminalIn() (string, []interface{}) {
	statuses := models.NonTerminalStatuses()
	placeholders := make([]string, len(statuses))
	args := make([]interface{}, len(statuses))
	for i, s := range statuses {
		placeholders[i] = "?"
		args[i] = string(s)
	}
	return "(" + strings.Join(placeholders, ", ") + ")", args
}

func (db *DB) GetReservation(ctx context.Context, id string) (*models.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = ?`
	r, err := scanReservation(db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.NotFoundError{Kind: "reservation", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reservation: %w", err)
	}
	return r, nil
}

type execQuerier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// checkSlotTx re-runs the capacity and buffer checks against live rows. It is
// called inside write transactions so that no reservation commits on the back
// of a stale advisory read. Overlapping trips share the vessel up to its
// capacity; non-overlapping neighbors closer than the buffer are rejected.
func checkSlotTx(ctx context.Context, q execQuerier, vesselID string, start, end time.Time, partySize int, buffer time.Duration, excludeID string) error {
	var capacity int
	err := q.QueryRowContext(ctx, `SELECT capacity FROM vessels WHERE id = ?`, vesselID).Scan(&capacity)
	if errors.Is(err, sql.ErrNoRows) {
		return &domain.NotFoundError{Kind: "vessel", ID: vesselID}
	}
	if err != nil {
		return fmt.Errorf("failed to load vessel capacity: %w", err)
	}

	in, inArgs := nonTerminalIn()
	query := `SELECT ` + reservationColumns + ` FROM reservations
	          WHERE vessel_id = ? AND id != ? AND status IN ` + in + `
	          AND scheduled_start < ? AND scheduled_end > ?`
	args := append([]interface{}{vesselID, excludeID}, inArgs...)
	args = append(args, utc(end.Add(buffer)), utc(start.Add(-buffer)))

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to query neighboring reservations: %w", err)
	}
	defer rows.Close()

	booked := 0
	var bufferViolations []string
	for rows.Next() {
		ex, err := scanReservation(rows)
		if err != nil {
			return fmt.Errorf("failed to scan reservation: %w", err)
		}
		if calendar.Overlaps(start, end, ex.ScheduledStart, ex.ScheduledEnd) {
			booked += ex.PartySize
		} else {
			// Попал в расширенный диапазон, но не пересекается — значит зазор меньше буфера
			bufferViolations = append(bufferViolations, ex.ID)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate neighboring reservations: %w", err)
	}

	if booked+partySize > capacity {
		remaining := capacity - booked
		if remaining < 0 {
			remaining = 0
		}
		return &domain.CapacityError{Requested: partySize, Remaining: remaining}
	}
	if len(bufferViolations) > 0 {
		return &domain.ConflictError{Reason: "buffer", Conflicting: bufferViolations}
	}
	return nil
}

// CreateReservationTx inserts a reservation after re-checking capacity and
// buffer inside the same transaction. The caller assigns vessel and interval.
func (db *DB) CreateReservationTx(ctx context.Context, r *models.Reservation, buffer time.Duration) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := checkSlotTx(ctx, tx, r.VesselID, r.ScheduledStart, r.ScheduledEnd, r.PartySize, buffer, r.ID); err != nil {
		return err
	}

	now := time.Now().UTC()
	query := `INSERT INTO reservations (
				id, captain_id, vessel_id, offering_id, scheduled_start, scheduled_end,
				party_size, status, payment_status, guest_name, guest_contact, hold_reason,
				original_date, manual_override, created_at, updated_at, version
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = tx.ExecContext(ctx, query,
		r.ID, r.CaptainID, r.VesselID, r.OfferingID, utc(r.ScheduledStart), utc(r.ScheduledEnd),
		r.PartySize, r.Status, r.PaymentStatus, r.GuestName, r.GuestContact, r.HoldReason,
		utcPtr(r.OriginalDate), r.ManualOverride, now, now, 1,
	)
	if err != nil {
		return fmt.Errorf("failed to insert reservation: %w", err)
	}
	r.CreatedAt = now
	r.UpdatedAt = now
	r.Version = 1

	return tx.Commit()
}

func (db *DB) UpdateReservationStatusWithVersion(ctx context.Context, id string, version int64, status models.Status) error {
	query := `UPDATE reservations SET status = ?, version = version + 1, updated_at = ?
	          WHERE id = ? AND version = ?`
	result, err := db.ExecContext(ctx, query, status, time.Now().UTC(), id, version)
	if err != nil {
		return fmt.Errorf("failed to update reservation status: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrConcurrentModification
	}
	return nil
}

func (db *DB) SetPaymentStatus(ctx context.Context, id, paymentStatus string) error {
	query := `UPDATE reservations SET payment_status = ?, updated_at = ? WHERE id = ?`
	result, err := db.ExecContext(ctx, query, paymentStatus, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to set payment status: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return &domain.NotFoundError{Kind: "reservation", ID: id}
	}
	return nil
}

// ReservationsInRange returns non-terminal reservations on a vessel that
// overlap [from, to). Advisory read for the conflict detector and the
// availability computer.
func (db *DB) ReservationsInRange(ctx context.Context, vesselID string, from, to time.Time, excludeID string) ([]*models.Reservation, error) {
	in, inArgs := nonTerminalIn()
	query := `SELECT ` + reservationColumns + ` FROM reservations
	          WHERE vessel_id = ? AND id != ? AND status IN ` + in + `
	          AND scheduled_start < ? AND scheduled_end > ?
	          ORDER BY scheduled_start ASC`
	args := append([]interface{}{vesselID, excludeID}, inArgs...)
	args = append(args, utc(to), utc(from))
	return db.queryReservations(ctx, query, args...)
}

func (db *DB) CaptainReservationsInRange(ctx context.Context, captainID string, from, to time.Time) ([]*models.Reservation, error) {
	in, inArgs := nonTerminalIn()
	query := `SELECT ` + reservationColumns + ` FROM reservations
	          WHERE captain_id = ? AND status IN ` + in + `
	          AND scheduled_start < ? AND scheduled_end > ?
	          ORDER BY scheduled_start ASC`
	args := append([]interface{}{captainID}, inArgs...)
	args = append(args, utc(to), utc(from))
	return db.queryReservations(ctx, query, args...)
}

// StalePendingDeposits returns reservations still awaiting a deposit that
// were created before the cutoff. The sweeper expires them one by one.
func (db *DB) StalePendingDeposits(ctx context.Context, cutoff time.Time) ([]*models.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations
	          WHERE status = ? AND created_at < ?
	          ORDER BY created_at ASC`
	return db.queryReservations(ctx, query, models.StatusPendingDeposit, utc(cutoff))
}

func (db *DB) DeleteReservation(ctx context.Context, id string) error {
	result, err := db.ExecContext(ctx, `DELETE FROM reservations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete reservation: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return &domain.NotFoundError{Kind: "reservation", ID: id}
	}
	return nil
}

func (db *DB) queryReservations(ctx context.Context, query string, args ...interface{}) ([]*models.Reservation, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reservations: %w", err)
	}
	defer rows.Close()

	var reservations []*models.Reservation
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reservation: %w", err)
		}
		reservations = append(reservations, r)
	}
	return reservations, rows.Err()
}
