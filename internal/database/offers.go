package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"helmsman/internal/domain"
	"helmsman/internal/models"
)

const offerColumns = `id, reservation_id, proposed_start, proposed_end, selected, expires_at, created_at`

func scanOffer(row rowScanner) (*models.RescheduleOffer, error) {
	o := &models.RescheduleOffer{}
	err := row.Scan(&o.ID, &o.ReservationID, &o.ProposedStart, &o.ProposedEnd, &o.Selected, &o.ExpiresAt, &o.CreatedAt)
	if err != nil {
		return nil, err
	}
	return o, nil
}

func getReservationTx(ctx context.Context, q execQuerier, id string) (*models.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = ?`
	r, err := scanReservation(q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.NotFoundError{Kind: "reservation", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reservation: %w", err)
	}
	return r, nil
}

// PlaceHoldTx moves a reservation onto weather hold and stores the offer
// batch in one transaction. The original interval is snapshotted only on the
// first hold; later holds in a hold/reschedule cycle keep the first snapshot.
func (db *DB) PlaceHoldTx(ctx context.Context, id string, version int64, reason string, offers []*models.RescheduleOffer) (*models.Reservation, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := time.Now().UTC()
	query := `UPDATE reservations
	          SET status = ?, hold_reason = ?,
	              original_date = COALESCE(original_date, scheduled_start),
	              version = version + 1, updated_at = ?
	          WHERE id = ? AND version = ?`
	result, err := tx.ExecContext(ctx, query, models.StatusWeatherHold, reason, now, id, version)
	if err != nil {
		return nil, fmt.Errorf("failed to place weather hold: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return nil, domain.ErrConcurrentModification
	}

	insert := `INSERT INTO reschedule_offers (id, reservation_id, proposed_start, proposed_end, selected, expires_at, created_at)
	           VALUES (?, ?, ?, ?, 0, ?, ?)`
	for _, o := range offers {
		if o.ID == "" {
			o.ID = uuid.NewString()
		}
		o.ReservationID = id
		if _, err := tx.ExecContext(ctx, insert, o.ID, o.ReservationID, utc(o.ProposedStart), utc(o.ProposedEnd), utc(o.ExpiresAt), now); err != nil {
			return nil, fmt.Errorf("failed to insert reschedule offer: %w", err)
		}
		o.CreatedAt = now
	}

	r, err := getReservationTx(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	return r, tx.Commit()
}

// RemoveHoldTx reverts a held reservation to confirmed and discards its
// unselected offers.
func (db *DB) RemoveHoldTx(ctx context.Context, id string, version int64) (*models.Reservation, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `UPDATE reservations
	          SET status = ?, hold_reason = '', version = version + 1, updated_at = ?
	          WHERE id = ? AND version = ? AND status = ?`
	result, err := tx.ExecContext(ctx, query, models.StatusConfirmed, time.Now().UTC(), id, version, models.StatusWeatherHold)
	if err != nil {
		return nil, fmt.Errorf("failed to remove weather hold: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return nil, domain.ErrConcurrentModification
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM reschedule_offers WHERE reservation_id = ? AND selected = 0`, id); err != nil {
		return nil, fmt.Errorf("failed to discard offers: %w", err)
	}

	r, err := getReservationTx(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	return r, tx.Commit()
}

// SelectOfferTx claims one reschedule offer. Expiry, hold status, capacity
// and buffer are all re-checked against live rows before the move commits,
// and sibling offers are removed so the batch cannot be claimed twice.
func (db *DB) SelectOfferTx(ctx context.Context, reservationID, offerID string, buffer time.Duration, actor string) (*models.Reservation, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	offer, err := scanOffer(tx.QueryRowContext(ctx, `SELECT `+offerColumns+` FROM reschedule_offers WHERE id = ?`, offerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.NotFoundError{Kind: "offer", ID: offerID}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get offer: %w", err)
	}
	if offer.ReservationID != reservationID {
		return nil, &domain.NotFoundError{Kind: "offer", ID: offerID}
	}
	if offer.Selected || offer.Expired(time.Now()) {
		return nil, &domain.ExpiredOfferError{OfferID: offerID}
	}

	r, err := getReservationTx(ctx, tx, reservationID)
	if err != nil {
		return nil, err
	}
	if r.Status != models.StatusWeatherHold {
		return nil, &domain.InvalidTransitionError{From: r.Status, To: models.StatusRescheduled}
	}

	if err := checkSlotTx(ctx, tx, r.VesselID, offer.ProposedStart, offer.ProposedEnd, r.PartySize, buffer, r.ID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	update := `UPDATE reservations
	           SET scheduled_start = ?, scheduled_end = ?, status = ?, hold_reason = '',
	               version = version + 1, updated_at = ?
	           WHERE id = ? AND version = ?`
	result, err := tx.ExecContext(ctx, update, utc(offer.ProposedStart), utc(offer.ProposedEnd), models.StatusRescheduled, now, r.ID, r.Version)
	if err != nil {
		return nil, fmt.Errorf("failed to reschedule reservation: %w", err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return nil, domain.ErrConcurrentModification
	}

	if _, err := tx.ExecContext(ctx, `UPDATE reschedule_offers SET selected = 1 WHERE id = ?`, offerID); err != nil {
		return nil, fmt.Errorf("failed to mark offer selected: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM reschedule_offers WHERE reservation_id = ? AND id != ?`, reservationID, offerID); err != nil {
		return nil, fmt.Errorf("failed to remove sibling offers: %w", err)
	}

	audit := `INSERT INTO audit_log (reservation_id, actor, action, old_start, old_end, new_start, new_end, details, created_at)
	          VALUES (?, ?, 'reschedule', ?, ?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, audit, reservationID, actor,
		utc(r.ScheduledStart), utc(r.ScheduledEnd), utc(offer.ProposedStart), utc(offer.ProposedEnd),
		"offer "+offerID, now); err != nil {
		return nil, fmt.Errorf("failed to append audit entry: %w", err)
	}

	updated, err := getReservationTx(ctx, tx, reservationID)
	if err != nil {
		return nil, err
	}
	return updated, tx.Commit()
}

func (db *DB) GetOffer(ctx context.Context, id string) (*models.RescheduleOffer, error) {
	o, err := scanOffer(db.QueryRowContext(ctx, `SELECT `+offerColumns+` FROM reschedule_offers WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.NotFoundError{Kind: "offer", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get offer: %w", err)
	}
	return o, nil
}

func (db *DB) ReservationOffers(ctx context.Context, reservationID string) ([]*models.RescheduleOffer, error) {
	query := `SELECT ` + offerColumns + ` FROM reschedule_offers
	          WHERE reservation_id = ? ORDER BY proposed_start ASC`
	rows, err := db.QueryContext(ctx, query, reservationID)
	if err != nil {
		return nil, fmt.Errorf("failed to get reservation offers: %w", err)
	}
	defer rows.Close()

	var offers []*models.RescheduleOffer
	for rows.Next() {
		o, err := scanOffer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan offer: %w", err)
		}
		offers = append(offers, o)
	}
	return offers, rows.Err()
}

// DeleteExpiredOffers удаляет неистребованные предложения с истекшим сроком
func (db *DB) DeleteExpiredOffers(ctx context.Context, now time.Time) (int64, error) {
	result, err := db.ExecContext(ctx, `DELETE FROM reschedule_offers WHERE selected = 0 AND expires_at < ?`, utc(now))
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired offers: %w", err)
	}
	return result.RowsAffected()
}
