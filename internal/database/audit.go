package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"helmsman/internal/models"
)

func (db *DB) AppendAudit(ctx context.Context, entry *models.AuditEntry) error {
	now := time.Now().UTC()
	query := `INSERT INTO audit_log (reservation_id, actor, action, old_start, old_end, new_start, new_end, details, created_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := db.ExecContext(ctx, query,
		entry.ReservationID, entry.Actor, entry.Action,
		utcPtr(entry.OldStart), utcPtr(entry.OldEnd), utcPtr(entry.NewStart), utcPtr(entry.NewEnd),
		entry.Details, now,
	)
	if err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	entry.ID, _ = result.LastInsertId()
	entry.CreatedAt = now
	return nil
}

func (db *DB) AuditTrail(ctx context.Context, reservationID string) ([]*models.AuditEntry, error) {
	query := `SELECT id, reservation_id, actor, action, old_start, old_end, new_start, new_end, details, created_at
	          FROM audit_log WHERE reservation_id = ? ORDER BY id ASC`
	rows, err := db.QueryContext(ctx, query, reservationID)
	if err != nil {
		return nil, fmt.Errorf("failed to get audit trail: %w", err)
	}
	defer rows.Close()

	var trail []*models.AuditEntry
	for rows.Next() {
		e := &models.AuditEntry{}
		var oldStart, oldEnd, newStart, newEnd sql.NullTime
		err := rows.Scan(&e.ID, &e.ReservationID, &e.Actor, &e.Action,
			&oldStart, &oldEnd, &newStart, &newEnd, &e.Details, &e.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		e.OldStart = nullTimePtr(oldStart)
		e.OldEnd = nullTimePtr(oldEnd)
		e.NewStart = nullTimePtr(newStart)
		e.NewEnd = nullTimePtr(newEnd)
		trail = append(trail, e)
	}
	return trail, rows.Err()
}

func nullTimePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}
