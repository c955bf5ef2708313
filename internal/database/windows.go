package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"helmsman/internal/models"
)

func (db *DB) CreateWindow(ctx context.Context, w *models.AvailabilityWindow) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	query := `INSERT INTO availability_windows (id, captain_id, day_of_week, start_time, end_time, is_active, created_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := db.ExecContext(ctx, query, w.ID, w.CaptainID, w.DayOfWeek, w.StartTime, w.EndTime, w.IsActive, now)
	if err != nil {
		return fmt.Errorf("failed to create availability window: %w", err)
	}
	w.CreatedAt = now
	return nil
}

func (db *DB) GetWindows(ctx context.Context, captainID string) ([]*models.AvailabilityWindow, error) {
	query := `SELECT id, captain_id, day_of_week, start_time, end_time, is_active, created_at
	          FROM availability_windows
	          WHERE captain_id = ? AND is_active = 1
	          ORDER BY day_of_week ASC, start_time ASC`
	rows, err := db.QueryContext(ctx, query, captainID)
	if err != nil {
		return nil, fmt.Errorf("failed to get availability windows: %w", err)
	}
	defer rows.Close()

	var windows []*models.AvailabilityWindow
	for rows.Next() {
		w := &models.AvailabilityWindow{}
		if err := rows.Scan(&w.ID, &w.CaptainID, &w.DayOfWeek, &w.StartTime, &w.EndTime, &w.IsActive, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan availability window: %w", err)
		}
		windows = append(windows, w)
	}
	return windows, rows.Err()
}

func (db *DB) CreateBlackout(ctx context.Context, b *models.BlackoutDate) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	query := `INSERT INTO blackout_dates (id, captain_id, date, reason, created_at)
	          VALUES (?, ?, ?, ?, ?)`
	_, err := db.ExecContext(ctx, query, b.ID, b.CaptainID, b.Date, b.Reason, now)
	if err != nil {
		return fmt.Errorf("failed to create blackout date: %w", err)
	}
	b.CreatedAt = now
	return nil
}

// GetBlackouts возвращает закрытые даты в диапазоне [fromDate, toDate]
func (db *DB) GetBlackouts(ctx context.Context, captainID, fromDate, toDate string) ([]*models.BlackoutDate, error) {
	query := `SELECT id, captain_id, date, reason, created_at
	          FROM blackout_dates
	          WHERE captain_id = ? AND date >= ? AND date <= ?
	          ORDER BY date ASC`
	rows, err := db.QueryContext(ctx, query, captainID, fromDate, toDate)
	if err != nil {
		return nil, fmt.Errorf("failed to get blackout dates: %w", err)
	}
	defer rows.Close()

	var blackouts []*models.BlackoutDate
	for rows.Next() {
		b := &models.BlackoutDate{}
		if err := rows.Scan(&b.ID, &b.CaptainID, &b.Date, &b.Reason, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan blackout date: %w", err)
		}
		blackouts = append(blackouts, b)
	}
	return blackouts, rows.Err()
}
