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

func (db *DB) CreateOffering(ctx context.Context, o *models.TripOffering) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	query := `INSERT INTO trip_offerings (
				id, captain_id, name, duration_hours, departure_mode,
				departure_times, stride_minutes, is_active, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := db.ExecContext(ctx, query,
		o.ID, o.CaptainID, o.Name, o.DurationHours, o.DepartureMode,
		o.DepartureTimes, o.StrideMinutes, o.IsActive, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to create offering: %w", err)
	}
	o.CreatedAt = now
	o.UpdatedAt = now
	return nil
}

func (db *DB) GetOffering(ctx context.Context, id string) (*models.TripOffering, error) {
	var o models.TripOffering
	query := `SELECT id, captain_id, name, duration_hours, departure_mode,
	                 departure_times, stride_minutes, is_active, created_at, updated_at
	          FROM trip_offerings WHERE id = ?`
	err := db.QueryRowContext(ctx, query, id).Scan(
		&o.ID, &o.CaptainID, &o.Name, &o.DurationHours, &o.DepartureMode,
		&o.DepartureTimes, &o.StrideMinutes, &o.IsActive, &o.CreatedAt, &o.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.NotFoundError{Kind: "offering", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get offering: %w", err)
	}
	return &o, nil
}

func (db *DB) GetCaptainOfferings(ctx context.Context, captainID string) ([]*models.TripOffering, error) {
	query := `SELECT id, captain_id, name, duration_hours, departure_mode,
	                 departure_times, stride_minutes, is_active, created_at, updated_at
	          FROM trip_offerings WHERE captain_id = ? AND is_active = 1 ORDER BY name ASC`
	rows, err := db.QueryContext(ctx, query, captainID)
	if err != nil {
		return nil, fmt.Errorf("failed to get captain offerings: %w", err)
	}
	defer rows.Close()

	var offerings []*models.TripOffering
	for rows.Next() {
		o := &models.TripOffering{}
		err := rows.Scan(
			&o.ID, &o.CaptainID, &o.Name, &o.DurationHours, &o.DepartureMode,
			&o.DepartureTimes, &o.StrideMinutes, &o.IsActive, &o.CreatedAt, &o.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan offering: %w", err)
		}
		offerings = append(offerings, o)
	}
	return offerings, rows.Err()
}

func (db *DB) DeactivateOffering(ctx context.Context, id string) error {
	query := `UPDATE trip_offerings SET is_active = 0, updated_at = ? WHERE id = ?`
	result, err := db.ExecContext(ctx, query, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to deactivate offering: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return &domain.NotFoundError{Kind: "offering", ID: id}
	}
	return nil
}
