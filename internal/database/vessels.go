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

func (db *DB) CreateVessel(ctx context.Context, v *models.Vessel) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	query := `INSERT INTO vessels (id, captain_id, name, capacity, is_active, created_at, updated_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := db.ExecContext(ctx, query, v.ID, v.CaptainID, v.Name, v.Capacity, v.IsActive, now, now)
	if err != nil {
		return fmt.Errorf("failed to create vessel: %w", err)
	}
	v.CreatedAt = now
	v.UpdatedAt = now
	return nil
}

func (db *DB) GetVessel(ctx context.Context, id string) (*models.Vessel, error) {
	var v models.Vessel
	query := `SELECT id, captain_id, name, capacity, is_active, created_at, updated_at
	          FROM vessels WHERE id = ?`
	err := db.QueryRowContext(ctx, query, id).Scan(
		&v.ID, &v.CaptainID, &v.Name, &v.Capacity, &v.IsActive, &v.CreatedAt, &v.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.NotFoundError{Kind: "vessel", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get vessel: %w", err)
	}
	return &v, nil
}

// GetCaptainVessels returns active vessels ordered by capacity so the
// smallest fitting vessel comes first during auto-assignment.
func (db *DB) GetCaptainVessels(ctx context.Context, captainID string) ([]*models.Vessel, error) {
	query := `SELECT id, captain_id, name, capacity, is_active, created_at, updated_at
	          FROM vessels WHERE captain_id = ? AND is_active = 1 ORDER BY capacity ASC, name ASC`
	rows, err := db.QueryContext(ctx, query, captainID)
	if err != nil {
		return nil, fmt.Errorf("failed to get captain vessels: %w", err)
	}
	defer rows.Close()

	var vessels []*models.Vessel
	for rows.Next() {
		v := &models.Vessel{}
		if err := rows.Scan(&v.ID, &v.CaptainID, &v.Name, &v.Capacity, &v.IsActive, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan vessel: %w", err)
		}
		vessels = append(vessels, v)
	}
	return vessels, rows.Err()
}
