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

func (db *DB) UpsertCaptain(ctx context.Context, c *models.Captain) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	query := `INSERT INTO captains (
				id, display_name, timezone, horizon_days, min_notice_minutes,
				buffer_minutes, deposit_required, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				display_name = excluded.display_name,
				timezone = excluded.timezone,
				horizon_days = excluded.horizon_days,
				min_notice_minutes = excluded.min_notice_minutes,
				buffer_minutes = excluded.buffer_minutes,
				deposit_required = excluded.deposit_required,
				updated_at = excluded.updated_at`
	_, err := db.ExecContext(ctx, query,
		c.ID, c.DisplayName, c.Timezone, c.HorizonDays, c.MinNoticeMinutes,
		c.BufferMinutes, c.DepositRequired, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert captain: %w", err)
	}
	c.UpdatedAt = now
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	return nil
}

func (db *DB) GetCaptain(ctx context.Context, id string) (*models.Captain, error) {
	var c models.Captain
	query := `SELECT id, display_name, timezone, horizon_days, min_notice_minutes,
	                 buffer_minutes, deposit_required, created_at, updated_at
	          FROM captains WHERE id = ?`
	err := db.QueryRowContext(ctx, query, id).Scan(
		&c.ID, &c.DisplayName, &c.Timezone, &c.HorizonDays, &c.MinNoticeMinutes,
		&c.BufferMinutes, &c.DepositRequired, &c.CreatedAt, &c.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.NotFoundError{Kind: "captain", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get captain: %w", err)
	}
	return &c, nil
}
