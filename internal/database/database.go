package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

// DB wraps the sqlite handle. All timestamps are normalized to UTC before
// they touch the database so that range comparisons stay lexicographically
// safe regardless of the captain's timezone.
type DB struct {
	*sql.DB
	logger *zerolog.Logger
}

func NewDB(path string, logger *zerolog.Logger) (*DB, error) {
	// Создаем директорию для БД, если её нет
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	sqlDB, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := createTables(sqlDB); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	logger.Info().Str("path", path).Msg("database initialized")
	return &DB{DB: sqlDB, logger: logger}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		// Таблица капитанов
		`CREATE TABLE IF NOT EXISTS captains (
            id TEXT PRIMARY KEY,
            display_name TEXT NOT NULL,
            timezone TEXT NOT NULL DEFAULT 'UTC',
            horizon_days INTEGER NOT NULL DEFAULT 0,
            min_notice_minutes INTEGER NOT NULL DEFAULT 0,
            buffer_minutes INTEGER NOT NULL DEFAULT 0,
            deposit_required BOOLEAN NOT NULL DEFAULT 0,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,
		// Таблица судов
		`CREATE TABLE IF NOT EXISTS vessels (
            id TEXT PRIMARY KEY,
            captain_id TEXT NOT NULL,
            name TEXT NOT NULL,
            capacity INTEGER NOT NULL,
            is_active BOOLEAN NOT NULL DEFAULT 1,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,
		// Таблица типов рейсов
		`CREATE TABLE IF NOT EXISTS trip_offerings (
            id TEXT PRIMARY KEY,
            captain_id TEXT NOT NULL,
            name TEXT NOT NULL,
            duration_hours REAL NOT NULL,
            departure_mode TEXT NOT NULL DEFAULT 'continuous',
            departure_times TEXT,
            stride_minutes INTEGER NOT NULL DEFAULT 0,
            is_active BOOLEAN NOT NULL DEFAULT 1,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,
		// Рабочие окна по дням недели
		`CREATE TABLE IF NOT EXISTS availability_windows (
            id TEXT PRIMARY KEY,
            captain_id TEXT NOT NULL,
            day_of_week INTEGER NOT NULL,
            start_time TEXT NOT NULL,
            end_time TEXT NOT NULL,
            is_active BOOLEAN NOT NULL DEFAULT 1,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,
		// Даты, закрытые капитаном
		`CREATE TABLE IF NOT EXISTS blackout_dates (
            id TEXT PRIMARY KEY,
            captain_id TEXT NOT NULL,
            date TEXT NOT NULL,
            reason TEXT,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,
		// Таблица бронирований
		`CREATE TABLE IF NOT EXISTS reservations (
            id TEXT PRIMARY KEY,
            captain_id TEXT NOT NULL,
            vessel_id TEXT,
            offering_id TEXT NOT NULL,
            scheduled_start DATETIME NOT NULL,
            scheduled_end DATETIME NOT NULL,
            party_size INTEGER NOT NULL,
            status TEXT NOT NULL DEFAULT 'pending_deposit',
            payment_status TEXT NOT NULL DEFAULT 'unpaid',
            guest_name TEXT NOT NULL,
            guest_contact TEXT,
            hold_reason TEXT,
            original_date DATETIME,
            manual_override BOOLEAN NOT NULL DEFAULT 0,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            version INTEGER NOT NULL DEFAULT 1
        )`,
		// Предложения переноса при погодном холде
		`CREATE TABLE IF NOT EXISTS reschedule_offers (
            id TEXT PRIMARY KEY,
            reservation_id TEXT NOT NULL,
            proposed_start DATETIME NOT NULL,
            proposed_end DATETIME NOT NULL,
            selected BOOLEAN NOT NULL DEFAULT 0,
            expires_at DATETIME NOT NULL,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,
		// Журнал изменений бронирований
		`CREATE TABLE IF NOT EXISTS audit_log (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            reservation_id TEXT NOT NULL,
            actor TEXT NOT NULL,
            action TEXT NOT NULL,
            old_start DATETIME,
            old_end DATETIME,
            new_start DATETIME,
            new_end DATETIME,
            details TEXT,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,

		`CREATE INDEX IF NOT EXISTS idx_vessels_captain_id ON vessels(captain_id)`,
		`CREATE INDEX IF NOT EXISTS idx_offerings_captain_id ON trip_offerings(captain_id)`,
		`CREATE INDEX IF NOT EXISTS idx_windows_captain_id ON availability_windows(captain_id)`,
		`CREATE INDEX IF NOT EXISTS idx_blackouts_captain_date ON blackout_dates(captain_id, date)`,
		`CREATE INDEX IF NOT EXISTS idx_reservations_vessel_start ON reservations(vessel_id, scheduled_start)`,
		`CREATE INDEX IF NOT EXISTS idx_reservations_captain_start ON reservations(captain_id, scheduled_start)`,
		`CREATE INDEX IF NOT EXISTS idx_reservations_status ON reservations(status)`,
		`CREATE INDEX IF NOT EXISTS idx_offers_reservation_id ON reschedule_offers(reservation_id)`,
		`CREATE INDEX IF NOT EXISTS idx_offers_expires_at ON reschedule_offers(expires_at)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_reservation_id ON audit_log(reservation_id)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}
	return nil
}

// utc нормализует метку времени перед записью
func utc(t time.Time) time.Time {
	return t.UTC()
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
