package models

import (
	"time"

	"helmsman/internal/calendar"
)

// AvailabilityWindow is a recurring weekly opening in the captain's local
// timezone. Windows on the same day may overlap.
type AvailabilityWindow struct {
	ID        string    `json:"id"`
	CaptainID string    `json:"captain_id"`
	DayOfWeek int       `json:"day_of_week"` // 0=Sunday .. 6=Saturday
	StartTime string    `json:"start_time"`  // HH:MM[:SS] local
	EndTime   string    `json:"end_time"`    // HH:MM[:SS] local
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// Bounds parses the window's clock times. A window that fails to parse or is
// inverted yields ok=false and is skipped by callers (fail closed).
func (w *AvailabilityWindow) Bounds() (start, end calendar.ClockTime, ok bool) {
	start, err := calendar.ParseClock(w.StartTime)
	if err != nil {
		return 0, 0, false
	}
	end, err = calendar.ParseClock(w.EndTime)
	if err != nil {
		return 0, 0, false
	}
	if end <= start {
		return 0, 0, false
	}
	return start, end, true
}

// BlackoutDate closes a specific local calendar date regardless of windows.
type BlackoutDate struct {
	ID        string    `json:"id"`
	CaptainID string    `json:"captain_id"`
	Date      string    `json:"date"` // YYYY-MM-DD local
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
