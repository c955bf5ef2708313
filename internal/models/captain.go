package models

import "time"

// Captain carries the per-operator scheduling settings the engine reads:
// IANA timezone, advance-booking horizon, minimum notice before departure and
// the buffer required between trips on one vessel.
type Captain struct {
	ID               string    `json:"id"`
	DisplayName      string    `json:"display_name"`
	Timezone         string    `json:"timezone"`
	HorizonDays      int       `json:"horizon_days"`
	MinNoticeMinutes int       `json:"min_notice_minutes"`
	BufferMinutes    int       `json:"buffer_minutes"`
	DepositRequired  bool      `json:"deposit_required"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Location resolves the captain's timezone, falling back to UTC.
func (c *Captain) Location() *time.Location {
	if c.Timezone != "" {
		if loc, err := time.LoadLocation(c.Timezone); err == nil {
			return loc
		}
	}
	return time.UTC
}

// Horizon returns the advance-booking horizon with the default applied.
func (c *Captain) Horizon() int {
	if c.HorizonDays <= 0 {
		return DefaultHorizonDays
	}
	return c.HorizonDays
}

// MinNotice returns the minimum-notice buffer as a duration.
func (c *Captain) MinNotice() time.Duration {
	minutes := c.MinNoticeMinutes
	if minutes < 0 {
		minutes = 0
	}
	return time.Duration(minutes) * time.Minute
}

// Buffer returns the required gap between trips on the same vessel.
func (c *Captain) Buffer() time.Duration {
	if c.BufferMinutes <= 0 {
		return 0
	}
	return time.Duration(c.BufferMinutes) * time.Minute
}
