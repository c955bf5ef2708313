package models

import (
	"strings"
	"time"

	"helmsman/internal/calendar"
)

const (
	DepartureModeFixed      = "fixed"
	DepartureModeContinuous = "continuous"
)

// TripOffering is a bookable product: a duration plus either a list of fixed
// local departure times or continuous starts at a stride.
type TripOffering struct {
	ID             string    `json:"id"`
	CaptainID      string    `json:"captain_id"`
	Name           string    `json:"name"`
	DurationHours  float64   `json:"duration_hours"`
	DepartureMode  string    `json:"departure_mode"`
	DepartureTimes string    `json:"departure_times,omitempty"` // CSV of HH:MM[:SS], fixed mode only
	StrideMinutes  int       `json:"stride_minutes,omitempty"`  // continuous mode only
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (o *TripOffering) Duration() time.Duration {
	return time.Duration(o.DurationHours * float64(time.Hour))
}

// DepartureRule is the tagged variant consumed by candidate generation:
// either FixedDepartures or Continuous.
type DepartureRule interface {
	departureRule()
}

// FixedDepartures lists the only clock times a trip may leave at.
type FixedDepartures struct {
	Times []calendar.ClockTime
}

// Continuous generates departures at a fixed stride from window open.
type Continuous struct {
	StrideMinutes int
}

func (FixedDepartures) departureRule() {}
func (Continuous) departureRule()      {}

// Rule resolves the offering's departure variant. Malformed fixed-time
// entries are dropped silently; a fixed offering with no parseable times
// still returns an empty FixedDepartures (no candidates, not an error).
func (o *TripOffering) Rule() DepartureRule {
	if o.DepartureMode == DepartureModeFixed {
		var times []calendar.ClockTime
		for _, raw := range strings.Split(o.DepartureTimes, ",") {
			raw = strings.TrimSpace(raw)
			if raw == "" {
				continue
			}
			c, err := calendar.ParseClock(raw)
			if err != nil {
				continue
			}
			times = append(times, c)
		}
		return FixedDepartures{Times: times}
	}

	stride := o.StrideMinutes
	if stride <= 0 {
		stride = DefaultStrideMinutes
	}
	return Continuous{StrideMinutes: stride}
}
