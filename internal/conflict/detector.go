package conflict

import (
	"context"
	"fmt"
	"time"

	"helmsman/internal/calendar"
	"helmsman/internal/models"
)

// ReservationSource is the read side the detector needs: non-terminal
// reservations on one vessel intersecting a widened interval.
type ReservationSource interface {
	ReservationsInRange(ctx context.Context, vesselID string, from, to time.Time, excludeID string) ([]*models.Reservation, error)
}

// Result describes what a proposed interval collides with. Overlapping
// reservations share the vessel up to its capacity, so they block only when
// the combined party would not fit; buffer violations block outright.
// When both kinds are present, overlap wins the reported reason.
type Result struct {
	Reason      string // "overlap" or "buffer"
	Overlapping []*models.Reservation
	TooClose    []*models.Reservation
}

func (r *Result) ConflictingIDs() []string {
	ids := make([]string, 0, len(r.Overlapping)+len(r.TooClose))
	for _, res := range r.Overlapping {
		ids = append(ids, res.ID)
	}
	for _, res := range r.TooClose {
		ids = append(ids, res.ID)
	}
	return ids
}

// BookedDuringOverlap sums the party sizes sharing the vessel during the
// proposed interval.
func (r *Result) BookedDuringOverlap() int {
	total := 0
	for _, res := range r.Overlapping {
		total += res.PartySize
	}
	return total
}

// BufferViolated reports whether any neighbor sits closer than the buffer
// without overlapping.
func (r *Result) BufferViolated() bool {
	return len(r.TooClose) > 0
}

type Detector struct {
	src ReservationSource
}

func NewDetector(src ReservationSource) *Detector {
	return &Detector{src: src}
}

// Check is the advisory read of the write-time rules in the store: it lets
// callers fail fast and report conflicts, while the store re-runs the same
// logic transactionally before anything commits.
func (d *Detector) Check(ctx context.Context, vesselID string, start, end time.Time, buffer time.Duration, excludeID string) (*Result, error) {
	neighbors, err := d.src.ReservationsInRange(ctx, vesselID, start.Add(-buffer), end.Add(buffer), excludeID)
	if err != nil {
		return nil, fmt.Errorf("failed to load neighboring reservations: %w", err)
	}

	result := &Result{}
	for _, r := range neighbors {
		if calendar.Overlaps(start, end, r.ScheduledStart, r.ScheduledEnd) {
			result.Overlapping = append(result.Overlapping, r)
		} else {
			result.TooClose = append(result.TooClose, r)
		}
	}

	switch {
	case len(result.Overlapping) > 0:
		result.Reason = "overlap"
	case len(result.TooClose) > 0:
		result.Reason = "buffer"
	}
	return result, nil
}
