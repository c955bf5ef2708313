package models

import "time"

// RescheduleOffer is a proposed alternate interval for a reservation on
// weather hold. Offers are created in batches; at most one is ever selected
// and selection removes all siblings.
type RescheduleOffer struct {
	ID            string    `json:"id"`
	ReservationID string    `json:"reservation_id"`
	ProposedStart time.Time `json:"proposed_start"`
	ProposedEnd   time.Time `json:"proposed_end"`
	Selected      bool      `json:"selected"`
	ExpiresAt     time.Time `json:"expires_at"`
	CreatedAt     time.Time `json:"created_at"`
}

// Expired reports whether the offer can no longer be claimed.
func (o *RescheduleOffer) Expired(now time.Time) bool {
	return !o.ExpiresAt.IsZero() && now.After(o.ExpiresAt)
}
