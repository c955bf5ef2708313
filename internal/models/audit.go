package models

import "time"

// AuditEntry records who moved a reservation and how its interval changed.
type AuditEntry struct {
	ID            int64      `json:"id"`
	ReservationID string     `json:"reservation_id"`
	Actor         string     `json:"actor"`
	Action        string     `json:"action"`
	OldStart      *time.Time `json:"old_start,omitempty"`
	OldEnd        *time.Time `json:"old_end,omitempty"`
	NewStart      *time.Time `json:"new_start,omitempty"`
	NewEnd        *time.Time `json:"new_end,omitempty"`
	Details       string     `json:"details,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}
