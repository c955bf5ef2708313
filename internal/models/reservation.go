package models

import "time"

// Reservation is the booked trip. Vessel assignment may lag creation.
// Reservations are never hard-deleted: cancellation is a status. The one
// exception is pre-payment expiry cleanup handled by the sweeper.
type Reservation struct {
	ID             string     `json:"id"`
	CaptainID      string     `json:"captain_id"`
	VesselID       string     `json:"vessel_id,omitempty"` // empty until assigned
	OfferingID     string     `json:"offering_id"`
	ScheduledStart time.Time  `json:"scheduled_start"`
	ScheduledEnd   time.Time  `json:"scheduled_end"`
	PartySize      int        `json:"party_size"`
	Status         Status     `json:"status"`
	PaymentStatus  string     `json:"payment_status"`
	GuestName      string     `json:"guest_name"`
	GuestContact   string     `json:"guest_contact,omitempty"`
	HoldReason     string     `json:"hold_reason,omitempty"`
	OriginalDate   *time.Time `json:"original_date_if_rescheduled,omitempty"` // set once at first weather hold
	ManualOverride bool       `json:"manual_override"`                        // captain bypassed window checks
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	Version        int64      `json:"version"`
}

// CountsAgainstCapacity reports whether the reservation consumes seats.
func (r *Reservation) CountsAgainstCapacity() bool {
	return !r.Status.IsTerminal()
}
