package models

import "time"

// Slot is one advertised departure with its capacity picture.
// TotalCapacity and RemainingCapacity are guest-visible numbers: both are
// capped at the largest single vessel because a party cannot be split across
// hulls, while RemainingCapacity is derived from the aggregate fleet.
type Slot struct {
	Start             time.Time `json:"start"`
	End               time.Time `json:"end"`
	TotalCapacity     int       `json:"total_capacity"`
	RemainingCapacity int       `json:"remaining_capacity"`
	Available         bool      `json:"available"`
}

// DateSlotMap maps local YYYY-MM-DD date keys to the day's slots.
// Days with no generated slots are absent entirely, which reads as "closed".
type DateSlotMap map[string][]Slot
