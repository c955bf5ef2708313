package models

import "time"

type Vessel struct {
	ID        string    `json:"id"`
	CaptainID string    `json:"captain_id"`
	Name      string    `json:"name"`
	Capacity  int       `json:"capacity"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AggregateCapacity sums capacity across vessels. With no vessels it falls
// back to the floor capacity so read-path math degrades instead of failing.
func AggregateCapacity(vessels []*Vessel) int {
	if len(vessels) == 0 {
		return DefaultFloorCapacity
	}
	total := 0
	for _, v := range vessels {
		total += v.Capacity
	}
	return total
}

// LargestCapacity returns the biggest single hull. One reservation can never
// exceed this because a party is not split across vessels.
func LargestCapacity(vessels []*Vessel) int {
	if len(vessels) == 0 {
		return DefaultFloorCapacity
	}
	largest := 0
	for _, v := range vessels {
		if v.Capacity > largest {
			largest = v.Capacity
		}
	}
	return largest
}
