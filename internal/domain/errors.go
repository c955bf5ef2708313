package domain

import (
	"errors"
	"fmt"

	"helmsman/internal/models"
)

// ErrConcurrentModification сигнализирует о проигранной оптимистической блокировке
var ErrConcurrentModification = errors.New("reservation was modified concurrently")

// ValidationError reports malformed input: bad UUID, bad time string,
// party size out of range, horizon violations.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

// NotFoundError reports an absent offering/vessel/reservation/offer.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// InvalidTransitionError is a terminal rejection from the state machine.
// It is surfaced to callers verbatim and never coerced into another state.
type InvalidTransitionError struct {
	From models.Status
	To   models.Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition %s -> %s", e.From, e.To)
}

// ConflictError reports an overlap or buffer violation at write time.
// Retryable by the user: pick another slot.
type ConflictError struct {
	Reason      string   // "overlap" or "buffer"
	Conflicting []string // reservation ids
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("scheduling conflict (%s) with %d reservation(s)", e.Reason, len(e.Conflicting))
}

// CapacityError reports insufficient remaining capacity at write time.
type CapacityError struct {
	Requested int
	Remaining int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("capacity exceeded: requested %d, remaining %d", e.Requested, e.Remaining)
}

// ExpiredOfferError reports an offer past expiry or already resolved.
type ExpiredOfferError struct {
	OfferID string
}

func (e *ExpiredOfferError) Error() string {
	return fmt.Sprintf("reschedule offer %s is expired or already resolved", e.OfferID)
}
