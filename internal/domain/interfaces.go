package domain

import (
	"context"
	"time"

	"helmsman/internal/calendar"
	"helmsman/internal/models"
)

// Store is the persistence boundary. Methods suffixed Tx run their checks and
// writes inside a single transaction so a stale advisory read can never commit.
type Store interface {
	// Captains
	UpsertCaptain(ctx context.Context, c *models.Captain) error
	GetCaptain(ctx context.Context, id string) (*models.Captain, error)

	// Vessels
	CreateVessel(ctx context.Context, v *models.Vessel) error
	GetVessel(ctx context.Context, id string) (*models.Vessel, error)
	GetCaptainVessels(ctx context.Context, captainID string) ([]*models.Vessel, error)

	// Trip offerings
	CreateOffering(ctx context.Context, o *models.TripOffering) error
	GetOffering(ctx context.Context, id string) (*models.TripOffering, error)
	GetCaptainOfferings(ctx context.Context, captainID string) ([]*models.TripOffering, error)
	DeactivateOffering(ctx context.Context, id string) error

	// Windows and blackouts
	CreateWindow(ctx context.Context, w *models.AvailabilityWindow) error
	GetWindows(ctx context.Context, captainID string) ([]*models.AvailabilityWindow, error)
	CreateBlackout(ctx context.Context, b *models.BlackoutDate) error
	GetBlackouts(ctx context.Context, captainID, fromDate, toDate string) ([]*models.BlackoutDate, error)

	// Reservations
	GetReservation(ctx context.Context, id string) (*models.Reservation, error)
	CreateReservationTx(ctx context.Context, r *models.Reservation, buffer time.Duration) error
	UpdateReservationStatusWithVersion(ctx context.Context, id string, version int64, status models.Status) error
	SetPaymentStatus(ctx context.Context, id, paymentStatus string) error
	ReservationsInRange(ctx context.Context, vesselID string, from, to time.Time, excludeID string) ([]*models.Reservation, error)
	CaptainReservationsInRange(ctx context.Context, captainID string, from, to time.Time) ([]*models.Reservation, error)
	StalePendingDeposits(ctx context.Context, cutoff time.Time) ([]*models.Reservation, error)
	DeleteReservation(ctx context.Context, id string) error

	// Weather holds and reschedule offers
	PlaceHoldTx(ctx context.Context, id string, version int64, reason string, offers []*models.RescheduleOffer) (*models.Reservation, error)
	RemoveHoldTx(ctx context.Context, id string, version int64) (*models.Reservation, error)
	SelectOfferTx(ctx context.Context, reservationID, offerID string, buffer time.Duration, actor string) (*models.Reservation, error)
	GetOffer(ctx context.Context, id string) (*models.RescheduleOffer, error)
	ReservationOffers(ctx context.Context, reservationID string) ([]*models.RescheduleOffer, error)
	DeleteExpiredOffers(ctx context.Context, now time.Time) (int64, error)

	// Audit
	AppendAudit(ctx context.Context, entry *models.AuditEntry) error
	AuditTrail(ctx context.Context, reservationID string) ([]*models.AuditEntry, error)
}

// SlotCache is the read-through cache of computed month maps, keyed by
// (captain, month, offering). Always advisory: write paths re-check in the
// store. Invalidation drops every offering of the captain for the month,
// because fleet-wide capacity couples all offerings together.
type SlotCache interface {
	Get(ctx context.Context, captainID, month, offeringID string) (models.DateSlotMap, bool, error)
	Set(ctx context.Context, captainID, month, offeringID string, slots models.DateSlotMap) error
	Invalidate(ctx context.Context, captainID string, months ...string) error
}

// EventPublisher fans reservation lifecycle events out to collaborators
// (notification dispatch lives behind this boundary, not in the engine).
type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// CreateReservationRequest carries guest booking or captain manual entry input.
type CreateReservationRequest struct {
	OfferingID     string
	VesselID       string // optional; auto-assigned when empty
	Start          time.Time
	PartySize      int
	GuestName      string
	GuestContact   string
	ManualOverride bool // captain override bypasses window containment
	Actor          string
}

// TransitionContext qualifies a state transition request.
type TransitionContext struct {
	Actor  string
	Reason string
}

// WeatherHoldRequest places a reservation on weather hold. Either
// AutoGenerate is set or ProposedStarts carries explicit alternatives.
type WeatherHoldRequest struct {
	ReservationID  string
	Reason         string
	AutoGenerate   bool
	ProposedStarts []time.Time
}

type AvailabilityProvider interface {
	GetAvailability(ctx context.Context, offeringID string, ym calendar.YearMonth) (models.DateSlotMap, error)
}

type ReservationManager interface {
	CreateReservation(ctx context.Context, req CreateReservationRequest) (*models.Reservation, error)
	TransitionReservation(ctx context.Context, id string, target models.Status, tc TransitionContext) (*models.Reservation, error)
	GetReservation(ctx context.Context, id string) (*models.Reservation, error)
}

type WeatherCoordinator interface {
	PlaceWeatherHold(ctx context.Context, req WeatherHoldRequest) (*models.Reservation, []*models.RescheduleOffer, error)
	SelectRescheduleOffer(ctx context.Context, reservationID, offerID string) (*models.Reservation, error)
	RemoveWeatherHold(ctx context.Context, reservationID string) (*models.Reservation, error)
}
