package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"helmsman/internal/models"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) UpsertCaptain(ctx context.Context, c *models.Captain) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockStore) GetCaptain(ctx context.Context, id string) (*models.Captain, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Captain), args.Error(1)
}

func (m *MockStore) CreateVessel(ctx context.Context, v *models.Vessel) error {
	return m.Called(ctx, v).Error(0)
}

func (m *MockStore) GetVessel(ctx context.Context, id string) (*models.Vessel, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Vessel), args.Error(1)
}

func (m *MockStore) GetCaptainVessels(ctx context.Context, captainID string) ([]*models.Vessel, error) {
	args := m.Called(ctx, captainID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Vessel), args.Error(1)
}

func (m *MockStore) CreateOffering(ctx context.Context, o *models.TripOffering) error {
	return m.Called(ctx, o).Error(0)
}

func (m *MockStore) GetOffering(ctx context.Context, id string) (*models.TripOffering, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TripOffering), args.Error(1)
}

func (m *MockStore) GetCaptainOfferings(ctx context.Context, captainID string) ([]*models.TripOffering, error) {
	args := m.Called(ctx, captainID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.TripOffering), args.Error(1)
}

func (m *MockStore) DeactivateOffering(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockStore) CreateWindow(ctx context.Context, w *models.AvailabilityWindow) error {
	return m.Called(ctx, w).Error(0)
}

func (m *MockStore) GetWindows(ctx context.Context, captainID string) ([]*models.AvailabilityWindow, error) {
	args := m.Called(ctx, captainID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.AvailabilityWindow), args.Error(1)
}

func (m *MockStore) CreateBlackout(ctx context.Context, b *models.BlackoutDate) error {
	return m.Called(ctx, b).Error(0)
}

func (m *MockStore) GetBlackouts(ctx context.Context, captainID, fromDate, toDate string) ([]*models.BlackoutDate, error) {
	args := m.Called(ctx, captainID, fromDate, toDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.BlackoutDate), args.Error(1)
}

func (m *MockStore) GetReservation(ctx context.Context, id string) (*models.Reservation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Reservation), args.Error(1)
}

func (m *MockStore) CreateReservationTx(ctx context.Context, r *models.Reservation, buffer time.Duration) error {
	return m.Called(ctx, r, buffer).Error(0)
}

func (m *MockStore) UpdateReservationStatusWithVersion(ctx context.Context, id string, version int64, status models.Status) error {
	return m.Called(ctx, id, version, status).Error(0)
}

func (m *MockStore) SetPaymentStatus(ctx context.Context, id, paymentStatus string) error {
	return m.Called(ctx, id, paymentStatus).Error(0)
}

func (m *MockStore) ReservationsInRange(ctx context.Context, vesselID string, from, to time.Time, excludeID string) ([]*models.Reservation, error) {
	args := m.Called(ctx, vesselID, from, to, excludeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Reservation), args.Error(1)
}

func (m *MockStore) CaptainReservationsInRange(ctx context.Context, captainID string, from, to time.Time) ([]*models.Reservation, error) {
	args := m.Called(ctx, captainID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Reservation), args.Error(1)
}

func (m *MockStore) StalePendingDeposits(ctx context.Context, cutoff time.Time) ([]*models.Reservation, error) {
	args := m.Called(ctx, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Reservation), args.Error(1)
}

func (m *MockStore) DeleteReservation(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockStore) PlaceHoldTx(ctx context.Context, id string, version int64, reason string, offers []*models.RescheduleOffer) (*models.Reservation, error) {
	args := m.Called(ctx, id, version, reason, offers)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Reservation), args.Error(1)
}

func (m *MockStore) RemoveHoldTx(ctx context.Context, id string, version int64) (*models.Reservation, error) {
	args := m.Called(ctx, id, version)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Reservation), args.Error(1)
}

func (m *MockStore) SelectOfferTx(ctx context.Context, reservationID, offerID string, buffer time.Duration, actor string) (*models.Reservation, error) {
	args := m.Called(ctx, reservationID, offerID, buffer, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Reservation), args.Error(1)
}

func (m *MockStore) GetOffer(ctx context.Context, id string) (*models.RescheduleOffer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RescheduleOffer), args.Error(1)
}

func (m *MockStore) ReservationOffers(ctx context.Context, reservationID string) ([]*models.RescheduleOffer, error) {
	args := m.Called(ctx, reservationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.RescheduleOffer), args.Error(1)
}

func (m *MockStore) DeleteExpiredOffers(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStore) AppendAudit(ctx context.Context, entry *models.AuditEntry) error {
	return m.Called(ctx, entry).Error(0)
}

func (m *MockStore) AuditTrail(ctx context.Context, reservationID string) ([]*models.AuditEntry, error) {
	args := m.Called(ctx, reservationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.AuditEntry), args.Error(1)
}

type MockEventBus struct {
	mock.Mock
}

func (m *MockEventBus) PublishJSON(eventType string, payload interface{}) error {
	return m.Called(eventType, payload).Error(0)
}
