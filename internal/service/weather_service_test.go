package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"helmsman/internal/domain"
	"helmsman/internal/events"
	"helmsman/internal/models"
	"helmsman/internal/repository"
)

func newWeatherService(store *MockStore, bus *MockEventBus) *WeatherService {
	logger := zerolog.Nop()
	cache := repository.NewMemorySlotCache(time.Minute)
	return NewWeatherService(store, cache, bus, 14, &logger)
}

func heldCandidate(status models.Status) *models.Reservation {
	start := futureStart().AddDate(0, 0, 7)
	return &models.Reservation{
		ID:             uuid.NewString(),
		CaptainID:      testCaptainID,
		VesselID:       uuid.NewString(),
		OfferingID:     testOfferingID,
		GuestName:      "Queequeg",
		PartySize:      3,
		ScheduledStart: start,
		ScheduledEnd:   start.Add(4 * time.Hour),
		Status:         status,
		Version:        2,
	}
}

func TestPlaceWeatherHoldAutoOffers(t *testing.T) {
	store := new(MockStore)
	bus := new(MockEventBus)
	svc := newWeatherService(store, bus)
	ctx := context.Background()

	r := heldCandidate(models.StatusConfirmed)
	// Blackout on the +14 day candidate; +7 and +21 survive.
	blocked := r.ScheduledStart.AddDate(0, 0, 14).Format("2006-01-02")
	held := *r
	held.Status = models.StatusWeatherHold
	held.HoldReason = "small craft advisory"

	store.On("GetReservation", ctx, r.ID).Return(r, nil)
	store.On("GetOffering", ctx, testOfferingID).Return(testOffering(), nil)
	store.On("GetCaptain", ctx, testCaptainID).Return(testCaptain(), nil)
	store.On("GetWindows", ctx, testCaptainID).Return(allWeekWindows(), nil)
	store.On("GetBlackouts", ctx, testCaptainID, mock.Anything, mock.Anything).
		Return([]*models.BlackoutDate{{CaptainID: testCaptainID, Date: blocked}}, nil)
	store.On("PlaceHoldTx", ctx, r.ID, int64(2), "small craft advisory", mock.Anything).
		Return(&held, nil)
	store.On("AppendAudit", ctx, mock.Anything).Return(nil)
	bus.On("PublishJSON", events.EventWeatherHoldPlaced, mock.Anything).Return(nil)

	got, offers, err := svc.PlaceWeatherHold(ctx, domain.WeatherHoldRequest{
		ReservationID: r.ID,
		Reason:        "small craft advisory",
		AutoGenerate:  true,
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusWeatherHold, got.Status)
	require.Len(t, offers, 2)
	assert.True(t, offers[0].ProposedStart.Equal(r.ScheduledStart.AddDate(0, 0, 7)))
	assert.True(t, offers[1].ProposedStart.Equal(r.ScheduledStart.AddDate(0, 0, 21)))
	for _, o := range offers {
		assert.True(t, o.ProposedEnd.Equal(o.ProposedStart.Add(4*time.Hour)))
		assert.False(t, o.ExpiresAt.IsZero())
	}
	store.AssertExpectations(t)
	bus.AssertExpectations(t)
}

func TestPlaceWeatherHoldExplicitProposalsVerbatim(t *testing.T) {
	store := new(MockStore)
	bus := new(MockEventBus)
	svc := newWeatherService(store, bus)
	ctx := context.Background()

	r := heldCandidate(models.StatusConfirmed)
	held := *r
	held.Status = models.StatusWeatherHold

	// Captain proposals skip window and blackout filtering; the second one
	// starts at 22:00 and is persisted anyway.
	first := futureStart().AddDate(0, 0, 5)
	second := futureStart().AddDate(0, 0, 6).Add(13 * time.Hour)

	store.On("GetReservation", ctx, r.ID).Return(r, nil)
	store.On("GetOffering", ctx, testOfferingID).Return(testOffering(), nil)
	store.On("GetCaptain", ctx, testCaptainID).Return(testCaptain(), nil)
	store.On("PlaceHoldTx", ctx, r.ID, int64(2), "fog", mock.Anything).Return(&held, nil)
	store.On("AppendAudit", ctx, mock.Anything).Return(nil)
	bus.On("PublishJSON", events.EventWeatherHoldPlaced, mock.Anything).Return(nil)

	_, offers, err := svc.PlaceWeatherHold(ctx, domain.WeatherHoldRequest{
		ReservationID:  r.ID,
		Reason:         "fog",
		ProposedStarts: []time.Time{first, second},
	})
	require.NoError(t, err)
	require.Len(t, offers, 2)
	assert.True(t, offers[0].ProposedStart.Equal(first))
	assert.True(t, offers[1].ProposedStart.Equal(second))
	assert.True(t, offers[1].ProposedEnd.Equal(second.Add(4*time.Hour)))
	store.AssertNotCalled(t, "GetWindows", mock.Anything, mock.Anything)
}

func TestPlaceWeatherHoldRequiresReason(t *testing.T) {
	store := new(MockStore)
	bus := new(MockEventBus)
	svc := newWeatherService(store, bus)

	_, _, err := svc.PlaceWeatherHold(context.Background(), domain.WeatherHoldRequest{
		ReservationID: uuid.NewString(),
	})
	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "reason", vErr.Field)
	store.AssertNotCalled(t, "GetReservation", mock.Anything, mock.Anything)
}

func TestPlaceWeatherHoldInvalidFromTerminal(t *testing.T) {
	store := new(MockStore)
	bus := new(MockEventBus)
	svc := newWeatherService(store, bus)
	ctx := context.Background()

	r := heldCandidate(models.StatusCancelled)
	store.On("GetReservation", ctx, r.ID).Return(r, nil)

	_, _, err := svc.PlaceWeatherHold(ctx, domain.WeatherHoldRequest{
		ReservationID: r.ID, Reason: "storm", AutoGenerate: true,
	})
	var itErr *domain.InvalidTransitionError
	require.ErrorAs(t, err, &itErr)
	assert.Equal(t, models.StatusCancelled, itErr.From)
	assert.Equal(t, models.StatusWeatherHold, itErr.To)
	store.AssertNotCalled(t, "PlaceHoldTx", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSelectRescheduleOffer(t *testing.T) {
	store := new(MockStore)
	bus := new(MockEventBus)
	svc := newWeatherService(store, bus)
	ctx := context.Background()

	r := heldCandidate(models.StatusWeatherHold)
	offerID := uuid.NewString()
	updated := *r
	updated.Status = models.StatusRescheduled
	updated.ScheduledStart = r.ScheduledStart.AddDate(0, 0, 7)
	updated.ScheduledEnd = r.ScheduledEnd.AddDate(0, 0, 7)
	updated.Version = 3

	store.On("GetReservation", ctx, r.ID).Return(r, nil)
	store.On("GetCaptain", ctx, testCaptainID).Return(testCaptain(), nil)
	store.On("SelectOfferTx", ctx, r.ID, offerID, time.Duration(0), models.ActorGuest).
		Return(&updated, nil)
	bus.On("PublishJSON", events.EventReservationRescheduled, mock.Anything).Return(nil)

	got, err := svc.SelectRescheduleOffer(ctx, r.ID, offerID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRescheduled, got.Status)
	assert.True(t, got.ScheduledStart.Equal(updated.ScheduledStart))
	store.AssertExpectations(t)
	bus.AssertExpectations(t)
}

func TestSelectRescheduleOfferPropagatesExpiry(t *testing.T) {
	store := new(MockStore)
	bus := new(MockEventBus)
	svc := newWeatherService(store, bus)
	ctx := context.Background()

	r := heldCandidate(models.StatusWeatherHold)
	offerID := uuid.NewString()

	store.On("GetReservation", ctx, r.ID).Return(r, nil)
	store.On("GetCaptain", ctx, testCaptainID).Return(testCaptain(), nil)
	store.On("SelectOfferTx", ctx, r.ID, offerID, time.Duration(0), models.ActorGuest).
		Return(nil, &domain.ExpiredOfferError{OfferID: offerID})

	_, err := svc.SelectRescheduleOffer(ctx, r.ID, offerID)
	var expErr *domain.ExpiredOfferError
	require.ErrorAs(t, err, &expErr)
	bus.AssertNotCalled(t, "PublishJSON", mock.Anything, mock.Anything)
}

func TestRemoveWeatherHold(t *testing.T) {
	store := new(MockStore)
	bus := new(MockEventBus)
	svc := newWeatherService(store, bus)
	ctx := context.Background()

	r := heldCandidate(models.StatusWeatherHold)
	restored := *r
	restored.Status = models.StatusConfirmed
	restored.HoldReason = ""
	restored.Version = 3

	store.On("GetReservation", ctx, r.ID).Return(r, nil)
	store.On("RemoveHoldTx", ctx, r.ID, int64(2)).Return(&restored, nil)
	store.On("AppendAudit", ctx, mock.Anything).Return(nil)
	bus.On("PublishJSON", events.EventWeatherHoldRemoved, mock.Anything).Return(nil)

	got, err := svc.RemoveWeatherHold(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, got.Status)
	assert.Empty(t, got.HoldReason)
	store.AssertExpectations(t)
}

func TestRemoveWeatherHoldWrongState(t *testing.T) {
	store := new(MockStore)
	bus := new(MockEventBus)
	svc := newWeatherService(store, bus)
	ctx := context.Background()

	r := heldCandidate(models.StatusConfirmed)
	store.On("GetReservation", ctx, r.ID).Return(r, nil)

	_, err := svc.RemoveWeatherHold(ctx, r.ID)
	var itErr *domain.InvalidTransitionError
	require.ErrorAs(t, err, &itErr)
	assert.Equal(t, models.StatusConfirmed, itErr.From)
	store.AssertNotCalled(t, "RemoveHoldTx", mock.Anything, mock.Anything, mock.Anything)
}
