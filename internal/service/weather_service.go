package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"helmsman/internal/calendar"
	"helmsman/internal/domain"
	"helmsman/internal/events"
	"helmsman/internal/metrics"
	"helmsman/internal/models"
)

// WeatherService coordinates weather holds: placing a hold with a batch of
// reschedule offers, claiming an offer, and releasing the hold. Capacity is
// never freed while a hold is active; the original trip keeps its seats
// until the guest moves or a terminal transition releases them.
type WeatherService struct {
	store           domain.Store
	cache           domain.SlotCache
	eventBus        domain.EventPublisher
	offerExpiryDays int
	logger          *zerolog.Logger
	now             func() time.Time
}

func NewWeatherService(store domain.Store, cache domain.SlotCache, eventBus domain.EventPublisher, offerExpiryDays int, logger *zerolog.Logger) *WeatherService {
	if offerExpiryDays <= 0 {
		offerExpiryDays = models.DefaultOfferExpiryDays
	}
	return &WeatherService{
		store:           store,
		cache:           cache,
		eventBus:        eventBus,
		offerExpiryDays: offerExpiryDays,
		logger:          logger,
		now:             time.Now,
	}
}

func (s *WeatherService) PlaceWeatherHold(ctx context.Context, req domain.WeatherHoldRequest) (*models.Reservation, []*models.RescheduleOffer, error) {
	if req.Reason == "" {
		return nil, nil, &domain.ValidationError{Field: "reason", Reason: "required"}
	}

	r, err := s.store.GetReservation(ctx, req.ReservationID)
	if err != nil {
		return nil, nil, err
	}
	if !models.CanTransition(r.Status, models.StatusWeatherHold) {
		return nil, nil, &domain.InvalidTransitionError{From: r.Status, To: models.StatusWeatherHold}
	}

	offering, err := s.store.GetOffering(ctx, r.OfferingID)
	if err != nil {
		return nil, nil, err
	}
	captain, err := s.store.GetCaptain(ctx, r.CaptainID)
	if err != nil {
		return nil, nil, err
	}

	offers, err := s.buildOffers(ctx, req, r, offering, captain)
	if err != nil {
		return nil, nil, err
	}

	held, err := s.store.PlaceHoldTx(ctx, r.ID, r.Version, req.Reason, offers)
	if err != nil {
		return nil, nil, err
	}

	entry := &models.AuditEntry{
		ReservationID: r.ID,
		Actor:         models.ActorCaptain,
		Action:        "weather_hold",
		OldStart:      &r.ScheduledStart,
		OldEnd:        &r.ScheduledEnd,
		Details:       req.Reason,
	}
	if err := s.store.AppendAudit(ctx, entry); err != nil {
		s.logger.Error().Err(err).Str("reservation_id", r.ID).Msg("failed to append audit entry")
	}
	s.publishReservation(events.EventWeatherHoldPlaced, held, models.ActorCaptain)
	metrics.IncWeatherHold("placed")

	s.logger.Info().
		Str("reservation_id", r.ID).
		Str("reason", req.Reason).
		Int("offers", len(offers)).
		Msg("weather hold placed")
	return held, offers, nil
}

// buildOffers assembles the reschedule batch. Auto-generated candidates are
// the same wall-clock slot 7, 14 and 21 days out, kept only when they land on
// a working day, inside a window and outside blackouts. Explicit captain
// proposals are persisted verbatim: the captain knows their calendar, and
// selection re-checks capacity in the commit transaction anyway.
func (s *WeatherService) buildOffers(ctx context.Context, req domain.WeatherHoldRequest, r *models.Reservation, offering *models.TripOffering, captain *models.Captain) ([]*models.RescheduleOffer, error) {
	duration := offering.Duration()
	expiry := s.now().AddDate(0, 0, s.offerExpiryDays)

	if !req.AutoGenerate {
		var offers []*models.RescheduleOffer
		for _, start := range req.ProposedStarts {
			offers = append(offers, &models.RescheduleOffer{
				ReservationID: r.ID,
				ProposedStart: start,
				ProposedEnd:   start.Add(duration),
				ExpiresAt:     expiry,
			})
		}
		return offers, nil
	}

	var starts []time.Time
	for _, d := range models.RescheduleOffsetsDays {
		starts = append(starts, r.ScheduledStart.AddDate(0, 0, d))
	}

	windows, err := s.store.GetWindows(ctx, captain.ID)
	if err != nil {
		return nil, err
	}

	loc := captain.Location()
	var rangeStart, rangeEnd time.Time
	for _, t := range starts {
		if rangeStart.IsZero() || t.Before(rangeStart) {
			rangeStart = t
		}
		if t.After(rangeEnd) {
			rangeEnd = t
		}
	}
	blackouts, err := s.store.GetBlackouts(ctx, captain.ID,
		calendar.DateKey(rangeStart, loc), calendar.DateKey(rangeEnd, loc))
	if err != nil {
		return nil, err
	}
	blackedOut := make(map[string]bool, len(blackouts))
	for _, b := range blackouts {
		blackedOut[b.Date] = true
	}

	earliest := s.now().Add(captain.MinNotice())

	var offers []*models.RescheduleOffer
	for _, start := range starts {
		end := start.Add(duration)
		if start.Before(earliest) {
			continue
		}
		if blackedOut[calendar.DateKey(start, loc)] {
			continue
		}
		if !withinAnyWindow(windows, captain, start, end) {
			continue
		}
		offers = append(offers, &models.RescheduleOffer{
			ReservationID: r.ID,
			ProposedStart: start,
			ProposedEnd:   end,
			ExpiresAt:     expiry,
		})
	}
	return offers, nil
}

// SelectRescheduleOffer claims one offer from the batch. The store re-checks
// offer expiry, hold status, capacity and buffer in a single transaction.
func (s *WeatherService) SelectRescheduleOffer(ctx context.Context, reservationID, offerID string) (*models.Reservation, error) {
	r, err := s.store.GetReservation(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	captain, err := s.store.GetCaptain(ctx, r.CaptainID)
	if err != nil {
		return nil, err
	}

	updated, err := s.store.SelectOfferTx(ctx, reservationID, offerID, captain.Buffer(), models.ActorGuest)
	if err != nil {
		return nil, err
	}

	s.publishReservation(events.EventReservationRescheduled, updated, models.ActorGuest)
	metrics.IncWeatherHold("rescheduled")
	// Старый месяц освободился, новый занялся
	invalidateMonths(ctx, s.cache, s.logger, captain,
		r.ScheduledStart, r.ScheduledEnd, updated.ScheduledStart, updated.ScheduledEnd)

	s.logger.Info().
		Str("reservation_id", reservationID).
		Str("offer_id", offerID).
		Time("new_start", updated.ScheduledStart).
		Msg("reservation rescheduled")
	return updated, nil
}

// RemoveWeatherHold reverts the reservation to confirmed at its original
// slot and discards pending offers.
func (s *WeatherService) RemoveWeatherHold(ctx context.Context, reservationID string) (*models.Reservation, error) {
	r, err := s.store.GetReservation(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if r.Status != models.StatusWeatherHold {
		return nil, &domain.InvalidTransitionError{From: r.Status, To: models.StatusConfirmed}
	}

	updated, err := s.store.RemoveHoldTx(ctx, reservationID, r.Version)
	if err != nil {
		return nil, err
	}

	entry := &models.AuditEntry{
		ReservationID: reservationID,
		Actor:         models.ActorCaptain,
		Action:        "weather_hold_removed",
	}
	if err := s.store.AppendAudit(ctx, entry); err != nil {
		s.logger.Error().Err(err).Str("reservation_id", reservationID).Msg("failed to append audit entry")
	}
	s.publishReservation(events.EventWeatherHoldRemoved, updated, models.ActorCaptain)
	metrics.IncWeatherHold("removed")

	s.logger.Info().Str("reservation_id", reservationID).Msg("weather hold removed")
	return updated, nil
}

func (s *WeatherService) publishReservation(eventType string, r *models.Reservation, actor string) {
	payload := events.ReservationEventPayload{
		ReservationID: r.ID,
		CaptainID:     r.CaptainID,
		VesselID:      r.VesselID,
		OfferingID:    r.OfferingID,
		GuestName:     r.GuestName,
		Status:        string(r.Status),
		PartySize:     r.PartySize,
		Start:         r.ScheduledStart,
		End:           r.ScheduledEnd,
		HoldReason:    r.HoldReason,
		Actor:         actor,
	}
	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event", eventType).Msg("failed to publish event")
	}
}
