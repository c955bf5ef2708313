package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"helmsman/internal/calendar"
	"helmsman/internal/conflict"
	"helmsman/internal/domain"
	"helmsman/internal/events"
	"helmsman/internal/metrics"
	"helmsman/internal/models"
)

type ReservationService struct {
	store        domain.Store
	cache        domain.SlotCache
	detector     *conflict.Detector
	eventBus     domain.EventPublisher
	maxPartySize int
	logger       *zerolog.Logger
	now          func() time.Time
}

func NewReservationService(store domain.Store, cache domain.SlotCache, eventBus domain.EventPublisher, maxPartySize int, logger *zerolog.Logger) *ReservationService {
	if maxPartySize <= 0 {
		maxPartySize = models.DefaultMaxPartySize
	}
	return &ReservationService{
		store:        store,
		cache:        cache,
		detector:     conflict.NewDetector(store),
		eventBus:     eventBus,
		maxPartySize: maxPartySize,
		logger:       logger,
		now:          time.Now,
	}
}

// CreateReservation validates the request, assigns a vessel and writes the
// reservation. The detector pass here is advisory; the store re-runs capacity
// and buffer checks inside the insert transaction, so two guests racing for
// the last seats cannot both win.
func (s *ReservationService) CreateReservation(ctx context.Context, req domain.CreateReservationRequest) (*models.Reservation, error) {
	if _, err := uuid.Parse(req.OfferingID); err != nil {
		return nil, &domain.ValidationError{Field: "offering_id", Reason: "must be a valid uuid"}
	}
	if req.PartySize < 1 || req.PartySize > s.maxPartySize {
		return nil, &domain.ValidationError{Field: "party_size", Reason: "out of range"}
	}
	if req.GuestName == "" {
		return nil, &domain.ValidationError{Field: "guest_name", Reason: "required"}
	}
	if req.Start.IsZero() {
		return nil, &domain.ValidationError{Field: "start", Reason: "required"}
	}

	offering, err := s.store.GetOffering(ctx, req.OfferingID)
	if err != nil {
		return nil, err
	}
	if !offering.IsActive {
		return nil, &domain.ValidationError{Field: "offering_id", Reason: "offering is inactive"}
	}
	captain, err := s.store.GetCaptain(ctx, offering.CaptainID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	end := req.Start.Add(offering.Duration())

	if req.Start.Before(now) {
		return nil, &domain.ValidationError{Field: "start", Reason: "in the past"}
	}
	if req.Start.After(now.AddDate(0, 0, captain.Horizon())) {
		return nil, &domain.ValidationError{Field: "start", Reason: "beyond booking horizon"}
	}
	// Ручная запись капитана обходит окна и минимальное уведомление
	if !req.ManualOverride {
		if req.Start.Before(now.Add(captain.MinNotice())) {
			return nil, &domain.ValidationError{Field: "start", Reason: "inside minimum notice period"}
		}
		windows, err := s.store.GetWindows(ctx, captain.ID)
		if err != nil {
			return nil, err
		}
		if !withinAnyWindow(windows, captain, req.Start, end) {
			return nil, &domain.ValidationError{Field: "start", Reason: "outside availability windows"}
		}
	}

	vessels, err := s.store.GetCaptainVessels(ctx, captain.ID)
	if err != nil {
		return nil, err
	}
	if len(vessels) == 0 {
		metrics.IncReservationRejected("capacity")
		return nil, &domain.CapacityError{Requested: req.PartySize, Remaining: 0}
	}

	vesselID, err := s.pickVessel(ctx, vessels, req, end, captain.Buffer())
	if err != nil {
		return nil, err
	}

	status := models.StatusConfirmed
	if captain.DepositRequired {
		status = models.StatusPendingDeposit
	}

	r := &models.Reservation{
		CaptainID:      captain.ID,
		VesselID:       vesselID,
		OfferingID:     offering.ID,
		ScheduledStart: req.Start,
		ScheduledEnd:   end,
		PartySize:      req.PartySize,
		Status:         status,
		PaymentStatus:  models.PaymentUnpaid,
		GuestName:      req.GuestName,
		GuestContact:   req.GuestContact,
		ManualOverride: req.ManualOverride,
	}

	if err := s.store.CreateReservationTx(ctx, r, captain.Buffer()); err != nil {
		var capErr *domain.CapacityError
		var conflictErr *domain.ConflictError
		switch {
		case errors.As(err, &capErr):
			metrics.IncReservationRejected("capacity")
		case errors.As(err, &conflictErr):
			metrics.IncReservationRejected(conflictErr.Reason)
		}
		return nil, err
	}

	s.audit(ctx, r.ID, req.Actor, "create", nil, nil, &r.ScheduledStart, &r.ScheduledEnd, "")
	s.publish(events.EventReservationCreated, r, req.Actor)
	invalidateMonths(ctx, s.cache, s.logger, captain, r.ScheduledStart, r.ScheduledEnd)
	metrics.IncReservationCreated(string(status))

	s.logger.Info().
		Str("reservation_id", r.ID).
		Str("vessel_id", r.VesselID).
		Time("start", r.ScheduledStart).
		Int("party_size", r.PartySize).
		Str("status", string(status)).
		Msg("reservation created")
	return r, nil
}

// pickVessel returns the requested vessel after checking it fits, or
// auto-assigns the smallest vessel whose capacity and schedule accept the
// party. Vessels arrive sorted by capacity ascending.
func (s *ReservationService) pickVessel(ctx context.Context, vessels []*models.Vessel, req domain.CreateReservationRequest, end time.Time, buffer time.Duration) (string, error) {
	if req.VesselID != "" {
		for _, v := range vessels {
			if v.ID == req.VesselID {
				if v.Capacity < req.PartySize {
					metrics.IncReservationRejected("capacity")
					return "", &domain.CapacityError{Requested: req.PartySize, Remaining: v.Capacity}
				}
				return v.ID, nil
			}
		}
		return "", &domain.NotFoundError{Kind: "vessel", ID: req.VesselID}
	}

	bestRemaining := 0
	sawBufferConflict := false
	var bufferIDs []string
	for _, v := range vessels {
		if v.Capacity < req.PartySize {
			if v.Capacity > bestRemaining {
				bestRemaining = v.Capacity
			}
			continue
		}
		result, err := s.detector.Check(ctx, v.ID, req.Start, end, buffer, "")
		if err != nil {
			return "", err
		}
		remaining := v.Capacity - result.BookedDuringOverlap()
		if remaining >= req.PartySize && !result.BufferViolated() {
			return v.ID, nil
		}
		if result.BufferViolated() {
			sawBufferConflict = true
			bufferIDs = append(bufferIDs, result.ConflictingIDs()...)
		}
		if remaining > bestRemaining {
			bestRemaining = remaining
		}
	}

	if sawBufferConflict && bestRemaining < req.PartySize {
		metrics.IncReservationRejected("buffer")
		return "", &domain.ConflictError{Reason: "buffer", Conflicting: bufferIDs}
	}
	metrics.IncReservationRejected("capacity")
	if bestRemaining < 0 {
		bestRemaining = 0
	}
	return "", &domain.CapacityError{Requested: req.PartySize, Remaining: bestRemaining}
}

// TransitionReservation drives the non-weather edges of the state machine.
// Weather transitions (hold, reschedule, hold release) go through the
// weather coordinator, which also manages the offer batch.
func (s *ReservationService) TransitionReservation(ctx context.Context, id string, target models.Status, tc domain.TransitionContext) (*models.Reservation, error) {
	if !models.ValidStatus(target) {
		return nil, &domain.ValidationError{Field: "target_status", Reason: "unknown status"}
	}
	if target == models.StatusWeatherHold || target == models.StatusRescheduled {
		return nil, &domain.ValidationError{Field: "target_status", Reason: "weather transitions go through hold operations"}
	}

	r, err := s.store.GetReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	if !models.CanTransition(r.Status, target) {
		return nil, &domain.InvalidTransitionError{From: r.Status, To: target}
	}

	// Снятие холда идет через транзакцию, которая удаляет предложения
	if r.Status == models.StatusWeatherHold && target == models.StatusConfirmed {
		updated, err := s.store.RemoveHoldTx(ctx, id, r.Version)
		if err != nil {
			return nil, err
		}
		s.audit(ctx, id, tc.Actor, "status_change", &r.ScheduledStart, &r.ScheduledEnd, nil, nil,
			string(r.Status)+" -> "+string(target))
		s.publish(events.EventWeatherHoldRemoved, updated, tc.Actor)
		return updated, nil
	}

	if err := s.store.UpdateReservationStatusWithVersion(ctx, id, r.Version, target); err != nil {
		return nil, err
	}

	// Подтверждение означает, что депозит получен
	if r.Status == models.StatusPendingDeposit && target == models.StatusConfirmed {
		if err := s.store.SetPaymentStatus(ctx, id, models.PaymentDepositPaid); err != nil {
			s.logger.Error().Err(err).Str("reservation_id", id).Msg("failed to set payment status")
		}
	}

	updated, err := s.store.GetReservation(ctx, id)
	if err != nil {
		return nil, err
	}

	s.audit(ctx, id, tc.Actor, "status_change", &r.ScheduledStart, &r.ScheduledEnd, nil, nil,
		string(r.Status)+" -> "+string(target))
	s.publish(transitionEvent(target), updated, tc.Actor)

	// Терминальные статусы освобождают места
	if target.IsTerminal() {
		if captain, err := s.store.GetCaptain(ctx, r.CaptainID); err == nil {
			invalidateMonths(ctx, s.cache, s.logger, captain, r.ScheduledStart, r.ScheduledEnd)
		}
	}

	s.logger.Info().
		Str("reservation_id", id).
		Str("from", string(r.Status)).
		Str("to", string(target)).
		Str("actor", tc.Actor).
		Msg("reservation transitioned")
	return updated, nil
}

func (s *ReservationService) GetReservation(ctx context.Context, id string) (*models.Reservation, error) {
	return s.store.GetReservation(ctx, id)
}

func transitionEvent(target models.Status) string {
	switch target {
	case models.StatusConfirmed:
		return events.EventReservationConfirmed
	case models.StatusCancelled:
		return events.EventReservationCancelled
	case models.StatusCompleted:
		return events.EventReservationCompleted
	case models.StatusExpired:
		return events.EventReservationExpired
	case models.StatusNoShow:
		return events.EventReservationNoShow
	}
	return "reservation_" + string(target)
}

func withinAnyWindow(windows []*models.AvailabilityWindow, captain *models.Captain, start, end time.Time) bool {
	loc := captain.Location()
	dow := calendar.DayOfWeek(start, loc)
	startClock := calendar.ClockOf(start, loc)
	endClock := startClock.Add(end.Sub(start))
	for _, w := range windows {
		if w.DayOfWeek != dow || !w.IsActive {
			continue
		}
		winStart, winEnd, ok := w.Bounds()
		if !ok {
			continue
		}
		if calendar.WithinWindow(startClock, endClock, winStart, winEnd) {
			return true
		}
	}
	return false
}

func (s *ReservationService) audit(ctx context.Context, reservationID, actor, action string, oldStart, oldEnd, newStart, newEnd *time.Time, details string) {
	if actor == "" {
		actor = models.ActorSystem
	}
	entry := &models.AuditEntry{
		ReservationID: reservationID,
		Actor:         actor,
		Action:        action,
		OldStart:      oldStart,
		OldEnd:        oldEnd,
		NewStart:      newStart,
		NewEnd:        newEnd,
		Details:       details,
	}
	if err := s.store.AppendAudit(ctx, entry); err != nil {
		s.logger.Error().Err(err).Str("reservation_id", reservationID).Msg("failed to append audit entry")
	}
}

func (s *ReservationService) publish(eventType string, r *models.Reservation, actor string) {
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
