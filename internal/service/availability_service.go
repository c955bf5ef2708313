package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"helmsman/internal/availability"
	"helmsman/internal/calendar"
	"helmsman/internal/domain"
	"helmsman/internal/metrics"
	"helmsman/internal/models"
)

// AvailabilityService is the read-through layer over the month computer:
// cache hit returns as-is, miss recomputes from the store and backfills.
type AvailabilityService struct {
	store  domain.Store
	cache  domain.SlotCache
	logger *zerolog.Logger
	now    func() time.Time
}

func NewAvailabilityService(store domain.Store, cache domain.SlotCache, logger *zerolog.Logger) *AvailabilityService {
	return &AvailabilityService{
		store:  store,
		cache:  cache,
		logger: logger,
		now:    time.Now,
	}
}

func (s *AvailabilityService) GetAvailability(ctx context.Context, offeringID string, ym calendar.YearMonth) (models.DateSlotMap, error) {
	if _, err := uuid.Parse(offeringID); err != nil {
		return nil, &domain.ValidationError{Field: "offering_id", Reason: "must be a valid uuid"}
	}

	offering, err := s.store.GetOffering(ctx, offeringID)
	if err != nil {
		return nil, err
	}
	captain, err := s.store.GetCaptain(ctx, offering.CaptainID)
	if err != nil {
		return nil, err
	}

	month := ym.String()
	if cached, ok, err := s.cache.Get(ctx, captain.ID, month, offering.ID); err == nil && ok {
		metrics.IncSlotCacheLookup("hit")
		return cached, nil
	} else if err != nil {
		// Кэш не обязателен: считаем заново
		s.logger.Warn().Err(err).Str("captain_id", captain.ID).Msg("slot cache get failed")
	}
	metrics.IncSlotCacheLookup("miss")

	slots, degraded, err := s.compute(ctx, captain, offering, ym)
	if err != nil {
		return nil, err
	}
	if degraded {
		// Пустой месяц из-за сбоя не кэшируем: следующий запрос пересчитает
		return slots, nil
	}

	if err := s.cache.Set(ctx, captain.ID, month, offering.ID, slots); err != nil {
		s.logger.Warn().Err(err).Str("captain_id", captain.ID).Msg("slot cache set failed")
	}
	return slots, nil
}

// compute builds the month from live store rows. If the captain's windows or
// blackouts cannot be read we do not guess: the month comes back empty
// (degraded=true) rather than showing slots the captain may not have.
func (s *AvailabilityService) compute(ctx context.Context, captain *models.Captain, offering *models.TripOffering, ym calendar.YearMonth) (models.DateSlotMap, bool, error) {
	vessels, err := s.store.GetCaptainVessels(ctx, captain.ID)
	if err != nil {
		return nil, false, err
	}
	windows, err := s.store.GetWindows(ctx, captain.ID)
	if err != nil {
		s.logger.Warn().Err(err).Str("captain_id", captain.ID).Str("month", ym.String()).
			Msg("windows read failed, reporting empty month")
		return models.DateSlotMap{}, true, nil
	}

	loc := captain.Location()
	monthStart := time.Date(ym.Year, ym.Month, 1, 0, 0, 0, 0, loc)
	monthEnd := time.Date(ym.Year, ym.Month, ym.Days(), 23, 59, 59, 0, loc)

	blackouts, err := s.store.GetBlackouts(ctx, captain.ID,
		monthStart.Format("2006-01-02"), monthEnd.Format("2006-01-02"))
	if err != nil {
		s.logger.Warn().Err(err).Str("captain_id", captain.ID).Str("month", ym.String()).
			Msg("blackouts read failed, reporting empty month")
		return models.DateSlotMap{}, true, nil
	}

	// Захватываем сутки с обеих сторон: рейсы могут пересекать границу месяца
	reservations, err := s.store.CaptainReservationsInRange(ctx, captain.ID,
		monthStart.AddDate(0, 0, -1), monthEnd.AddDate(0, 0, 1))
	if err != nil {
		return nil, false, err
	}

	return availability.Compute(availability.MonthContext{
		Captain:      captain,
		Offering:     offering,
		Vessels:      vessels,
		Windows:      windows,
		Blackouts:    blackouts,
		Reservations: reservations,
		Month:        ym,
		Now:          s.now(),
	}), false, nil
}

// invalidateMonths drops cached availability for every month an interval
// touches, in the captain's local calendar.
func invalidateMonths(ctx context.Context, cache domain.SlotCache, logger *zerolog.Logger, captain *models.Captain, intervals ...time.Time) {
	loc := captain.Location()
	seen := make(map[string]bool)
	var months []string
	for _, t := range intervals {
		if t.IsZero() {
			continue
		}
		m := calendar.YearMonthOf(t, loc).String()
		if !seen[m] {
			seen[m] = true
			months = append(months, m)
		}
	}
	if len(months) == 0 {
		return
	}
	if err := cache.Invalidate(ctx, captain.ID, months...); err != nil {
		logger.Warn().Err(err).Str("captain_id", captain.ID).Strs("months", months).Msg("slot cache invalidation failed")
	}
}
