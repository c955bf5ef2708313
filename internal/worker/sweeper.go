package worker

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"helmsman/internal/calendar"
	"helmsman/internal/domain"
	"helmsman/internal/events"
	"helmsman/internal/metrics"
	"helmsman/internal/models"
)

// Sweeper is the background janitor: it expires pending_deposit reservations
// whose deposit window lapsed and purges reschedule offers past their expiry.
// Expiration goes through the same versioned status update as user-driven
// transitions, so a deposit that lands mid-sweep wins the race.
type Sweeper struct {
	store          domain.Store
	cache          domain.SlotCache
	eventBus       domain.EventPublisher
	depositTimeout time.Duration
	interval       time.Duration
	retryPolicy    RetryPolicy
	logger         *zerolog.Logger
	now            func() time.Time
}

func NewSweeper(store domain.Store, cache domain.SlotCache, eventBus domain.EventPublisher, depositTimeout, interval time.Duration, logger *zerolog.Logger) *Sweeper {
	if depositTimeout <= 0 {
		depositTimeout = time.Duration(models.DefaultDepositTimeoutHours) * time.Hour
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{
		store:          store,
		cache:          cache,
		eventBus:       eventBus,
		depositTimeout: depositTimeout,
		interval:       interval,
		retryPolicy:    defaultSweepRetry(),
		logger:         logger,
		now:            time.Now,
	}
}

// Run sweeps on a fixed interval until ctx is cancelled. Consecutive failures
// back off exponentially instead of hammering the store.
func (s *Sweeper) Run(ctx context.Context) {
	s.logger.Info().Dur("interval", s.interval).Msg("sweeper started")
	defer s.logger.Info().Msg("sweeper stopped")

	failures := 0
	timer := time.NewTimer(s.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		if _, _, err := s.Sweep(ctx); err != nil {
			failures++
			if s.retryPolicy.MaxRetries > 0 && failures > s.retryPolicy.MaxRetries {
				// Бэкофф исчерпан: ждём обычный интервал и начинаем заново
				s.logger.Error().Err(err).Int("consecutive_failures", failures).Msg("sweep keeps failing, resuming regular cadence")
				failures = 0
				timer.Reset(s.interval)
				continue
			}
			delay := s.retryPolicy.NextDelay(failures)
			s.logger.Error().Err(err).Int("consecutive_failures", failures).Dur("retry_in", delay).Msg("sweep failed")
			timer.Reset(delay)
			continue
		}
		failures = 0
		timer.Reset(s.interval)
	}
}

// Sweep runs one pass and reports how many reservations were expired and how
// many offers were purged.
func (s *Sweeper) Sweep(ctx context.Context) (int, int64, error) {
	now := s.now()

	stale, err := s.store.StalePendingDeposits(ctx, now.Add(-s.depositTimeout))
	if err != nil {
		return 0, 0, err
	}

	captains := make(map[string]*models.Captain)
	expired := 0
	for _, r := range stale {
		if !models.CanTransition(r.Status, models.StatusExpired) {
			continue
		}
		err := s.store.UpdateReservationStatusWithVersion(ctx, r.ID, r.Version, models.StatusExpired)
		if errors.Is(err, domain.ErrConcurrentModification) {
			// Кто-то успел оплатить или отменить — пропускаем
			s.logger.Debug().Str("reservation_id", r.ID).Msg("reservation changed mid-sweep, skipping")
			continue
		}
		if err != nil {
			return expired, 0, err
		}
		expired++

		entry := &models.AuditEntry{
			ReservationID: r.ID,
			Actor:         models.ActorSystem,
			Action:        "status_change",
			Details:       "pending_deposit -> expired",
		}
		if err := s.store.AppendAudit(ctx, entry); err != nil {
			s.logger.Error().Err(err).Str("reservation_id", r.ID).Msg("failed to append audit entry")
		}
		s.publishExpired(r)
		s.invalidate(ctx, captains, r)
	}

	purged, err := s.store.DeleteExpiredOffers(ctx, now)
	if err != nil {
		return expired, 0, err
	}

	if expired > 0 {
		metrics.AddSweeperExpirations("reservations", expired)
	}
	if purged > 0 {
		metrics.AddSweeperExpirations("offers", int(purged))
	}
	if expired > 0 || purged > 0 {
		s.logger.Info().Int("reservations_expired", expired).Int64("offers_purged", purged).Msg("sweep completed")
	}
	return expired, purged, nil
}

func (s *Sweeper) publishExpired(r *models.Reservation) {
	payload := events.ReservationEventPayload{
		ReservationID: r.ID,
		CaptainID:     r.CaptainID,
		VesselID:      r.VesselID,
		OfferingID:    r.OfferingID,
		GuestName:     r.GuestName,
		Status:        string(models.StatusExpired),
		PartySize:     r.PartySize,
		Start:         r.ScheduledStart,
		End:           r.ScheduledEnd,
		Actor:         models.ActorSystem,
	}
	if err := s.eventBus.PublishJSON(events.EventReservationExpired, payload); err != nil {
		s.logger.Error().Err(err).Str("reservation_id", r.ID).Msg("failed to publish event")
	}
}

// invalidate drops the cached months the expired trip touched. Captains are
// memoized per pass since stale reservations cluster by operator.
func (s *Sweeper) invalidate(ctx context.Context, captains map[string]*models.Captain, r *models.Reservation) {
	captain, ok := captains[r.CaptainID]
	if !ok {
		var err error
		captain, err = s.store.GetCaptain(ctx, r.CaptainID)
		if err != nil {
			s.logger.Warn().Err(err).Str("captain_id", r.CaptainID).Msg("captain lookup failed, skipping cache invalidation")
			return
		}
		captains[r.CaptainID] = captain
	}

	loc := captain.Location()
	seen := make(map[string]bool)
	var months []string
	for _, t := range []time.Time{r.ScheduledStart, r.ScheduledEnd} {
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
	if err := s.cache.Invalidate(ctx, captain.ID, months...); err != nil {
		s.logger.Warn().Err(err).Str("captain_id", captain.ID).Msg("slot cache invalidation failed")
	}
}
