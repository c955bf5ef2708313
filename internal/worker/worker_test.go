package worker

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"helmsman/internal/database"
	"helmsman/internal/models"
	"helmsman/internal/repository"
)

type recordingBus struct {
	mu     sync.Mutex
	events []string
}

func (b *recordingBus) PublishJSON(eventType string, payload interface{}) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, eventType)
	return nil
}

func newSweeperEnv(t *testing.T) (*database.DB, *Sweeper, *recordingBus) {
	t.Helper()
	logger := zerolog.Nop()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "sweeper.db"), &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	bus := &recordingBus{}
	cache := repository.NewMemorySlotCache(time.Minute)
	sw := NewSweeper(db, cache, bus, 48*time.Hour, time.Minute, &logger)
	return db, sw, bus
}

func seedBooking(t *testing.T, db *database.DB, status models.Status, start time.Time) *models.Reservation {
	t.Helper()
	ctx := context.Background()

	captain := &models.Captain{DisplayName: "Capt. Test", Timezone: "UTC"}
	require.NoError(t, db.UpsertCaptain(ctx, captain))
	vessel := &models.Vessel{CaptainID: captain.ID, Name: "Skiff", Capacity: 6, IsActive: true}
	require.NoError(t, db.CreateVessel(ctx, vessel))
	offering := &models.TripOffering{
		CaptainID: captain.ID, Name: "Half-Day", DurationHours: 4,
		DepartureMode: models.DepartureModeContinuous, IsActive: true,
	}
	require.NoError(t, db.CreateOffering(ctx, offering))

	r := &models.Reservation{
		CaptainID:      captain.ID,
		VesselID:       vessel.ID,
		OfferingID:     offering.ID,
		GuestName:      "Guest",
		PartySize:      2,
		ScheduledStart: start,
		ScheduledEnd:   start.Add(4 * time.Hour),
		Status:         status,
	}
	require.NoError(t, db.CreateReservationTx(ctx, r, 0))
	return r
}

func TestSweepExpiresStaleDeposits(t *testing.T) {
	db, sw, bus := newSweeperEnv(t)
	ctx := context.Background()

	start := time.Now().UTC().AddDate(0, 0, 10)
	stale := seedBooking(t, db, models.StatusPendingDeposit, start)

	// Пока дедлайн не прошёл — ничего не трогаем
	expired, purged, err := sw.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, expired)
	assert.Zero(t, purged)

	sw.now = func() time.Time { return time.Now().Add(72 * time.Hour) }
	expired, _, err = sw.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, expired)

	got, err := db.GetReservation(ctx, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusExpired, got.Status)

	trail, err := db.AuditTrail(ctx, stale.ID)
	require.NoError(t, err)
	require.NotEmpty(t, trail)
	last := trail[len(trail)-1]
	assert.Equal(t, models.ActorSystem, last.Actor)
	assert.Equal(t, "pending_deposit -> expired", last.Details)

	assert.Contains(t, bus.events, "reservation_expired")
}

func TestSweepLeavesConfirmedAlone(t *testing.T) {
	db, sw, _ := newSweeperEnv(t)
	ctx := context.Background()

	r := seedBooking(t, db, models.StatusConfirmed, time.Now().UTC().AddDate(0, 0, 10))
	sw.now = func() time.Time { return time.Now().Add(72 * time.Hour) }

	expired, _, err := sw.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, expired)

	got, err := db.GetReservation(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, got.Status)
}

func TestSweepPurgesExpiredOffers(t *testing.T) {
	db, sw, _ := newSweeperEnv(t)
	ctx := context.Background()

	start := time.Now().UTC().AddDate(0, 0, 10)
	r := seedBooking(t, db, models.StatusConfirmed, start)

	offers := []*models.RescheduleOffer{
		{
			ReservationID: r.ID,
			ProposedStart: start.AddDate(0, 0, 7),
			ProposedEnd:   start.AddDate(0, 0, 7).Add(4 * time.Hour),
			ExpiresAt:     time.Now().Add(-time.Hour),
		},
		{
			ReservationID: r.ID,
			ProposedStart: start.AddDate(0, 0, 14),
			ProposedEnd:   start.AddDate(0, 0, 14).Add(4 * time.Hour),
			ExpiresAt:     time.Now().AddDate(0, 0, 14),
		},
	}
	_, err := db.PlaceHoldTx(ctx, r.ID, r.Version, "storm front", offers)
	require.NoError(t, err)

	expired, purged, err := sw.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, expired)
	assert.Equal(t, int64(1), purged)

	remaining, err := db.ReservationOffers(ctx, r.ID)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.True(t, remaining[0].ProposedStart.After(start.AddDate(0, 0, 10)))
}

func TestRunStopsOnContextCancel(t *testing.T) {
	_, sw, _ := newSweeperEnv(t)
	sw.interval = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sw.Run(ctx)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after cancel")
	}
}

func TestRetryPolicyBackoff(t *testing.T) {
	p := RetryPolicy{MaxRetries: 5, InitialDelay: time.Second, MaxDelay: 10 * time.Second, BackoffFactor: 2}

	assert.Equal(t, time.Second, p.NextDelay(1))
	assert.Equal(t, 2*time.Second, p.NextDelay(2))
	assert.Equal(t, 4*time.Second, p.NextDelay(3))
	assert.Equal(t, 10*time.Second, p.NextDelay(10))
	assert.Equal(t, time.Second, p.NextDelay(0))

	// Zero value falls back to doubling from a second; the sweeper default
	// never waits longer than its regular interval.
	assert.Equal(t, 2*time.Second, RetryPolicy{}.NextDelay(2))
	assert.Equal(t, time.Minute, defaultSweepRetry().NextDelay(10))
}
