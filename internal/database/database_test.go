package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"helmsman/internal/domain"
	"helmsman/internal/models"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	logger := zerolog.New(zerolog.NewConsoleWriter())
	db, err := NewDB(filepath.Join(t.TempDir(), "test.db"), &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func seedCaptain(t *testing.T, db *DB, bufferMinutes int) *models.Captain {
	t.Helper()
	c := &models.Captain{
		DisplayName:   "Capt. Ahab",
		Timezone:      "UTC",
		HorizonDays:   90,
		BufferMinutes: bufferMinutes,
	}
	require.NoError(t, db.UpsertCaptain(context.Background(), c))
	return c
}

func seedVessel(t *testing.T, db *DB, captainID string, capacity int) *models.Vessel {
	t.Helper()
	v := &models.Vessel{CaptainID: captainID, Name: "Pequod", Capacity: capacity, IsActive: true}
	require.NoError(t, db.CreateVessel(context.Background(), v))
	return v
}

func seedOffering(t *testing.T, db *DB, captainID string) *models.TripOffering {
	t.Helper()
	o := &models.TripOffering{
		CaptainID:     captainID,
		Name:          "Half-Day Inshore",
		DurationHours: 4,
		DepartureMode: models.DepartureModeContinuous,
		IsActive:      true,
	}
	require.NoError(t, db.CreateOffering(context.Background(), o))
	return o
}

func TestNewDB_DirectoryCreation(t *testing.T) {
	logger := zerolog.New(zerolog.NewConsoleWriter())
	dbPath := filepath.Join(t.TempDir(), "nested", "dir", "test.db")
	db, err := NewDB(dbPath, &logger)
	require.NoError(t, err)
	defer db.Close()

	assert.FileExists(t, dbPath)
}

func TestCaptainUpsert(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	c := seedCaptain(t, db, 30)
	got, err := db.GetCaptain(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Capt. Ahab", got.DisplayName)
	assert.Equal(t, 30, got.BufferMinutes)

	c.DisplayName = "Capt. Ishmael"
	c.BufferMinutes = 45
	require.NoError(t, db.UpsertCaptain(ctx, c))

	got, err = db.GetCaptain(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Capt. Ishmael", got.DisplayName)
	assert.Equal(t, 45, got.BufferMinutes)
}

func TestGetCaptainNotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetCaptain(context.Background(), "no-such-id")
	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "captain", nf.Kind)
}

func TestVesselsOrderedByCapacity(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	c := seedCaptain(t, db, 0)

	for _, capacity := range []int{10, 4, 6} {
		v := &models.Vessel{CaptainID: c.ID, Name: "Boat", Capacity: capacity, IsActive: true}
		require.NoError(t, db.CreateVessel(ctx, v))
	}
	inactive := &models.Vessel{CaptainID: c.ID, Name: "Drydock", Capacity: 2, IsActive: false}
	require.NoError(t, db.CreateVessel(ctx, inactive))

	vessels, err := db.GetCaptainVessels(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, vessels, 3)
	assert.Equal(t, 4, vessels[0].Capacity)
	assert.Equal(t, 6, vessels[1].Capacity)
	assert.Equal(t, 10, vessels[2].Capacity)
}

func TestOfferingLifecycle(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	c := seedCaptain(t, db, 0)
	o := seedOffering(t, db, c.ID)

	got, err := db.GetOffering(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, "Half-Day Inshore", got.Name)
	assert.InDelta(t, 4.0, got.DurationHours, 0.001)

	require.NoError(t, db.DeactivateOffering(ctx, o.ID))
	listed, err := db.GetCaptainOfferings(ctx, c.ID)
	require.NoError(t, err)
	assert.Empty(t, listed)

	// Деактивированный рейс по-прежнему доступен по id
	got, err = db.GetOffering(ctx, o.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
}

func TestWindowsAndBlackouts(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	c := seedCaptain(t, db, 0)

	for _, dow := range []int{1, 3, 5} {
		w := &models.AvailabilityWindow{
			CaptainID: c.ID, DayOfWeek: dow,
			StartTime: "06:00", EndTime: "18:00", IsActive: true,
		}
		require.NoError(t, db.CreateWindow(ctx, w))
	}

	windows, err := db.GetWindows(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, windows, 3)
	assert.Equal(t, 1, windows[0].DayOfWeek)

	require.NoError(t, db.CreateBlackout(ctx, &models.BlackoutDate{CaptainID: c.ID, Date: "2026-09-10", Reason: "haul-out"}))
	require.NoError(t, db.CreateBlackout(ctx, &models.BlackoutDate{CaptainID: c.ID, Date: "2026-10-01"}))

	blackouts, err := db.GetBlackouts(ctx, c.ID, "2026-09-01", "2026-09-30")
	require.NoError(t, err)
	require.Len(t, blackouts, 1)
	assert.Equal(t, "2026-09-10", blackouts[0].Date)
	assert.Equal(t, "haul-out", blackouts[0].Reason)
}
