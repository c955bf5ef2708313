package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"helmsman/internal/models"
)

func sampleSlots(day string) models.DateSlotMap {
	start := time.Date(2026, 9, 10, 9, 0, 0, 0, time.UTC)
	return models.DateSlotMap{
		day: []models.Slot{
			{
				Start:             start,
				End:               start.Add(4 * time.Hour),
				TotalCapacity:     6,
				RemainingCapacity: 4,
				Available:         true,
			},
		},
	}
}

func newRedisCache(t *testing.T, ttl time.Duration) (*RedisSlotCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisSlotCache(client, ttl), mr
}

func TestRedisSlotCacheRoundTrip(t *testing.T) {
	cache, _ := newRedisCache(t, time.Minute)
	ctx := context.Background()

	_, ok, err := cache.Get(ctx, "cap-1", "2026-09", "off-1")
	require.NoError(t, err)
	assert.False(t, ok)

	slots := sampleSlots("2026-09-10")
	require.NoError(t, cache.Set(ctx, "cap-1", "2026-09", "off-1", slots))

	got, ok, err := cache.Get(ctx, "cap-1", "2026-09", "off-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, got["2026-09-10"], 1)
	assert.Equal(t, 4, got["2026-09-10"][0].RemainingCapacity)
	assert.True(t, got["2026-09-10"][0].Start.Equal(slots["2026-09-10"][0].Start))
}

func TestRedisSlotCacheTTL(t *testing.T) {
	cache, mr := newRedisCache(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "cap-1", "2026-09", "off-1", sampleSlots("2026-09-10")))

	mr.FastForward(2 * time.Minute)

	_, ok, err := cache.Get(ctx, "cap-1", "2026-09", "off-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisSlotCacheInvalidateSweepsOfferings(t *testing.T) {
	cache, _ := newRedisCache(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "cap-1", "2026-09", "off-1", sampleSlots("2026-09-10")))
	require.NoError(t, cache.Set(ctx, "cap-1", "2026-09", "off-2", sampleSlots("2026-09-11")))
	require.NoError(t, cache.Set(ctx, "cap-1", "2026-10", "off-1", sampleSlots("2026-10-01")))
	require.NoError(t, cache.Set(ctx, "cap-2", "2026-09", "off-9", sampleSlots("2026-09-10")))

	require.NoError(t, cache.Invalidate(ctx, "cap-1", "2026-09"))

	// Все предложения капитана за месяц сброшены
	_, ok, _ := cache.Get(ctx, "cap-1", "2026-09", "off-1")
	assert.False(t, ok)
	_, ok, _ = cache.Get(ctx, "cap-1", "2026-09", "off-2")
	assert.False(t, ok)

	// Другой месяц и другой капитан не тронуты
	_, ok, _ = cache.Get(ctx, "cap-1", "2026-10", "off-1")
	assert.True(t, ok)
	_, ok, _ = cache.Get(ctx, "cap-2", "2026-09", "off-9")
	assert.True(t, ok)
}

func TestRedisSlotCacheNilClient(t *testing.T) {
	cache := NewRedisSlotCache(nil, time.Minute)
	ctx := context.Background()

	_, _, err := cache.Get(ctx, "cap-1", "2026-09", "off-1")
	assert.Error(t, err)
	assert.Error(t, cache.Set(ctx, "cap-1", "2026-09", "off-1", nil))
	assert.Error(t, cache.Invalidate(ctx, "cap-1", "2026-09"))
}
