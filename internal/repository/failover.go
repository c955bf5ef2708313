package repository

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"helmsman/internal/domain"
	"helmsman/internal/models"
)

// FailoverSlotCache routes to the primary (Redis) cache and degrades to the
// in-memory fallback when it errors. The primary is retried after a minute.
// Availability served from the fallback may be staler across instances,
// which is acceptable: the store re-checks every write.
type FailoverSlotCache struct {
	primary   domain.SlotCache
	fallback  domain.SlotCache
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck atomic.Int64
}

func NewFailoverSlotCache(primary, fallback domain.SlotCache, logger *zerolog.Logger) *FailoverSlotCache {
	return &FailoverSlotCache{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (f *FailoverSlotCache) markDown(err error) {
	f.logger.Error().Err(err).Msg("primary slot cache failed, falling back to memory")
	f.isDown.Store(true)
	f.lastCheck.Store(time.Now().UnixNano())
}

func (f *FailoverSlotCache) shouldRetryPrimary() bool {
	if !f.isDown.Load() {
		return true
	}
	if time.Since(time.Unix(0, f.lastCheck.Load())) > time.Minute {
		f.lastCheck.Store(time.Now().UnixNano())
		return true
	}
	return false
}

func (f *FailoverSlotCache) Get(ctx context.Context, captainID, month, offeringID string) (models.DateSlotMap, bool, error) {
	if f.shouldRetryPrimary() {
		slots, ok, err := f.primary.Get(ctx, captainID, month, offeringID)
		if err == nil {
			f.isDown.Store(false)
			return slots, ok, nil
		}
		f.markDown(err)
	}
	return f.fallback.Get(ctx, captainID, month, offeringID)
}

func (f *FailoverSlotCache) Set(ctx context.Context, captainID, month, offeringID string, slots models.DateSlotMap) error {
	if f.shouldRetryPrimary() {
		err := f.primary.Set(ctx, captainID, month, offeringID, slots)
		if err == nil {
			f.isDown.Store(false)
			return nil
		}
		f.markDown(err)
	}
	return f.fallback.Set(ctx, captainID, month, offeringID, slots)
}

// Invalidate always hits both tiers: a stale entry left in the fallback
// would survive a later failover.
func (f *FailoverSlotCache) Invalidate(ctx context.Context, captainID string, months ...string) error {
	fallbackErr := f.fallback.Invalidate(ctx, captainID, months...)

	if f.shouldRetryPrimary() {
		if err := f.primary.Invalidate(ctx, captainID, months...); err != nil {
			f.markDown(err)
			return err
		}
		f.isDown.Store(false)
	}
	return fallbackErr
}
