package repository

import (
	"context"
	"strings"
	"sync"
	"time"

	"helmsman/internal/models"
)

type memoryEntry struct {
	slots     models.DateSlotMap
	expiresAt time.Time
}

// MemorySlotCache is the in-process fallback used when Redis is down and in
// tests. Same semantics as the Redis cache, including TTL.
type MemorySlotCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
}

func NewMemorySlotCache(ttl time.Duration) *MemorySlotCache {
	return &MemorySlotCache{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
	}
}

func (m *MemorySlotCache) Get(_ context.Context, captainID, month, offeringID string) (models.DateSlotMap, bool, error) {
	m.mu.RLock()
	entry, ok := m.entries[slotKey(captainID, month, offeringID)]
	m.mu.RUnlock()
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false, nil
	}
	return entry.slots, true, nil
}

func (m *MemorySlotCache) Set(_ context.Context, captainID, month, offeringID string, slots models.DateSlotMap) error {
	m.mu.Lock()
	m.entries[slotKey(captainID, month, offeringID)] = memoryEntry{
		slots:     slots,
		expiresAt: time.Now().Add(m.ttl),
	}
	m.mu.Unlock()
	return nil
}

func (m *MemorySlotCache) Invalidate(_ context.Context, captainID string, months ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, month := range months {
		prefix := "slots:" + captainID + ":" + month + ":"
		for key := range m.entries {
			if strings.HasPrefix(key, prefix) {
				delete(m.entries, key)
			}
		}
	}
	return nil
}
