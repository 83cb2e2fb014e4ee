package cache

import (
	"context"
	"sync"
	"time"

	"StockLens/internal/model"
)

type memoryEntry struct {
	series   *model.PriceSeries
	storedAt time.Time
}

// Memory is an in-process cache.
type Memory struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemory creates a Memory cache. ttl <= 0 means DefaultTTL.
func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Memory{entries: make(map[string]memoryEntry), ttl: ttl, now: time.Now}
}

func (m *Memory) Name() string { return "memory" }

// Get returns a copy of a live entry. Expired entries are evicted.
func (m *Memory) Get(_ context.Context, key Key) (*model.PriceSeries, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key.String()]
	if !ok {
		return nil, false, nil
	}
	if m.now().Sub(e.storedAt) >= m.ttl {
		delete(m.entries, key.String())
		return nil, false, nil
	}
	return e.series.Clone(), true, nil
}

// Set stores a copy of series.
func (m *Memory) Set(_ context.Context, key Key, series *model.PriceSeries) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key.String()] = memoryEntry{series: series.Clone(), storedAt: m.now()}
	return nil
}

// Len returns the number of stored entries, expired or not.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
