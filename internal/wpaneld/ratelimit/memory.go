package ratelimit

import (
	"context"
	"sync"
	"time"
)

type window struct {
	count int
	reset time.Time
}

// MemoryStore keeps fixed-window counters in process memory. It is used
// when no Redis is configured.
type MemoryStore struct {
	mu      sync.Mutex
	windows map[LimitKey]*window
	now     func() time.Time
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		windows: make(map[LimitKey]*window),
		now:     time.Now,
	}
}

// Increment implements Store
func (m *MemoryStore) Increment(ctx context.Context, key LimitKey, limit Limit) (int, time.Time, error) {
	if limit.Period <= 0 {
		return 0, time.Time{}, ErrInvalidLimit
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	w, ok := m.windows[key]
	if !ok || !now.Before(w.reset) {
		w = &window{reset: now.Add(limit.Period)}
		m.windows[key] = w
		m.sweepLocked(now)
	}
	w.count++
	return w.count, w.reset, nil
}

// Reset implements Store
func (m *MemoryStore) Reset(ctx context.Context, key LimitKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.windows, key)
	return nil
}

// sweepLocked drops expired windows so idle clients do not accumulate
func (m *MemoryStore) sweepLocked(now time.Time) {
	for k, w := range m.windows {
		if !now.Before(w.reset) {
			delete(m.windows, k)
		}
	}
}
