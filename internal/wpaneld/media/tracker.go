// Package media tracks media load health and aspect ratios reported by
// display clients or probed by the daemon.
package media

import (
	"sync"
	"time"
)

// Record is the health of one media ref
type Record struct {
	Failed    bool      `json:"failed"`
	Failures  int       `json:"failures"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Tracker records media load results. Unknown refs are not failed. It is
// safe for concurrent use and never returns errors.
type Tracker struct {
	mu      sync.RWMutex
	records map[string]Record
	now     func() time.Time
}

// NewTracker creates an empty tracker
func NewTracker() *Tracker {
	return &Tracker{
		records: make(map[string]Record),
		now:     time.Now,
	}
}

// MarkFailed records a failed load of ref
func (t *Tracker) MarkFailed(ref string) {
	if ref == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	r := t.records[ref]
	r.Failed = true
	r.Failures++
	r.UpdatedAt = t.now()
	t.records[ref] = r
}

// MarkLoaded records a successful load of ref, clearing any failure
func (t *Tracker) MarkLoaded(ref string) {
	if ref == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	r := t.records[ref]
	r.Failed = false
	r.UpdatedAt = t.now()
	t.records[ref] = r
}

// IsFailed reports whether the last load of ref failed
func (t *Tracker) IsFailed(ref string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.records[ref].Failed
}

// Retain drops every record whose ref is not in refs. It is called after a
// refresh so that replaced items start with a clean slate.
func (t *Tracker) Retain(refs []string) int {
	keep := make(map[string]struct{}, len(refs))
	for _, r := range refs {
		keep[r] = struct{}{}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	dropped := 0
	for ref := range t.records {
		if _, ok := keep[ref]; !ok {
			delete(t.records, ref)
			dropped++
		}
	}
	return dropped
}

// FailedCount returns the number of refs currently marked failed
func (t *Tracker) FailedCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	n := 0
	for _, r := range t.records {
		if r.Failed {
			n++
		}
	}
	return n
}

// Snapshot returns a copy of all records
func (t *Tracker) Snapshot() map[string]Record {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make(map[string]Record, len(t.records))
	for k, v := range t.records {
		out[k] = v
	}
	return out
}
