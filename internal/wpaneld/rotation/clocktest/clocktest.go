// Package clocktest provides a manually advanced rotation.Scheduler for tests
package clocktest

import (
	"sync"
	"time"

	"github.com/wrale/wrale-panels/internal/wpaneld/rotation"
)

// Scheduler fires callbacks only when Advance moves its virtual time past
// their deadline.
type Scheduler struct {
	mu     sync.Mutex
	now    time.Time
	seq    int
	timers []*timer
}

type timer struct {
	s       *Scheduler
	at      time.Time
	seq     int
	f       func()
	stopped bool
	fired   bool
}

func (t *timer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// New returns a scheduler whose virtual clock starts at the Unix epoch
func New() *Scheduler {
	return &Scheduler{now: time.Unix(0, 0)}
}

// AfterFunc implements rotation.Scheduler
func (s *Scheduler) AfterFunc(d time.Duration, f func()) rotation.Timer {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	t := &timer{s: s, at: s.now.Add(d), seq: s.seq, f: f}
	s.timers = append(s.timers, t)
	return t
}

// Now returns the virtual time
func (s *Scheduler) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// Advance moves virtual time forward by d, firing due callbacks in deadline
// order. Callbacks scheduled while advancing fire too if they fall due
// within the window. It returns the number of callbacks fired.
func (s *Scheduler) Advance(d time.Duration) int {
	s.mu.Lock()
	target := s.now.Add(d)
	fired := 0
	for {
		next := s.nextDueLocked(target)
		if next == nil {
			break
		}
		next.fired = true
		s.now = next.at
		s.mu.Unlock()
		next.f()
		fired++
		s.mu.Lock()
	}
	s.now = target
	s.compactLocked()
	s.mu.Unlock()
	return fired
}

// Pending returns the number of timers that are neither stopped nor fired
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

func (s *Scheduler) nextDueLocked(target time.Time) *timer {
	var best *timer
	for _, t := range s.timers {
		if t.stopped || t.fired || t.at.After(target) {
			continue
		}
		if best == nil || t.at.Before(best.at) || (t.at.Equal(best.at) && t.seq < best.seq) {
			best = t
		}
	}
	return best
}

func (s *Scheduler) compactLocked() {
	live := s.timers[:0]
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			live = append(live, t)
		}
	}
	s.timers = live
}
