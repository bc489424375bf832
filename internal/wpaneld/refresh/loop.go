// Package refresh periodically re-fetches panel content and hands changed
// content to the rotation engine.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/wrale/wrale-panels/internal/wpaneld/rotation"
)

// DefaultTimeout bounds a single fetch
const DefaultTimeout = 10 * time.Second

// ErrInFlight is returned by Refresh when another fetch is still running
var ErrInFlight = errors.New("refresh already in flight")

// FetchFunc returns the latest authoritative content
type FetchFunc func(ctx context.Context) (rotation.Content, error)

// ApplyFunc receives content whose fingerprint differs from the last applied
type ApplyFunc func(rotation.Content)

// Options configures a Loop
type Options struct {
	Interval  time.Duration
	Timeout   time.Duration
	Scheduler rotation.Scheduler
	Logger    *slog.Logger
	// OnError is called with every failed fetch after it is logged
	OnError func(error)
}

// Loop polls a FetchFunc on a rotation clock. A failed fetch is logged and
// retried on the next tick; already applied content keeps rotating.
type Loop struct {
	fetch   FetchFunc
	apply   ApplyFunc
	timeout time.Duration
	logger  *slog.Logger
	onError func(error)
	clock   *rotation.Clock

	inflight atomic.Bool

	mu      sync.Mutex
	ctx     context.Context
	last    uint64
	applied bool
	stopped bool
}

// NewLoop creates a stopped loop
func NewLoop(fetch FetchFunc, apply ApplyFunc, opts Options) *Loop {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	l := &Loop{
		fetch:   fetch,
		apply:   apply,
		timeout: opts.Timeout,
		logger:  opts.Logger,
		onError: opts.OnError,
		ctx:     context.Background(),
	}
	l.clock = rotation.NewClock(rotation.TickAction, opts.Interval, opts.Scheduler, l.onTick)
	return l
}

// Start begins polling. ctx bounds every fetch the loop makes on its own.
func (l *Loop) Start(ctx context.Context) {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return
	}
	l.ctx = ctx
	l.mu.Unlock()

	l.clock.Start()
}

// Stop ends polling. The result of a fetch still in flight is discarded.
func (l *Loop) Stop() {
	l.mu.Lock()
	l.stopped = true
	l.mu.Unlock()

	l.clock.Stop()
}

// Interval returns the polling interval
func (l *Loop) Interval() time.Duration {
	return l.clock.Interval()
}

// SetInterval changes the polling interval, restarting the period
func (l *Loop) SetInterval(d time.Duration) {
	if d <= 0 || rotation.ClampInterval(d) == l.clock.Interval() {
		return
	}
	l.clock.Reset(d)
}

// Refresh fetches once. It reports whether new content was applied.
func (l *Loop) Refresh(ctx context.Context) (bool, error) {
	const op = "refresh.Refresh"

	if !l.inflight.CompareAndSwap(false, true) {
		return false, ErrInFlight
	}
	defer l.inflight.Store(false)

	fctx, cancel := context.WithTimeout(ctx, l.timeout)
	content, err := l.fetch(fctx)
	cancel()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	fp := rotation.Fingerprint(content)

	l.mu.Lock()
	if l.stopped || (l.applied && fp == l.last) {
		l.mu.Unlock()
		return false, nil
	}
	l.last = fp
	l.applied = true
	l.mu.Unlock()

	l.apply(content)
	return true, nil
}

func (l *Loop) onTick(t rotation.Tick) {
	l.mu.Lock()
	ctx := l.ctx
	stopped := l.stopped
	l.mu.Unlock()

	if stopped || !l.clock.Current(t.Generation) {
		return
	}

	changed, err := l.Refresh(ctx)
	switch {
	case errors.Is(err, ErrInFlight):
		l.logger.Debug("refresh skipped, previous fetch still running")
	case err != nil:
		l.logger.Warn("refresh failed, keeping current content",
			"error", err,
			"interval", l.clock.Interval(),
		)
		if l.onError != nil {
			l.onError(err)
		}
	case changed:
		l.logger.Debug("refresh applied new content")
	}
}
