package rotation

import (
	"sync"
	"time"
)

// MinInterval is the shortest interval a Clock will run at. Shorter or
// non-positive intervals are clamped to it.
const MinInterval = time.Second

// Timer is a pending callback that can be cancelled
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type runtimeScheduler struct{}

func (runtimeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// SystemScheduler schedules callbacks on the Go runtime timers
var SystemScheduler Scheduler = runtimeScheduler{}

// Tick is delivered to a clock's sink on every period
type Tick struct {
	Kind TickKind
	// Generation identifies the Start/Reset epoch the tick belongs to
	Generation uint64
	At         time.Time
}

// Sink receives ticks. It is called without the clock's lock held, so it
// may call back into the clock.
type Sink func(Tick)

// ClampInterval returns d raised to MinInterval
func ClampInterval(d time.Duration) time.Duration {
	if d < MinInterval {
		return MinInterval
	}
	return d
}

// Clock emits ticks of one kind at a fixed interval until stopped. At most
// one timer is pending per clock. Every Start, Stop and Reset begins a new
// generation; a timer callback from an older generation does nothing, so a
// timer that fires concurrently with Stop never produces a tick.
type Clock struct {
	kind      TickKind
	scheduler Scheduler
	sink      Sink

	mu         sync.Mutex
	interval   time.Duration
	timer      Timer
	generation uint64
	running    bool
}

// NewClock creates a stopped clock
func NewClock(kind TickKind, interval time.Duration, scheduler Scheduler, sink Sink) *Clock {
	if scheduler == nil {
		scheduler = SystemScheduler
	}
	return &Clock{
		kind:      kind,
		scheduler: scheduler,
		sink:      sink,
		interval:  ClampInterval(interval),
	}
}

// Kind returns the tick kind this clock emits
func (c *Clock) Kind() TickKind {
	return c.kind
}

// Interval returns the effective (clamped) interval
func (c *Clock) Interval() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.interval
}

// Running reports whether the clock has been started and not stopped
func (c *Clock) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Start begins ticking. Starting a running clock does nothing.
func (c *Clock) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return
	}
	c.running = true
	c.scheduleLocked()
}

// Stop cancels the pending timer. It is safe to call any number of times.
func (c *Clock) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return
	}
	c.running = false
	c.generation++
	c.cancelLocked()
}

// Reset changes the interval and, if the clock is running, restarts the
// period from now.
func (c *Clock) Reset(interval time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if interval > 0 {
		c.interval = ClampInterval(interval)
	}
	if c.running {
		c.scheduleLocked()
	}
}

// Current reports whether a tick of generation gen is still valid: the clock
// is running and has not been reset since the tick was scheduled.
func (c *Clock) Current(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running && c.generation == gen
}

func (c *Clock) scheduleLocked() {
	c.cancelLocked()
	c.generation++
	c.armLocked(c.generation)
}

func (c *Clock) armLocked(gen uint64) {
	c.timer = c.scheduler.AfterFunc(c.interval, func() { c.fire(gen) })
}

func (c *Clock) cancelLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Clock) fire(gen uint64) {
	c.mu.Lock()
	if !c.running || gen != c.generation {
		c.mu.Unlock()
		return
	}
	// The fired timer is spent; arm the next period in the same generation.
	c.armLocked(gen)
	c.mu.Unlock()

	if c.sink != nil {
		c.sink(Tick{Kind: c.kind, Generation: gen, At: time.Now()})
	}
}
