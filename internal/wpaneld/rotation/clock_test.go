package rotation_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wrale/wrale-panels/internal/wpaneld/rotation"
	"github.com/wrale/wrale-panels/internal/wpaneld/rotation/clocktest"
)

type recorder struct {
	mu    sync.Mutex
	ticks []rotation.Tick
}

func (r *recorder) sink(t rotation.Tick) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ticks = append(r.ticks, t)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.ticks)
}

func TestClock_TicksAtInterval(t *testing.T) {
	sched := clocktest.New()
	rec := &recorder{}
	c := rotation.NewClock(rotation.TickImage, 5*time.Second, sched, rec.sink)

	c.Start()
	sched.Advance(4 * time.Second)
	assert.Equal(t, 0, rec.count())

	sched.Advance(time.Second)
	assert.Equal(t, 1, rec.count())

	sched.Advance(25 * time.Second)
	assert.Equal(t, 6, rec.count())
	assert.Equal(t, rotation.TickImage, rec.ticks[0].Kind)
	assert.Equal(t, 1, sched.Pending(), "one timer per clock")
}

func TestClock_StopIsIdempotentAndFinal(t *testing.T) {
	sched := clocktest.New()
	rec := &recorder{}
	c := rotation.NewClock(rotation.TickAction, time.Second, sched, rec.sink)

	c.Start()
	sched.Advance(time.Second)
	require.Equal(t, 1, rec.count())

	c.Stop()
	c.Stop()
	assert.False(t, c.Running())
	assert.Equal(t, 0, sched.Pending())

	sched.Advance(time.Minute)
	assert.Equal(t, 1, rec.count(), "no tick after stop")
}

func TestClock_RestartDoesNotStackTimers(t *testing.T) {
	sched := clocktest.New()
	rec := &recorder{}
	c := rotation.NewClock(rotation.TickPane, 2*time.Second, sched, rec.sink)

	c.Start()
	c.Start()
	c.Reset(2 * time.Second)
	c.Reset(2 * time.Second)
	assert.Equal(t, 1, sched.Pending())

	sched.Advance(10 * time.Second)
	assert.Equal(t, 5, rec.count())
}

func TestClock_ResetRestartsPeriod(t *testing.T) {
	sched := clocktest.New()
	rec := &recorder{}
	c := rotation.NewClock(rotation.TickImage, 5*time.Second, sched, rec.sink)

	c.Start()
	sched.Advance(4 * time.Second)
	c.Reset(0)
	assert.Equal(t, 5*time.Second, c.Interval(), "zero keeps the interval")

	sched.Advance(4 * time.Second)
	assert.Equal(t, 0, rec.count())
	sched.Advance(time.Second)
	assert.Equal(t, 1, rec.count())
}

func TestClock_ClampsInterval(t *testing.T) {
	for _, d := range []time.Duration{0, -time.Second, 10 * time.Millisecond} {
		c := rotation.NewClock(rotation.TickImage, d, clocktest.New(), nil)
		assert.Equal(t, rotation.MinInterval, c.Interval())
	}
}

func TestClock_GenerationGuardsStaleTicks(t *testing.T) {
	sched := clocktest.New()
	var c *rotation.Clock
	var stale bool
	c = rotation.NewClock(rotation.TickImage, time.Second, sched, func(tk rotation.Tick) {
		if !c.Current(tk.Generation) {
			stale = true
		}
	})

	c.Start()
	sched.Advance(time.Second)
	assert.False(t, stale)

	var gen uint64
	c2 := rotation.NewClock(rotation.TickImage, time.Second, sched, func(tk rotation.Tick) { gen = tk.Generation })
	c2.Start()
	sched.Advance(time.Second)
	c2.Reset(time.Second)
	assert.False(t, c2.Current(gen), "reset invalidates earlier ticks")
	c2.Stop()
	assert.False(t, c2.Current(gen))
}

func TestClock_SinkMayStopClock(t *testing.T) {
	sched := clocktest.New()
	var c *rotation.Clock
	ticks := 0
	c = rotation.NewClock(rotation.TickAction, time.Second, sched, func(rotation.Tick) {
		ticks++
		c.Stop()
	})

	c.Start()
	sched.Advance(10 * time.Second)
	assert.Equal(t, 1, ticks)
}
