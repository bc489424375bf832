package refresh

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wrale/wrale-panels/internal/wpaneld/rotation"
	"github.com/wrale/wrale-panels/internal/wpaneld/rotation/clocktest"
)

type fakeSource struct {
	mu      sync.Mutex
	content rotation.Content
	err     error
	calls   int
}

func (f *fakeSource) fetch(ctx context.Context) (rotation.Content, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.content, f.err
}

func (f *fakeSource) set(c rotation.Content, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.content, f.err = c, err
}

type applied struct {
	mu  sync.Mutex
	got []rotation.Content
}

func (a *applied) apply(c rotation.Content) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.got = append(a.got, c)
}

func (a *applied) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.got)
}

func content(ids ...string) rotation.Content {
	a := rotation.Action{ID: "act"}
	for _, id := range ids {
		a.Items = append(a.Items, rotation.Item{ID: id})
	}
	return rotation.Content{Actions: []rotation.Action{a}}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLoop_AppliesOnlyChanges(t *testing.T) {
	src := &fakeSource{content: content("a", "b")}
	sink := &applied{}
	sched := clocktest.New()
	l := NewLoop(src.fetch, sink.apply, Options{Interval: 10 * time.Second, Scheduler: sched, Logger: quietLogger()})

	changed, err := l.Refresh(context.Background())
	require.NoError(t, err)
	assert.True(t, changed)

	l.Start(context.Background())
	sched.Advance(30 * time.Second)
	assert.Equal(t, 4, src.calls)
	assert.Equal(t, 1, sink.count(), "identical content is discarded")

	src.set(content("a", "c"), nil)
	sched.Advance(10 * time.Second)
	assert.Equal(t, 2, sink.count())
}

func TestLoop_FailureIsSwallowed(t *testing.T) {
	src := &fakeSource{content: content("a")}
	sink := &applied{}
	sched := clocktest.New()
	var reported []error
	l := NewLoop(src.fetch, sink.apply, Options{
		Interval:  time.Second,
		Scheduler: sched,
		Logger:    quietLogger(),
		OnError:   func(err error) { reported = append(reported, err) },
	})
	l.Start(context.Background())

	src.set(rotation.Content{}, errors.New("backend down"))
	sched.Advance(3 * time.Second)
	assert.Len(t, reported, 3)
	assert.Equal(t, 0, sink.count())

	src.set(content("a"), nil)
	sched.Advance(time.Second)
	assert.Equal(t, 1, sink.count(), "loop keeps polling after failures")
}

func TestLoop_RefreshReturnsError(t *testing.T) {
	boom := errors.New("boom")
	src := &fakeSource{err: boom}
	l := NewLoop(src.fetch, (&applied{}).apply, Options{Interval: time.Second, Logger: quietLogger()})

	changed, err := l.Refresh(context.Background())
	assert.False(t, changed)
	assert.ErrorIs(t, err, boom)
}

func TestLoop_StopDiscardsInFlight(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	fetch := func(ctx context.Context) (rotation.Content, error) {
		close(entered)
		<-release
		return content("late"), nil
	}
	sink := &applied{}
	l := NewLoop(fetch, sink.apply, Options{Interval: time.Second, Logger: quietLogger()})

	done := make(chan bool)
	go func() {
		changed, _ := l.Refresh(context.Background())
		done <- changed
	}()

	<-entered
	_, err := l.Refresh(context.Background())
	assert.ErrorIs(t, err, ErrInFlight)

	l.Stop()
	close(release)
	assert.False(t, <-done)
	assert.Equal(t, 0, sink.count())
}

func TestLoop_TimeoutBoundsFetch(t *testing.T) {
	fetch := func(ctx context.Context) (rotation.Content, error) {
		<-ctx.Done()
		return rotation.Content{}, ctx.Err()
	}
	l := NewLoop(fetch, (&applied{}).apply, Options{Interval: time.Second, Timeout: 20 * time.Millisecond, Logger: quietLogger()})

	_, err := l.Refresh(context.Background())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLoop_SetInterval(t *testing.T) {
	src := &fakeSource{content: content("a")}
	sched := clocktest.New()
	l := NewLoop(src.fetch, (&applied{}).apply, Options{Interval: 10 * time.Second, Scheduler: sched, Logger: quietLogger()})
	l.Start(context.Background())

	l.SetInterval(30 * time.Second)
	assert.Equal(t, 30*time.Second, l.Interval())

	sched.Advance(20 * time.Second)
	assert.Equal(t, 0, src.calls)
	sched.Advance(10 * time.Second)
	assert.Equal(t, 1, src.calls)
}
