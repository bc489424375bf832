package panel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wrale/wrale-panels/api/types/v1alpha1"
	werrors "github.com/wrale/wrale-panels/internal/wpaneld/errors"
	"github.com/wrale/wrale-panels/internal/wpaneld/media"
	"github.com/wrale/wrale-panels/internal/wpaneld/refresh"
	"github.com/wrale/wrale-panels/internal/wpaneld/rotation"
)

// Engine runs the rotation of one panel: an action clock, a per-item clock
// chosen by layout, and a refresh loop. Clock callbacks, refreshes and media
// reports are serialized by one mutex; anything arriving after Close is
// ignored.
type Engine struct {
	cfg       Config
	source    Source
	publisher Publisher
	prober    Prober
	scheduler rotation.Scheduler
	logger    *slog.Logger

	mu          sync.Mutex
	machine     *rotation.Machine
	tracker     *media.Tracker
	aspects     *media.AspectCache
	actionClock *rotation.Clock
	itemClock   *rotation.Clock
	loop        *refresh.Loop
	itemEvery   time.Duration
	title       string
	footer      string
	version     uint64
	items       int
	lastRefresh time.Time
	lastError   string
	probed      map[string]bool
	started     bool
	closed      bool

	ctx    context.Context
	cancel context.CancelFunc
	probes sync.WaitGroup
}

// Option configures an Engine
type Option func(*Engine)

// WithPublisher sets where state changes are sent
func WithPublisher(p Publisher) Option {
	return func(e *Engine) {
		if p != nil {
			e.publisher = p
		}
	}
}

// WithProber enables server-side aspect probing of new media refs
func WithProber(p Prober) Option {
	return func(e *Engine) {
		e.prober = p
	}
}

// WithScheduler replaces the runtime timers, mainly for tests
func WithScheduler(s rotation.Scheduler) Option {
	return func(e *Engine) {
		e.scheduler = s
	}
}

// WithLogger sets the engine logger
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEngine creates a stopped engine for one panel
func NewEngine(cfg Config, source Source, opts ...Option) (*Engine, error) {
	const op = "panel.NewEngine"

	if cfg.ID == "" {
		return nil, werrors.NewError("INVALID_INPUT", "panel id is required", op, werrors.ErrInvalidInput)
	}
	if source == nil {
		return nil, werrors.NewError("INVALID_INPUT", "panel source is required", op, werrors.ErrInvalidInput)
	}
	cfg = cfg.withDefaults()

	e := &Engine{
		cfg:       cfg,
		source:    source,
		publisher: noopPublisher{},
		scheduler: rotation.SystemScheduler,
		logger:    slog.Default(),
		tracker:   media.NewTracker(),
		title:     cfg.Title,
		footer:    cfg.FooterText,
		probed:    make(map[string]bool),
		ctx:       context.Background(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With("panelId", cfg.ID, "layout", string(cfg.Layout))

	aspects, err := media.NewAspectCache(cfg.AspectCacheSize)
	if err != nil {
		return nil, werrors.NewError("INVALID_INPUT", "invalid aspect cache size", op, err)
	}
	e.aspects = aspects
	e.machine = rotation.NewMachine(e.tracker, cfg.PageSize)

	if cfg.rotatesActions() {
		e.actionClock = rotation.NewClock(rotation.TickAction, cfg.ActionInterval, e.scheduler, e.onTick)
	}
	if kind, every, ok := cfg.itemTick(); ok {
		e.itemEvery = every
		e.itemClock = rotation.NewClock(kind, every, e.scheduler, e.onTick)
	}

	e.loop = refresh.NewLoop(source.Fetch, e.apply, refresh.Options{
		Interval:  cfg.PollingInterval,
		Timeout:   cfg.FetchTimeout,
		Scheduler: e.scheduler,
		Logger:    e.logger,
		OnError:   e.recordError,
	})

	return e, nil
}

// ID returns the panel id
func (e *Engine) ID() string {
	return e.cfg.ID
}

// Start performs the initial fetch and starts all clocks. A failed initial
// fetch is logged; the panel rotates empty content until a refresh succeeds.
func (e *Engine) Start(ctx context.Context) error {
	const op = "panel.Start"

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return werrors.NewError("CONFLICT", "panel engine is closed", op, werrors.ErrConflict)
	}
	if e.started {
		e.mu.Unlock()
		return nil
	}
	e.started = true
	e.ctx, e.cancel = context.WithCancel(ctx)
	runCtx := e.ctx
	e.mu.Unlock()

	if _, err := e.loop.Refresh(runCtx); err != nil {
		e.logger.Warn("initial refresh failed, showing placeholder until next poll", "error", err)
		e.recordError(err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.loop.Start(runCtx)
	if e.actionClock != nil {
		e.actionClock.Start()
	}
	if e.itemClock != nil {
		e.itemClock.Start()
	}

	e.logger.Info("panel engine started",
		"rotationInterval", e.cfg.RotationInterval,
		"pollingInterval", e.loop.Interval(),
	)
	return nil
}

// Close stops all clocks and waits for background probes. It is safe to
// call more than once.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	if e.cancel != nil {
		e.cancel()
	}
	e.mu.Unlock()

	if e.actionClock != nil {
		e.actionClock.Stop()
	}
	if e.itemClock != nil {
		e.itemClock.Stop()
	}
	e.loop.Stop()
	e.probes.Wait()

	e.logger.Info("panel engine stopped")
}

// State returns the current render state
func (e *Engine) State() v1alpha1.PanelState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// Panel describes the engine's configuration and status
func (e *Engine) Panel() v1alpha1.Panel {
	e.mu.Lock()
	defer e.mu.Unlock()

	p := v1alpha1.Panel{
		TypeMeta: v1alpha1.NewTypeMeta("Panel"),
		ObjectMeta: v1alpha1.ObjectMeta{
			ID:        e.cfg.ID,
			Name:      e.cfg.Name,
			UpdatedAt: e.lastRefresh,
		},
		Spec: v1alpha1.PanelSpec{
			Layout:           e.cfg.Layout,
			Source:           e.cfg.Source,
			RotationInterval: v1alpha1.Duration(e.cfg.RotationInterval),
			PollingInterval:  v1alpha1.Duration(e.loop.Interval()),
		},
		Status: v1alpha1.PanelStatus{
			Version:     e.version,
			Actions:     len(e.machine.Actions()),
			Items:       e.items,
			FailedMedia: e.tracker.FailedCount(),
			LastError:   e.lastError,
		},
	}
	_, ok := e.machine.Current()
	p.Status.Empty = !ok
	if !e.lastRefresh.IsZero() {
		t := e.lastRefresh
		p.Status.LastRefresh = &t
	}
	if e.actionClock != nil {
		p.Spec.ActionInterval = v1alpha1.Duration(e.actionClock.Interval())
	}
	switch e.cfg.Layout {
	case v1alpha1.PanelLayoutGrid:
		p.Spec.GridSize = e.cfg.GridSize
	case v1alpha1.PanelLayoutPagedGrid:
		p.Spec.PageSize = e.cfg.PageSize
	}
	return p
}

// Refresh fetches content immediately. It reports whether anything changed.
func (e *Engine) Refresh(ctx context.Context) (bool, error) {
	const op = "panel.Refresh"

	changed, err := e.loop.Refresh(ctx)
	if errors.Is(err, refresh.ErrInFlight) {
		return false, werrors.NewError("CONFLICT", "refresh already in progress", op, werrors.ErrConflict)
	}
	if err != nil {
		e.recordError(err)
		return false, werrors.NewError("UNAVAILABLE", "content source unavailable", op, fmt.Errorf("%w: %v", werrors.ErrUnavailable, err))
	}
	return changed, nil
}

// ReportMedia records a load result from a display. A failure of the
// item currently shown in the carousel skips to the next item at once.
func (e *Engine) ReportMedia(status v1alpha1.MediaStatus) error {
	const op = "panel.ReportMedia"

	if status.MediaRef == "" {
		return werrors.NewError("INVALID_INPUT", "mediaRef is required", op, werrors.ErrInvalidInput)
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}

	if status.Loaded {
		e.tracker.MarkLoaded(status.MediaRef)
		e.aspects.Put(status.MediaRef, media.Dimensions{Width: status.Width, Height: status.Height}.Aspect())
	} else {
		e.tracker.MarkFailed(status.MediaRef)
		e.logger.Info("media failed to load", "mediaRef", status.MediaRef)

		if cur, ok := e.machine.CurrentItem(); ok && e.cfg.Layout == v1alpha1.PanelLayoutCarousel && cur.MediaRef == status.MediaRef {
			if e.machine.Tick(rotation.TickImage) {
				e.itemClock.Reset(e.itemEvery)
			}
		}
	}

	if !e.visibleLocked(status.MediaRef) {
		e.mu.Unlock()
		return nil
	}
	st := e.bumpLocked()
	e.mu.Unlock()

	e.publisher.Publish(st)
	return nil
}

func (e *Engine) onTick(t rotation.Tick) {
	e.mu.Lock()
	clock := e.itemClock
	if t.Kind == rotation.TickAction {
		clock = e.actionClock
	}
	if e.closed || clock == nil || !clock.Current(t.Generation) {
		e.mu.Unlock()
		return
	}

	changed := e.machine.Tick(t.Kind)
	if !changed {
		e.mu.Unlock()
		return
	}
	if t.Kind == rotation.TickAction && e.itemClock != nil {
		// A new action starts with a full item period.
		e.itemClock.Reset(e.itemEvery)
	}
	st := e.bumpLocked()
	e.mu.Unlock()

	e.publisher.Publish(st)
}

func (e *Engine) apply(content rotation.Content) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}

	prevItems := len(e.machine.Collection())
	reset := e.machine.Replace(content.Actions)
	refs := content.MediaRefs()
	e.tracker.Retain(refs)
	e.items = content.Items()
	e.lastRefresh = time.Now().UTC()
	e.lastError = ""

	if cfg := content.Config; cfg != nil {
		if cfg.Title != "" {
			e.title = cfg.Title
		}
		if cfg.FooterText != "" {
			e.footer = cfg.FooterText
		}
		if cfg.PollingInterval > 0 {
			e.loop.SetInterval(cfg.PollingInterval)
		}
		if cfg.RotationInterval > 0 && e.itemClock != nil && e.itemClock.Kind() != rotation.TickPage {
			e.itemEvery = rotation.ClampInterval(cfg.RotationInterval)
			e.itemClock.Reset(e.itemEvery)
		}
	}

	if reset && e.itemClock != nil {
		e.itemClock.Reset(e.itemEvery)
	}
	if reset && e.actionClock != nil {
		e.actionClock.Reset(0)
	}

	var probe []string
	if e.prober != nil && e.cfg.Layout == v1alpha1.PanelLayoutDual {
		for _, ref := range refs {
			if !e.probed[ref] && !e.aspects.Contains(ref) {
				e.probed[ref] = true
				probe = append(probe, ref)
			}
		}
	}

	st := e.bumpLocked()
	ctx := e.ctx
	if len(probe) > 0 {
		e.probes.Add(1)
	}
	e.mu.Unlock()

	e.logger.Info("panel content applied",
		"actions", len(content.Actions),
		"items", content.Items(),
		"reset", reset,
		"previousItems", prevItems,
	)
	e.publisher.Publish(st)

	if len(probe) > 0 {
		go func() {
			defer e.probes.Done()
			e.probeAspects(ctx, probe)
		}()
	}
}

// probeAspects fetches image headers for refs with bounded parallelism and
// republishes when a visible pane's aspect becomes known.
func (e *Engine) probeAspects(ctx context.Context, refs []string) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.ProbeParallelism)

	for _, ref := range refs {
		ref := ref
		g.Go(func() error {
			dims, err := e.prober.Probe(gctx, ref)
			if err != nil {
				e.logger.Debug("aspect probe failed", "mediaRef", ref, "error", err)
				return nil
			}
			e.updateAspect(ref, dims.Aspect())
			return nil
		})
	}
	_ = g.Wait()
}

func (e *Engine) updateAspect(ref string, aspect float64) {
	e.mu.Lock()
	if e.closed || !e.aspects.Put(ref, aspect) || !e.visibleLocked(ref) {
		e.mu.Unlock()
		return
	}
	st := e.bumpLocked()
	e.mu.Unlock()

	e.publisher.Publish(st)
}

func (e *Engine) recordError(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastError = err.Error()
}

// bumpLocked increments the version and returns the state to publish
func (e *Engine) bumpLocked() v1alpha1.PanelState {
	e.version++
	return e.snapshotLocked()
}
