package panel

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/wrale/wrale-panels/api/types/v1alpha1"
	werrors "github.com/wrale/wrale-panels/internal/wpaneld/errors"
)

// Registry owns the engines of all configured panels and implements Service
type Registry struct {
	logger *slog.Logger

	mu      sync.RWMutex
	engines map[string]*Engine
}

// NewRegistry creates an empty registry
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		logger:  logger,
		engines: make(map[string]*Engine),
	}
}

// Add registers an engine. Panel ids must be unique.
func (r *Registry) Add(e *Engine) error {
	const op = "panel.Registry.Add"

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.engines[e.ID()]; exists {
		return werrors.NewError("CONFLICT", "panel "+e.ID()+" already registered", op, werrors.ErrConflict)
	}
	r.engines[e.ID()] = e
	return nil
}

// Engine returns the engine for id
func (r *Registry) Engine(id string) (*Engine, error) {
	const op = "panel.Registry.Engine"

	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.engines[id]
	if !ok {
		return nil, werrors.NewError("NOT_FOUND", "panel "+id+" not found", op, werrors.ErrNotFound)
	}
	return e, nil
}

// Start starts every engine concurrently. Initial fetch failures do not
// fail Start; they are retried by each engine's refresh loop. Engines run
// until ctx is cancelled or Close is called.
func (r *Registry) Start(ctx context.Context) error {
	var g errgroup.Group
	for _, e := range r.sorted() {
		e := e
		g.Go(func() error {
			return e.Start(ctx)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	r.logger.Info("panels started", "count", r.Len())
	return nil
}

// Close stops every engine
func (r *Registry) Close() {
	var wg sync.WaitGroup
	for _, e := range r.sorted() {
		e := e
		wg.Add(1)
		go func() {
			defer wg.Done()
			e.Close()
		}()
	}
	wg.Wait()
}

// Len returns the number of registered panels
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.engines)
}

// List implements Service
func (r *Registry) List(ctx context.Context) ([]v1alpha1.Panel, error) {
	engines := r.sorted()
	panels := make([]v1alpha1.Panel, 0, len(engines))
	for _, e := range engines {
		panels = append(panels, e.Panel())
	}
	return panels, nil
}

// Get implements Service
func (r *Registry) Get(ctx context.Context, id string) (*v1alpha1.Panel, error) {
	e, err := r.Engine(id)
	if err != nil {
		return nil, err
	}
	p := e.Panel()
	return &p, nil
}

// State implements Service
func (r *Registry) State(ctx context.Context, id string) (*v1alpha1.PanelState, error) {
	e, err := r.Engine(id)
	if err != nil {
		return nil, err
	}
	st := e.State()
	return &st, nil
}

// Refresh implements Service
func (r *Registry) Refresh(ctx context.Context, id string) (*v1alpha1.RefreshResult, error) {
	e, err := r.Engine(id)
	if err != nil {
		return nil, err
	}

	changed, err := e.Refresh(ctx)
	if err != nil {
		return nil, err
	}

	r.logger.Info("panel refreshed", "panelId", id, "changed", changed)
	return &v1alpha1.RefreshResult{
		PanelID: id,
		Changed: changed,
		Version: e.State().Version,
	}, nil
}

// ReportMedia implements Service
func (r *Registry) ReportMedia(ctx context.Context, id string, status v1alpha1.MediaStatus) error {
	e, err := r.Engine(id)
	if err != nil {
		return err
	}
	return e.ReportMedia(status)
}

func (r *Registry) sorted() []*Engine {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Engine, 0, len(r.engines))
	for _, e := range r.engines {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}
