// Package panel runs the rotation engine for each configured panel and
// exposes the result to the delivery layer.
package panel

import (
	"context"

	"github.com/wrale/wrale-panels/api/types/v1alpha1"
	"github.com/wrale/wrale-panels/internal/wpaneld/media"
	"github.com/wrale/wrale-panels/internal/wpaneld/rotation"
)

// Source supplies authoritative content for one panel
type Source interface {
	Fetch(ctx context.Context) (rotation.Content, error)
}

// SourceFunc adapts a function to Source
type SourceFunc func(ctx context.Context) (rotation.Content, error)

// Fetch implements Source
func (f SourceFunc) Fetch(ctx context.Context) (rotation.Content, error) {
	return f(ctx)
}

// Publisher receives every visible state change. Publish must not block.
type Publisher interface {
	Publish(state v1alpha1.PanelState)
}

// Prober learns image dimensions for a media ref
type Prober interface {
	Probe(ctx context.Context, url string) (media.Dimensions, error)
}

// Service is the panel API consumed by the HTTP layer
type Service interface {
	// List returns every configured panel
	List(ctx context.Context) ([]v1alpha1.Panel, error)

	// Get returns one panel
	Get(ctx context.Context, id string) (*v1alpha1.Panel, error)

	// State returns the current render state of a panel
	State(ctx context.Context, id string) (*v1alpha1.PanelState, error)

	// Refresh fetches content for a panel immediately
	Refresh(ctx context.Context, id string) (*v1alpha1.RefreshResult, error)

	// ReportMedia records a media load result from a display
	ReportMedia(ctx context.Context, id string, status v1alpha1.MediaStatus) error
}

type noopPublisher struct{}

func (noopPublisher) Publish(v1alpha1.PanelState) {}
