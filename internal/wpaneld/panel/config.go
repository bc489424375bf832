package panel

import (
	"time"

	"github.com/wrale/wrale-panels/api/types/v1alpha1"
	"github.com/wrale/wrale-panels/internal/wpaneld/media"
	"github.com/wrale/wrale-panels/internal/wpaneld/rotation"
)

// Defaults applied by NewEngine to zero-valued Config fields
const (
	DefaultRotationInterval = 5 * time.Second
	DefaultPollingInterval  = 10 * time.Second
	DefaultPageInterval     = 6 * time.Second
	DefaultProbeParallelism = 4
)

// Config is the effective configuration of one engine
type Config struct {
	ID     string
	Name   string
	Layout v1alpha1.PanelLayout
	// Source describes where content comes from, for display only
	Source string

	RotationInterval time.Duration
	// ActionInterval defaults to RotationInterval
	ActionInterval  time.Duration
	PollingInterval time.Duration
	PageInterval    time.Duration
	FetchTimeout    time.Duration

	GridSize int
	PageSize int

	Title      string
	FooterText string

	AspectCacheSize  int
	ProbeParallelism int
}

func (c Config) withDefaults() Config {
	if c.Layout == "" {
		c.Layout = v1alpha1.PanelLayoutCarousel
	}
	if c.Name == "" {
		c.Name = c.ID
	}
	if c.RotationInterval <= 0 {
		c.RotationInterval = DefaultRotationInterval
	}
	if c.ActionInterval <= 0 {
		c.ActionInterval = c.RotationInterval
	}
	if c.PollingInterval <= 0 {
		c.PollingInterval = DefaultPollingInterval
	}
	if c.PageInterval <= 0 {
		c.PageInterval = DefaultPageInterval
	}
	if c.GridSize <= 0 {
		c.GridSize = rotation.DefaultGridSize
	}
	if c.PageSize <= 0 {
		c.PageSize = rotation.DefaultPageSize
	}
	if c.AspectCacheSize <= 0 {
		c.AspectCacheSize = media.DefaultAspectCacheSize
	}
	if c.ProbeParallelism <= 0 {
		c.ProbeParallelism = DefaultProbeParallelism
	}
	return c
}

// itemTick returns the tick kind driving the per-item clock, if any
func (c Config) itemTick() (rotation.TickKind, time.Duration, bool) {
	switch c.Layout {
	case v1alpha1.PanelLayoutCarousel:
		return rotation.TickImage, c.RotationInterval, true
	case v1alpha1.PanelLayoutDual:
		return rotation.TickPane, c.RotationInterval, true
	case v1alpha1.PanelLayoutPagedGrid:
		return rotation.TickPage, c.PageInterval, true
	}
	return 0, 0, false
}

// rotatesActions reports whether the layout cycles through actions
func (c Config) rotatesActions() bool {
	return c.Layout == v1alpha1.PanelLayoutCarousel || c.Layout == v1alpha1.PanelLayoutDual
}
