package config

import (
	"fmt"
	"time"

	"github.com/wrale/wrale-panels/api/types/v1alpha1"
)

// MinInterval is the floor for every rotation and polling interval
const MinInterval = time.Second

// applyDefaults fills panel settings from the engine section and clamps
// non-positive intervals instead of rejecting them
func (c *Config) applyDefaults() {
	def := Default().Engine
	e := &c.Engine

	e.RotationInterval = clampInterval(e.RotationInterval, def.RotationInterval)
	e.PollingInterval = clampInterval(e.PollingInterval, def.PollingInterval)
	e.PageInterval = clampInterval(e.PageInterval, def.PageInterval)
	if e.FetchTimeout <= 0 {
		e.FetchTimeout = def.FetchTimeout
	}
	if e.GridSize <= 0 {
		e.GridSize = def.GridSize
	}
	if e.PageSize <= 0 {
		e.PageSize = def.PageSize
	}
	if e.AspectCacheSize <= 0 {
		e.AspectCacheSize = def.AspectCacheSize
	}
	if e.ProbeParallelism <= 0 {
		e.ProbeParallelism = def.ProbeParallelism
	}
	if c.Backend.Timeout <= 0 {
		c.Backend.Timeout = Default().Backend.Timeout
	}

	for i := range c.Panels {
		p := &c.Panels[i]
		if p.Name == "" {
			p.Name = p.ID
		}
		p.RotationInterval = clampInterval(p.RotationInterval, e.RotationInterval)
		p.PollingInterval = clampInterval(p.PollingInterval, e.PollingInterval)
		p.PageInterval = clampInterval(p.PageInterval, e.PageInterval)
		p.ActionInterval = clampInterval(p.ActionInterval, p.RotationInterval)
		if p.GridSize <= 0 {
			p.GridSize = e.GridSize
		}
		if p.PageSize <= 0 {
			p.PageSize = e.PageSize
		}
		if p.Source.Kind == "" {
			p.Source.Kind = SourcePlay
		}
		if p.Source.PanelID == "" {
			p.Source.PanelID = p.ID
		}
	}
}

// clampInterval returns fallback for an unset interval and MinInterval for
// anything shorter
func clampInterval(d, fallback time.Duration) time.Duration {
	if d == 0 {
		d = fallback
	}
	if d < MinInterval {
		return MinInterval
	}
	return d
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if (c.Server.TLSCert != "") != (c.Server.TLSKey != "") {
		return fmt.Errorf("both TLS cert and key must be provided")
	}
	if c.Database.Enabled() && (c.Database.Port < 1 || c.Database.Port > 65535) {
		return fmt.Errorf("invalid database port: %d", c.Database.Port)
	}
	if len(c.Panels) == 0 {
		return fmt.Errorf("at least one panel must be configured")
	}

	seen := make(map[string]bool, len(c.Panels))
	for i, p := range c.Panels {
		if p.ID == "" {
			return fmt.Errorf("panel %d: id is required", i)
		}
		if seen[p.ID] {
			return fmt.Errorf("duplicate panel id: %s", p.ID)
		}
		seen[p.ID] = true

		if _, err := v1alpha1.ParsePanelLayout(p.Layout); err != nil {
			return fmt.Errorf("panel %s: %w", p.ID, err)
		}
		if err := c.validateSource(p); err != nil {
			return fmt.Errorf("panel %s: %w", p.ID, err)
		}
	}
	return nil
}

func (c *Config) validateSource(p PanelConfig) error {
	switch p.Source.Kind {
	case SourcePlay:
	case SourcePlayer:
		if p.Source.FixedURL == "" {
			return fmt.Errorf("source %s requires fixedURL", p.Source.Kind)
		}
	case SourceView:
		if p.Source.DepartmentID == "" {
			return fmt.Errorf("source %s requires departmentId", p.Source.Kind)
		}
	case SourcePostgresActions, SourcePostgresProducts:
		if !c.Database.Enabled() {
			return fmt.Errorf("source %s requires a database", p.Source.Kind)
		}
	default:
		return fmt.Errorf("unknown source kind: %s", p.Source.Kind)
	}
	if p.Source.Cache && !c.Redis.Enabled() {
		return fmt.Errorf("source cache requires redis")
	}
	return nil
}
