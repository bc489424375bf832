package main

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wrale/wrale-panels/api/types/v1alpha1"
	"github.com/wrale/wrale-panels/internal/wpaneld/config"
	"github.com/wrale/wrale-panels/internal/wpaneld/source"
)

const testConfig = `
backend:
  baseURL: http://backend:5000
engine:
  rotationInterval: 8s
  probeAspects: false
panels:
  - id: entrance
    layout: layout_2
    source:
      kind: play
      panelId: "42"
  - id: butcher
    layout: paged_grid
    pageInterval: 10s
    source:
      kind: view
      departmentId: acg
`

func TestEngineConfig(t *testing.T) {
	cfg, err := config.Parse([]byte(testConfig))
	require.NoError(t, err)

	ec, err := engineConfig(cfg.Engine, cfg.Panels[0])
	require.NoError(t, err)
	assert.Equal(t, "entrance", ec.ID)
	assert.Equal(t, v1alpha1.PanelLayoutDual, ec.Layout)
	assert.Equal(t, 8*time.Second, ec.RotationInterval)
	assert.Equal(t, 8*time.Second, ec.ActionInterval)
	assert.Equal(t, "play:42", ec.Source)

	ec, err = engineConfig(cfg.Engine, cfg.Panels[1])
	require.NoError(t, err)
	assert.Equal(t, v1alpha1.PanelLayoutPagedGrid, ec.Layout)
	assert.Equal(t, 10*time.Second, ec.PageInterval)
	assert.Equal(t, "view:acg/butcher", ec.Source)
}

func TestBuildRegistry(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg, err := config.Parse([]byte(testConfig))
	require.NoError(t, err)

	client, err := source.NewClient(cfg.Backend.BaseURL)
	require.NoError(t, err)

	registry, err := buildRegistry(cfg, source.NewBuilder(client), nil, logger)
	require.NoError(t, err)
	defer registry.Close()
	assert.Equal(t, 2, registry.Len())

	t.Run("postgres source without database", func(t *testing.T) {
		bad := *cfg
		bad.Panels = []config.PanelConfig{{
			ID:     "x",
			Source: config.SourceConfig{Kind: config.SourcePostgresActions},
		}}
		_, err := buildRegistry(&bad, source.NewBuilder(client), nil, logger)
		assert.Error(t, err)
	})
}
