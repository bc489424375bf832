package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
server:
  port: 9090
backend:
  baseURL: http://backend:5000
engine:
  rotationInterval: 8s
panels:
  - id: tv-acougue
    layout: layout_2
    source:
      kind: player
      fixedURL: acougue
  - id: board
    layout: paged_grid
    pollingInterval: -5s
    source:
      kind: view
      departmentId: "3"
      panelId: "7"
      keywords:
        enabled: true
`

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "http://backend:5000", cfg.Backend.BaseURL)
	require.Len(t, cfg.Panels, 2)

	tv := cfg.Panels[0]
	assert.Equal(t, "tv-acougue", tv.Name)
	assert.Equal(t, 8*time.Second, tv.RotationInterval)
	assert.Equal(t, 8*time.Second, tv.ActionInterval)
	assert.Equal(t, 10*time.Second, tv.PollingInterval)
	assert.Equal(t, "tv-acougue", tv.Source.PanelID)

	board := cfg.Panels[1]
	assert.Equal(t, MinInterval, board.PollingInterval)
	assert.Equal(t, 6*time.Second, board.PageInterval)
	assert.Equal(t, 20, board.PageSize)
	assert.Equal(t, "7", board.Source.PanelID)
	assert.True(t, board.Source.Keywords.Enabled)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "no panels",
			yaml: "server:\n  port: 8080\n",
			want: "at least one panel",
		},
		{
			name: "bad port",
			yaml: "server:\n  port: 70000\npanels:\n  - id: a\n",
			want: "invalid server port",
		},
		{
			name: "duplicate ids",
			yaml: "panels:\n  - id: a\n  - id: a\n",
			want: "duplicate panel id",
		},
		{
			name: "unknown layout",
			yaml: "panels:\n  - id: a\n    layout: mosaic\n",
			want: "unknown panel layout",
		},
		{
			name: "player without url",
			yaml: "panels:\n  - id: a\n    source:\n      kind: player\n",
			want: "requires fixedURL",
		},
		{
			name: "postgres without database",
			yaml: "panels:\n  - id: a\n    source:\n      kind: postgres-actions\n",
			want: "requires a database",
		},
		{
			name: "cache without redis",
			yaml: "panels:\n  - id: a\n    source:\n      cache: true\n",
			want: "requires redis",
		},
		{
			name: "unknown source",
			yaml: "panels:\n  - id: a\n    source:\n      kind: ftp\n",
			want: "unknown source kind",
		},
		{
			name: "malformed yaml",
			yaml: "panels: [",
			want: "error parsing config file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("WPANEL_PANELS", "tv-1:layout_1, board:grid ,")
	t.Setenv("WPANEL_SERVER_PORT", "8181")
	t.Setenv("WPANEL_POLLING_INTERVAL", "30")
	t.Setenv("API_BASE_URL", "http://api:5000")
	t.Setenv("WPANEL_REDIS_ADDR", "redis:6379")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8181, cfg.Server.Port)
	assert.Equal(t, "http://api:5000", cfg.Backend.BaseURL)
	assert.True(t, cfg.Redis.Enabled())
	require.Len(t, cfg.Panels, 2)
	assert.Equal(t, "tv-1", cfg.Panels[0].ID)
	assert.Equal(t, "layout_1", cfg.Panels[0].Layout)
	assert.Equal(t, "grid", cfg.Panels[1].Layout)
	assert.Equal(t, 30*time.Second, cfg.Panels[1].PollingInterval)
}

func TestLoadFile(t *testing.T) {
	t.Run("rejects extension", func(t *testing.T) {
		_, err := LoadFile("/etc/wrale-panels/config.json")
		require.Error(t, err)
		assert.Contains(t, err.Error(), ".yaml or .yml")
	})

	t.Run("rejects directory", func(t *testing.T) {
		_, err := LoadFile(filepath.Join(t.TempDir(), "config.yaml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "allowed directory")
	})

	t.Run("dev mode accepts working directory", func(t *testing.T) {
		dir := t.TempDir()
		wd, err := os.Getwd()
		require.NoError(t, err)
		require.NoError(t, os.Chdir(dir))
		t.Cleanup(func() { _ = os.Chdir(wd) })
		t.Setenv("WPANEL_DEV_MODE", "1")

		path := filepath.Join(dir, "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte(sampleConfig), 0o600))

		cfg, err := LoadFile(path)
		require.NoError(t, err)
		assert.Len(t, cfg.Panels, 2)
	})
}
