package source

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wrale/wrale-panels/internal/wpaneld/config"
	werrors "github.com/wrale/wrale-panels/internal/wpaneld/errors"
)

func TestBuilder_Build(t *testing.T) {
	_, c := newBackend(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		builder   *Builder
		panel     config.PanelConfig
		wantItems int
		wantErr   bool
	}{
		{
			name:      "play defaults panel id",
			builder:   NewBuilder(c),
			panel:     config.PanelConfig{ID: "p1", Source: config.SourceConfig{Kind: config.SourcePlay}},
			wantItems: 2,
		},
		{
			name:      "play with backend id",
			builder:   NewBuilder(c),
			panel:     config.PanelConfig{ID: "entrance", Source: config.SourceConfig{Kind: config.SourcePlay, PanelID: "p1"}},
			wantItems: 2,
		},
		{
			name:      "player",
			builder:   NewBuilder(c),
			panel:     config.PanelConfig{ID: "x", Source: config.SourceConfig{Kind: config.SourcePlayer, FixedURL: "ab12cd34"}},
			wantItems: 2,
		},
		{
			name:    "view with keywords",
			builder: NewBuilder(c),
			panel: config.PanelConfig{ID: "p7", Source: config.SourceConfig{
				Kind:         config.SourceView,
				DepartmentID: "d1",
				Keywords:     config.KeywordsConfig{Enabled: true},
			}},
			wantItems: 2,
		},
		{
			name:    "postgres without database",
			builder: NewBuilder(c),
			panel:   config.PanelConfig{ID: "p1", Source: config.SourceConfig{Kind: config.SourcePostgresActions}},
			wantErr: true,
		},
		{
			name:    "cache without redis",
			builder: NewBuilder(c),
			panel:   config.PanelConfig{ID: "p1", Source: config.SourceConfig{Kind: config.SourcePlay, Cache: true}},
			wantErr: true,
		},
		{
			name:    "unknown kind",
			builder: NewBuilder(c),
			panel:   config.PanelConfig{ID: "p1", Source: config.SourceConfig{Kind: "ftp"}},
			wantErr: true,
		},
		{
			name:    "no client",
			builder: NewBuilder(nil),
			panel:   config.PanelConfig{ID: "p1"},
			wantErr: true,
		},
		{
			name:      "cached play",
			builder:   NewBuilder(c, WithSnapshotCache(newTestCache(newFakeStore()))),
			panel:     config.PanelConfig{ID: "p1", Source: config.SourceConfig{Kind: config.SourcePlay, Cache: true}},
			wantItems: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := tt.builder.Build(tt.panel)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, werrors.IsInvalidInput(err))
				return
			}
			require.NoError(t, err)

			content, err := f.Fetch(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.wantItems, content.Items())
		})
	}
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		panel config.PanelConfig
		want  string
	}{
		{config.PanelConfig{ID: "p1"}, "play:p1"},
		{config.PanelConfig{ID: "p1", Source: config.SourceConfig{Kind: config.SourcePlay, PanelID: "42"}}, "play:42"},
		{config.PanelConfig{ID: "p1", Source: config.SourceConfig{Kind: config.SourcePlayer, FixedURL: "ab12"}}, "player:ab12"},
		{config.PanelConfig{ID: "p7", Source: config.SourceConfig{Kind: config.SourcePostgresProducts, DepartmentID: "acg"}}, "postgres-products:acg/p7"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, Describe(tt.panel))
		})
	}
}
