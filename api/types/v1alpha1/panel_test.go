package v1alpha1

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePanelLayout(t *testing.T) {
	tests := []struct {
		in      string
		want    PanelLayout
		wantErr bool
	}{
		{in: "", want: PanelLayoutCarousel},
		{in: "layout_1", want: PanelLayoutCarousel},
		{in: " Carousel ", want: PanelLayoutCarousel},
		{in: "layout_2", want: PanelLayoutDual},
		{in: "dual", want: PanelLayoutDual},
		{in: "grid", want: PanelLayoutGrid},
		{in: "board", want: PanelLayoutPagedGrid},
		{in: "paged-grid", want: PanelLayoutPagedGrid},
		{in: "layout_3", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePanelLayout(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDuration(t *testing.T) {
	t.Run("marshals as a duration string", func(t *testing.T) {
		data, err := json.Marshal(PanelSpec{RotationInterval: Duration(5 * time.Second)})
		require.NoError(t, err)
		assert.Contains(t, string(data), `"rotationInterval":"5s"`)
	})

	tests := []struct {
		name    string
		in      string
		want    time.Duration
		wantErr bool
	}{
		{name: "string", in: `"1m30s"`, want: 90 * time.Second},
		{name: "milliseconds", in: `15000`, want: 15 * time.Second},
		{name: "bad string", in: `"soon"`, wantErr: true},
		{name: "bool", in: `true`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Duration
			err := json.Unmarshal([]byte(tt.in), &d)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, time.Duration(d))
		})
	}
}

func TestNewStateUpdate(t *testing.T) {
	msg := NewStateUpdate(PanelState{PanelID: "entrance", Version: 3})

	assert.Equal(t, ControlMessageStateUpdate, msg.Type)
	assert.Equal(t, APIVersion, msg.APIVersion)
	require.NotNil(t, msg.State)
	assert.Equal(t, uint64(3), msg.State.Version)
	assert.False(t, msg.Timestamp.IsZero())
}
