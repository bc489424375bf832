package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wrale/wrale-panels/api/types/v1alpha1"
)

func newTestServer(t *testing.T) (*httptest.Server, *[]v1alpha1.MediaStatus) {
	t.Helper()

	var reports []v1alpha1.MediaStatus
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1alpha1/panels", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(v1alpha1.PanelList{
			Items: []v1alpha1.Panel{
				{ObjectMeta: v1alpha1.ObjectMeta{ID: "entrance"}},
				{ObjectMeta: v1alpha1.ObjectMeta{ID: "butcher"}},
			},
		})
	})
	mux.HandleFunc("GET /api/v1alpha1/panels/entrance", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(v1alpha1.Panel{
			ObjectMeta: v1alpha1.ObjectMeta{ID: "entrance"},
			Spec:       v1alpha1.PanelSpec{Layout: v1alpha1.PanelLayoutDual},
		})
	})
	mux.HandleFunc("GET /api/v1alpha1/panels/entrance/state", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(v1alpha1.PanelState{PanelID: "entrance", Version: 7})
	})
	mux.HandleFunc("POST /api/v1alpha1/panels/entrance/refresh", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(v1alpha1.RefreshResult{PanelID: "entrance", Changed: true, Version: 8})
	})
	mux.HandleFunc("POST /api/v1alpha1/panels/entrance/media", func(w http.ResponseWriter, r *http.Request) {
		var st v1alpha1.MediaStatus
		if err := json.NewDecoder(r.Body).Decode(&st); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		reports = append(reports, st)
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("GET /api/v1alpha1/panels/missing", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(v1alpha1.Error{Code: "NOT_FOUND", Message: "panel missing not found"})
	})
	mux.HandleFunc("GET /api/v1alpha1/panels/teapot", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &reports
}

func TestNewClient(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{name: "valid", url: "http://localhost:8080"},
		{name: "path dropped", url: "http://localhost:8080/ignored"},
		{name: "missing scheme", url: "localhost:8080", wantErr: true},
		{name: "empty", url: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewClient(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Empty(t, c.baseURL.Path)
		})
	}
}

func TestClient_Panels(t *testing.T) {
	srv, reports := newTestServer(t)
	c, err := NewClient(srv.URL)
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("list", func(t *testing.T) {
		panels, err := c.ListPanels(ctx)
		require.NoError(t, err)
		require.Len(t, panels, 2)
		assert.Equal(t, "entrance", panels[0].ID)
	})

	t.Run("get", func(t *testing.T) {
		p, err := c.GetPanel(ctx, "entrance")
		require.NoError(t, err)
		assert.Equal(t, v1alpha1.PanelLayoutDual, p.Spec.Layout)
	})

	t.Run("state", func(t *testing.T) {
		st, err := c.GetPanelState(ctx, "entrance")
		require.NoError(t, err)
		assert.Equal(t, uint64(7), st.Version)
	})

	t.Run("refresh", func(t *testing.T) {
		res, err := c.RefreshPanel(ctx, "entrance")
		require.NoError(t, err)
		assert.True(t, res.Changed)
	})

	t.Run("report media", func(t *testing.T) {
		err := c.ReportMedia(ctx, "entrance", v1alpha1.MediaStatus{MediaRef: "http://x/1.jpg", Loaded: false})
		require.NoError(t, err)
		require.Len(t, *reports, 1)
		assert.Equal(t, "http://x/1.jpg", (*reports)[0].MediaRef)
	})

	t.Run("api error", func(t *testing.T) {
		_, err := c.GetPanel(ctx, "missing")
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
		assert.Equal(t, "NOT_FOUND", apiErr.Code)
		assert.Contains(t, err.Error(), "panel missing not found")
	})

	t.Run("error without body", func(t *testing.T) {
		_, err := c.GetPanel(ctx, "teapot")
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusText(http.StatusTeapot), apiErr.Message)
	})
}
