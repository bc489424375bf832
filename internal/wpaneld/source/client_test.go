package source

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	werrors "github.com/wrale/wrale-panels/internal/wpaneld/errors"
)

const playBody = `{
	"active": true,
	"panel": {"id": "p1", "name": "Entrance", "layout_type": "layout_1", "fixed_url": "ab12cd34"},
	"actions": [
		{
			"id": "a1",
			"name": "Weekend",
			"start_date": "2024-05-01T00:00:00",
			"end_date": "2024-05-31T23:59:00",
			"has_border": false,
			"images": [
				{"id": "i1", "filename": "one.jpg", "url": "/api/media/one.jpg"},
				{"id": "i2", "filename": "two.jpg", "url": "/api/media/two.jpg"}
			]
		}
	]
}`

const viewBody = `{
	"panel": {"id": "p7", "name": "Board", "department_id": "d1", "active": true},
	"department": {"id": "d1", "name": "Acougue", "code": "ACG", "keywords": ["picanha", "alcatra"]},
	"products": [
		{"id": "1", "codigo": "001", "nome": "Picanha", "preco": 69.9, "posicao": 1, "ativo": true},
		{"id": "2", "codigo": "002", "nome": "Frango", "preco": 12.0, "posicao": 2, "ativo": true},
		{"id": "3", "codigo": "003", "nome": "Alcatra", "preco": 45.0, "posicao": 3, "ativo": true}
	],
	"config": {"polling_interval": 15, "title": "ACOUGUE", "subtitle": null, "footer_text": "Open"}
}`

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newBackend(t *testing.T) (*httptest.Server, *Client) {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/panels/p1/play", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, playBody)
	})
	mux.HandleFunc("/api/panels/idle/play", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"active": false, "message": "no active action"}`)
	})
	mux.HandleFunc("/api/panels/broken/play", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, `{"error": "boom"}`)
	})
	mux.HandleFunc("/api/panels/garbled/play", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"active": tru`)
	})
	mux.HandleFunc("/api/player/ab12cd34", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, playBody)
	})
	mux.HandleFunc("/api/departments/d1/panels/p7/view", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, viewBody)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL, WithClientLogger(testLogger()))
	require.NoError(t, err)
	return srv, c
}

func TestNewClient_InvalidURL(t *testing.T) {
	for _, raw := range []string{"", "not a url", "/relative"} {
		_, err := NewClient(raw)
		assert.True(t, werrors.IsInvalidInput(err), raw)
	}
}

func TestClient(t *testing.T) {
	srv, c := newBackend(t)
	ctx := context.Background()

	t.Run("play", func(t *testing.T) {
		resp, err := c.Play(ctx, "p1")
		require.NoError(t, err)
		assert.True(t, resp.Active)
		require.NotNil(t, resp.Panel)
		assert.Equal(t, "layout_1", resp.Panel.LayoutType)
		require.Len(t, resp.Actions, 1)
		assert.Len(t, resp.Actions[0].Images, 2)
	})

	t.Run("player", func(t *testing.T) {
		resp, err := c.Player(ctx, "ab12cd34")
		require.NoError(t, err)
		assert.Equal(t, "ab12cd34", resp.Panel.FixedURL)
	})

	t.Run("view", func(t *testing.T) {
		view, err := c.View(ctx, "d1", "p7")
		require.NoError(t, err)
		assert.Len(t, view.Products, 3)
		assert.Equal(t, Keywords{"picanha", "alcatra"}, view.Department.Keywords)
		assert.Empty(t, view.Config.Subtitle)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := c.Play(ctx, "missing")
		assert.True(t, werrors.IsNotFound(err))
		assert.Equal(t, "NOT_FOUND", werrors.Code(err))
	})

	t.Run("server error", func(t *testing.T) {
		_, err := c.Play(ctx, "broken")
		assert.True(t, werrors.IsUnavailable(err))
	})

	t.Run("bad body", func(t *testing.T) {
		_, err := c.Play(ctx, "garbled")
		assert.True(t, werrors.IsUnavailable(err))
	})

	t.Run("unreachable", func(t *testing.T) {
		down, err := NewClient("http://127.0.0.1:1")
		require.NoError(t, err)
		_, err = down.Play(ctx, "p1")
		assert.True(t, werrors.IsUnavailable(err))
	})

	t.Run("base url", func(t *testing.T) {
		assert.Equal(t, srv.URL, c.BaseURL().String())
	})
}

func TestSources(t *testing.T) {
	srv, c := newBackend(t)
	ctx := context.Background()

	t.Run("actions", func(t *testing.T) {
		content, err := NewActionsSource(c, "p1", c.BaseURL()).Fetch(ctx)
		require.NoError(t, err)
		require.Len(t, content.Actions, 1)
		assert.Equal(t, srv.URL+"/api/media/one.jpg", content.Actions[0].Items[0].MediaRef)
	})

	t.Run("inactive", func(t *testing.T) {
		content, err := NewActionsSource(c, "idle", c.BaseURL()).Fetch(ctx)
		require.NoError(t, err)
		assert.Empty(t, content.Actions)
	})

	t.Run("player", func(t *testing.T) {
		content, err := NewPlayerSource(c, "ab12cd34").Fetch(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, content.Items())
	})

	t.Run("products filtered", func(t *testing.T) {
		content, err := NewProductsSource(c, "d1", "p7", ProductsOptions{FilterKeywords: true}).Fetch(ctx)
		require.NoError(t, err)
		require.Len(t, content.Actions, 1)
		assert.Equal(t, 2, content.Items())
	})

	t.Run("products unfiltered", func(t *testing.T) {
		content, err := NewProductsSource(c, "d1", "p7", ProductsOptions{}).Fetch(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, content.Items())
	})

	t.Run("error passes through", func(t *testing.T) {
		_, err := NewActionsSource(c, "broken", nil).Fetch(ctx)
		assert.True(t, werrors.IsUnavailable(err))
	})
}
