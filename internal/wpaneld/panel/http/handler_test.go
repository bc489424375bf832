package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/wrale/wrale-panels/api/types/v1alpha1"
	werrors "github.com/wrale/wrale-panels/internal/wpaneld/errors"
)

type mockService struct {
	mock.Mock
}

func (m *mockService) List(ctx context.Context) ([]v1alpha1.Panel, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]v1alpha1.Panel), args.Error(1)
}

func (m *mockService) Get(ctx context.Context, id string) (*v1alpha1.Panel, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*v1alpha1.Panel), args.Error(1)
}

func (m *mockService) State(ctx context.Context, id string) (*v1alpha1.PanelState, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*v1alpha1.PanelState), args.Error(1)
}

func (m *mockService) Refresh(ctx context.Context, id string) (*v1alpha1.RefreshResult, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*v1alpha1.RefreshResult), args.Error(1)
}

func (m *mockService) ReportMedia(ctx context.Context, id string, status v1alpha1.MediaStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestHandler(t *testing.T, svc *mockService) (*Handler, *Hub) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := NewHub(testLogger())
	go hub.Run(ctx)

	return NewHandler(ctx, svc, hub, nil, testLogger(), zerolog.Nop()), hub
}

func notFound(id string) error {
	return werrors.NewError("NOT_FOUND", "panel "+id+" not found", "test", werrors.ErrNotFound)
}

func TestHandler_Panels(t *testing.T) {
	svc := &mockService{}
	h, _ := newTestHandler(t, svc)
	router := h.Router()

	tv := v1alpha1.Panel{
		TypeMeta:   v1alpha1.NewTypeMeta("Panel"),
		ObjectMeta: v1alpha1.ObjectMeta{ID: "tv-1", Name: "Açougue"},
		Spec:       v1alpha1.PanelSpec{Layout: v1alpha1.PanelLayoutCarousel},
	}
	state := &v1alpha1.PanelState{PanelID: "tv-1", Version: 7, Current: &v1alpha1.DisplayItem{ID: "image:1"}}

	svc.On("List", mock.Anything).Return([]v1alpha1.Panel{tv}, nil)
	svc.On("Get", mock.Anything, "tv-1").Return(&tv, nil)
	svc.On("Get", mock.Anything, "missing").Return(nil, notFound("missing"))
	svc.On("State", mock.Anything, "tv-1").Return(state, nil)
	svc.On("Refresh", mock.Anything, "tv-1").Return(&v1alpha1.RefreshResult{PanelID: "tv-1", Changed: true, Version: 8}, nil)
	svc.On("Refresh", mock.Anything, "down").Return(nil,
		werrors.NewError("UNAVAILABLE", "content source unavailable", "test", werrors.ErrUnavailable))

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
		check      func(t *testing.T, body []byte)
	}{
		{
			name:       "health",
			method:     http.MethodGet,
			path:       "/healthz",
			wantStatus: http.StatusOK,
		},
		{
			name:       "ready",
			method:     http.MethodGet,
			path:       "/readyz",
			wantStatus: http.StatusOK,
		},
		{
			name:       "list",
			method:     http.MethodGet,
			path:       "/api/v1alpha1/panels",
			wantStatus: http.StatusOK,
			check: func(t *testing.T, body []byte) {
				var list v1alpha1.PanelList
				require.NoError(t, json.Unmarshal(body, &list))
				assert.Equal(t, "PanelList", list.Kind)
				require.Len(t, list.Items, 1)
				assert.Equal(t, "tv-1", list.Items[0].ID)
			},
		},
		{
			name:       "get",
			method:     http.MethodGet,
			path:       "/api/v1alpha1/panels/tv-1",
			wantStatus: http.StatusOK,
			check: func(t *testing.T, body []byte) {
				var p v1alpha1.Panel
				require.NoError(t, json.Unmarshal(body, &p))
				assert.Equal(t, "Açougue", p.Name)
			},
		},
		{
			name:       "get unknown",
			method:     http.MethodGet,
			path:       "/api/v1alpha1/panels/missing",
			wantStatus: http.StatusNotFound,
			check: func(t *testing.T, body []byte) {
				var e v1alpha1.Error
				require.NoError(t, json.Unmarshal(body, &e))
				assert.Equal(t, "NOT_FOUND", e.Code)
				assert.Equal(t, "panel missing not found", e.Message)
			},
		},
		{
			name:       "state",
			method:     http.MethodGet,
			path:       "/api/v1alpha1/panels/tv-1/state",
			wantStatus: http.StatusOK,
			check: func(t *testing.T, body []byte) {
				var st v1alpha1.PanelState
				require.NoError(t, json.Unmarshal(body, &st))
				assert.Equal(t, uint64(7), st.Version)
				assert.Equal(t, "image:1", st.Current.ID)
			},
		},
		{
			name:       "refresh",
			method:     http.MethodPost,
			path:       "/api/v1alpha1/panels/tv-1/refresh",
			wantStatus: http.StatusOK,
			check: func(t *testing.T, body []byte) {
				var res v1alpha1.RefreshResult
				require.NoError(t, json.Unmarshal(body, &res))
				assert.True(t, res.Changed)
			},
		},
		{
			name:       "refresh unavailable",
			method:     http.MethodPost,
			path:       "/api/v1alpha1/panels/down/refresh",
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name:       "unknown route",
			method:     http.MethodGet,
			path:       "/nope",
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
			if tt.check != nil {
				tt.check(t, rec.Body.Bytes())
			}
		})
	}
}

func TestHandler_Media(t *testing.T) {
	svc := &mockService{}
	h, _ := newTestHandler(t, svc)
	router := h.Router()

	report := v1alpha1.MediaStatus{MediaRef: "http://backend/uploads/a.jpg", Loaded: true, Width: 1920, Height: 1080}
	svc.On("ReportMedia", mock.Anything, "tv-1", report).Return(nil)
	svc.On("ReportMedia", mock.Anything, "tv-1", v1alpha1.MediaStatus{}).
		Return(werrors.NewError("INVALID_INPUT", "mediaRef is required", "test", werrors.ErrInvalidInput))

	t.Run("accepted", func(t *testing.T) {
		body := `{"mediaRef":"http://backend/uploads/a.jpg","loaded":true,"width":1920,"height":1080}`
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1alpha1/panels/tv-1/media", strings.NewReader(body)))
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("missing ref", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1alpha1/panels/tv-1/media", strings.NewReader(`{}`)))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "mediaRef is required")
	})

	t.Run("malformed body", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1alpha1/panels/tv-1/media", strings.NewReader(`{`)))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "INVALID_INPUT")
	})

	svc.AssertExpectations(t)
}

func TestHandler_ReadyWithoutPanels(t *testing.T) {
	svc := &mockService{}
	svc.On("List", mock.Anything).Return([]v1alpha1.Panel{}, nil)
	h, _ := newTestHandler(t, svc)

	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestToAPIError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", notFound("x"), http.StatusNotFound, "NOT_FOUND"},
		{"conflict", werrors.NewError("CONFLICT", "busy", "op", werrors.ErrConflict), http.StatusConflict, "CONFLICT"},
		{"invalid request", ErrInvalidRequest("bad"), http.StatusBadRequest, "INVALID_INPUT"},
		{"unknown", assert.AnError, http.StatusInternalServerError, "INTERNAL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := toAPIError(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, body.Code)
		})
	}
}
