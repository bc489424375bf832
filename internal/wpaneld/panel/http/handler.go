// Package http serves the panel API and pushes render state to displays
// over WebSockets.
package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/wrale/wrale-panels/api/types/v1alpha1"
	"github.com/wrale/wrale-panels/internal/wpaneld/panel"
	"github.com/wrale/wrale-panels/internal/wpaneld/ratelimit"
)

// Handler encapsulates the HTTP API for panels
type Handler struct {
	service   panel.Service
	hub       *Hub
	ratelimit ratelimit.Service
	logger    *slog.Logger
	zlog      zerolog.Logger
	// ctx bounds media reports arriving over WebSockets
	ctx context.Context
}

// NewHandler creates a new HTTP handler for panel endpoints. limiter may be
// nil to disable rate limiting.
func NewHandler(
	ctx context.Context,
	service panel.Service,
	hub *Hub,
	limiter ratelimit.Service,
	logger *slog.Logger,
	zlog zerolog.Logger,
) *Handler {
	return &Handler{
		service:   service,
		hub:       hub,
		ratelimit: limiter,
		logger:    logger,
		zlog:      zlog.With().Str("component", "panel-http").Logger(),
		ctx:       ctx,
	}
}

// Router returns the HTTP router for the daemon
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(requestIDHeaderMiddleware)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(logMiddleware(h.logger))

	r.Get("/healthz", h.handleHealth())
	r.Get("/readyz", h.handleReady())

	limits := h.limiters()

	r.Route("/api/v1alpha1/panels", func(r chi.Router) {
		// WebSocket connections are long lived and must not hit the timeout
		r.With(limits.ws).Get("/{id}/ws", h.ServeWs)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(30 * time.Second))
			r.Use(limits.api)

			r.Get("/", h.handleList)
			r.Get("/{id}", h.handleGet)
			r.Get("/{id}/state", h.handleState)
			r.Post("/{id}/refresh", h.handleRefresh)
			r.With(limits.media).Post("/{id}/media", h.handleMedia)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		h.respondJSON(w, http.StatusNotFound, v1alpha1.Error{Code: "NOT_FOUND", Message: "not found"})
	})

	return r
}

type routeLimiters struct {
	api, media, ws func(http.Handler) http.Handler
}

func (h *Handler) limiters() routeLimiters {
	if h.ratelimit == nil {
		pass := func(next http.Handler) http.Handler { return next }
		return routeLimiters{api: pass, media: pass, ws: pass}
	}
	common := ratelimit.NewCommonRateLimiters(h.ratelimit, h.logger)
	return routeLimiters{
		api:   common.APIRequestLimiter(),
		media: common.MediaReportLimiter(),
		ws:    common.WebSocketLimiter(),
	}
}

func (h *Handler) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// handleReady reports ready once the panel service answers
func (h *Handler) handleReady() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		panels, err := h.service.List(r.Context())
		if err != nil || len(panels) == 0 {
			h.respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
			return
		}
		h.respondJSON(w, http.StatusOK, map[string]any{"status": "ok", "panels": len(panels)})
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	panels, err := h.service.List(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, v1alpha1.PanelList{
		TypeMeta: v1alpha1.NewTypeMeta("PanelList"),
		Items:    panels,
	})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, p)
}

func (h *Handler) handleState(w http.ResponseWriter, r *http.Request) {
	st, err := h.service.State(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, st)
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.Refresh(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, res)
}

func (h *Handler) handleMedia(w http.ResponseWriter, r *http.Request) {
	var status v1alpha1.MediaStatus
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxMessageSize)).Decode(&status); err != nil {
		h.respondError(w, ErrInvalidRequest("invalid request body"))
		return
	}

	if err := h.service.ReportMedia(r.Context(), chi.URLParam(r, "id"), status); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ServeWs upgrades a display connection and subscribes it to one panel.
// The current state is sent immediately after the upgrade.
func (h *Handler) ServeWs(w http.ResponseWriter, r *http.Request) {
	panelID := chi.URLParam(r, "id")

	st, err := h.service.State(r.Context(), panelID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	initial, err := json.Marshal(v1alpha1.NewStateUpdate(*st))
	if err != nil {
		h.respondError(w, err)
		return
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err, "panelId", panelID)
		return
	}

	id := uuid.New()
	c := &connection{
		id:      id,
		panelID: panelID,
		send:    make(chan []byte, sendBuffer),
		ws:      ws,
		hub:     h.hub,
		service: h.service,
		logger:  h.logger.With("panelId", panelID, "connectionId", id),
	}
	c.send <- initial

	if !h.hub.join(c) {
		_ = ws.Close()
		return
	}

	go c.writePump()
	c.readPump(h.ctx)
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			h.zlog.Error().Err(err).Msg("failed to encode response")
		}
	}
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	status, body := toAPIError(err)
	if status >= http.StatusInternalServerError {
		h.zlog.Error().Err(err).Int("status", status).Msg("request failed")
	}
	h.respondJSON(w, status, body)
}
