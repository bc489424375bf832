package http

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/wrale/wrale-panels/api/types/v1alpha1"
)

type outbound struct {
	panelID string
	data    []byte
}

type directMessage struct {
	conn *connection
	data []byte
}

// Hub fans published panel states out to the displays subscribed to each
// panel. It implements panel.Publisher.
type Hub struct {
	// Registered connections by panel id
	panels map[string]map[*connection]bool

	// Register requests from the connections
	register chan *connection

	// Unregister requests from connections
	unregister chan *connection

	// Published states awaiting fan-out
	broadcast chan outbound

	// Replies to a single connection
	direct chan directMessage

	// Connection counts for observers outside the run loop
	counts chan chan int

	// Closed when Run returns
	done chan struct{}

	logger *slog.Logger
}

// NewHub creates a hub; Run must be called for it to deliver anything
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		panels:     make(map[string]map[*connection]bool),
		register:   make(chan *connection),
		unregister: make(chan *connection),
		broadcast:  make(chan outbound, publishBuffer),
		direct:     make(chan directMessage, publishBuffer),
		counts:     make(chan chan int),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Publish implements panel.Publisher. It never blocks; when the hub is
// saturated the state is dropped and the next one supersedes it.
func (h *Hub) Publish(state v1alpha1.PanelState) {
	data, err := json.Marshal(v1alpha1.NewStateUpdate(state))
	if err != nil {
		h.logger.Error("failed to marshal panel state", "error", err, "panelId", state.PanelID)
		return
	}

	select {
	case h.broadcast <- outbound{panelID: state.PanelID, data: data}:
	default:
		h.logger.Warn("hub saturated, dropping state update",
			"panelId", state.PanelID,
			"version", state.Version,
		)
	}
}

// Connections returns the number of connected displays
func (h *Hub) Connections(ctx context.Context) int {
	reply := make(chan int, 1)
	select {
	case h.counts <- reply:
	case <-h.done:
		return 0
	case <-ctx.Done():
		return 0
	}
	return <-reply
}

// join registers c. It reports false when the hub has stopped.
func (h *Hub) join(c *connection) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) leave(c *connection) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *Hub) reply(c *connection, data []byte) {
	select {
	case h.direct <- directMessage{conn: c, data: data}:
	case <-h.done:
	}
}

// Run serves the hub until ctx is done, then closes every connection
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			for _, conns := range h.panels {
				for c := range conns {
					close(c.send)
				}
			}
			h.panels = make(map[string]map[*connection]bool)
			return

		case c := <-h.register:
			conns := h.panels[c.panelID]
			if conns == nil {
				conns = make(map[*connection]bool)
				h.panels[c.panelID] = conns
			}
			conns[c] = true
			h.logger.Info("display connected",
				"panelId", c.panelID,
				"connectionId", c.id,
				"connections", len(conns),
			)

		case c := <-h.unregister:
			h.remove(c)

		case m := <-h.broadcast:
			for c := range h.panels[m.panelID] {
				select {
				case c.send <- m.data:
				default:
					h.logger.Warn("display too slow, dropping connection",
						"panelId", c.panelID,
						"connectionId", c.id,
					)
					h.remove(c)
				}
			}

		case m := <-h.direct:
			if h.panels[m.conn.panelID][m.conn] {
				select {
				case m.conn.send <- m.data:
				default:
				}
			}

		case reply := <-h.counts:
			n := 0
			for _, conns := range h.panels {
				n += len(conns)
			}
			reply <- n
		}
	}
}

func (h *Hub) remove(c *connection) {
	conns, ok := h.panels[c.panelID]
	if !ok || !conns[c] {
		return
	}
	delete(conns, c)
	close(c.send)
	if len(conns) == 0 {
		delete(h.panels, c.panelID)
	}
	h.logger.Info("display disconnected",
		"panelId", c.panelID,
		"connectionId", c.id,
		"connections", len(conns),
	)
}
