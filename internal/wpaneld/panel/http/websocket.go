package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/wrale/wrale-panels/api/types/v1alpha1"
	"github.com/wrale/wrale-panels/internal/wpaneld/panel"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 4096

	// Buffered outbound messages per connection before it is dropped
	sendBuffer = 64

	// Buffered published states awaiting fan-out
	publishBuffer = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Displays are served from the backend's origin, not ours.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// connection is a middleman between one display's websocket and the hub
type connection struct {
	id      uuid.UUID
	panelID string
	ws      *websocket.Conn
	send    chan []byte
	hub     *Hub
	service panel.Service
	logger  *slog.Logger
}

// cleanup unregisters and closes the connection
func (c *connection) cleanup() {
	c.hub.leave(c)

	if err := c.ws.Close(); err != nil {
		c.logger.Debug("error closing websocket connection", "error", err)
	}
}

func (c *connection) readPump(ctx context.Context) {
	defer c.cleanup()

	c.ws.SetReadLimit(maxMessageSize)
	if err := c.ws.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error("failed to set read deadline", "error", err)
		return
	}
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("websocket read error", "error", err)
			}
			return
		}

		var msg v1alpha1.ControlMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			c.reply(controlError("INVALID_INPUT", "invalid control message"))
			continue
		}

		if msg.Type != v1alpha1.ControlMessageMediaStatus || msg.Media == nil {
			c.reply(controlError("INVALID_INPUT", "unexpected message type "+string(msg.Type)))
			continue
		}

		if err := c.service.ReportMedia(ctx, c.panelID, *msg.Media); err != nil {
			_, apiErr := toAPIError(err)
			c.reply(controlError(apiErr.Code, apiErr.Message))
		}
	}
}

// reply queues a message for this connection only, dropping it when the
// buffer is full
func (c *connection) reply(msg v1alpha1.ControlMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		c.logger.Error("failed to marshal control message", "error", err)
		return
	}
	c.hub.reply(c, data)
}

func (c *connection) write(mt int, payload []byte) error {
	if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.ws.WriteMessage(mt, payload)
}

func (c *connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				_ = c.write(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.write(websocket.TextMessage, message); err != nil {
				c.logger.Debug("failed to write message", "error", err)
				return
			}
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				c.logger.Debug("failed to write ping", "error", err)
				return
			}
		}
	}
}

func controlError(code, message string) v1alpha1.ControlMessage {
	return v1alpha1.ControlMessage{
		TypeMeta:  v1alpha1.NewTypeMeta("ControlMessage"),
		Type:      v1alpha1.ControlMessageError,
		Timestamp: time.Now().UTC(),
		Error:     &v1alpha1.ControlError{Code: code, Message: message},
	}
}
