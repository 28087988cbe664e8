package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/lorrc/newsroom-notifications/internal/core/domain"
	"github.com/lorrc/newsroom-notifications/internal/infrastructure/logging"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 1024

	// DefaultSendBufferSize is the outbound queue length per connection.
	DefaultSendBufferSize = 256
)

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	Hub *Hub

	// ID identifies this connection in the session registry.
	ID string

	// The websocket connection.
	Conn *websocket.Conn

	// Buffered channel of outbound messages.
	Send chan domain.Envelope

	// User ID for this client.
	UserID uuid.UUID

	// closeOnce ensures the Send channel is only closed once
	closeOnce sync.Once

	// logCtx carries the user and connection ids for log records.
	logCtx context.Context
	logger *slog.Logger
}

// NewClient creates a new WebSocket client with a fresh connection ID. The
// client's log context keeps ctx's values but not its cancellation.
func NewClient(ctx context.Context, hub *Hub, conn *websocket.Conn, userID uuid.UUID, sendBufferSize int, logger *slog.Logger) *Client {
	if sendBufferSize <= 0 {
		sendBufferSize = DefaultSendBufferSize
	}
	id := uuid.NewString()

	logCtx := logging.WithUserID(context.WithoutCancel(ctx), userID.String())
	logCtx = logging.WithConnectionID(logCtx, id)

	return &Client{
		Hub:    hub,
		ID:     id,
		Conn:   conn,
		Send:   make(chan domain.Envelope, sendBufferSize),
		UserID: userID,
		logCtx: logCtx,
		logger: logging.LoggerFromContext(logCtx, logger),
	}
}

// LogContext returns the context that tags log records with this
// connection.
func (c *Client) LogContext() context.Context {
	if c.logCtx == nil {
		return context.Background()
	}
	return c.logCtx
}

// CloseSend safely closes the Send channel exactly once
func (c *Client) CloseSend() {
	c.closeOnce.Do(func() {
		close(c.Send)
	})
}

// ReadPump reads from the websocket connection until it closes, then
// detaches the client. This method runs in its own goroutine.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Detach(c)
		_ = c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	if err := c.Conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error("failed to set read deadline", "error", err)
		return
	}

	c.Conn.SetPongHandler(func(string) error {
		if err := c.Conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			c.logger.Error("failed to set read deadline in pong handler", "error", err)
		}
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.logger.Warn("websocket read error", "error", err)
			}
			break
		}

		c.handleIncomingMessage(message)
	}
}

// WritePump pumps messages from the hub to the websocket connection.
// This method runs in its own goroutine.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()

	for {
		select {
		case envelope, ok := <-c.Send:
			if err := c.Conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.logger.Error("failed to set write deadline", "error", err)
				return
			}

			if !ok {
				// The hub closed the channel. Send close message.
				if err := c.Conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
					c.logger.Debug("failed to send close message", "error", err)
				}
				return
			}

			if err := c.writeJSON(envelope); err != nil {
				c.logger.Error("failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			if err := c.Conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.logger.Error("failed to set write deadline for ping", "error", err)
				return
			}

			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Debug("failed to send ping", "error", err)
				return
			}
		}
	}
}

// writeJSON writes a JSON message to the websocket connection
func (c *Client) writeJSON(envelope domain.Envelope) error {
	w, err := c.Conn.NextWriter(websocket.TextMessage)
	if err != nil {
		return err
	}

	if err := json.NewEncoder(w).Encode(envelope); err != nil {
		_ = w.Close()
		return err
	}

	return w.Close()
}

// --- Incoming Message Handling ---

// ClientMessage is the structure for messages sent from the client.
// Only an application-level ping is understood; the connection is
// otherwise receive-only.
type ClientMessage struct {
	Event string `json:"event"`
}

func (c *Client) handleIncomingMessage(message []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		c.logger.Warn("failed to unmarshal client message", "error", err)
		return
	}

	switch msg.Event {
	case "ping":
		// Client-side keep-alive, respond through the hub so the send
		// channel is never written after it is closed.
		_ = c.Hub.Push(c.ID, domain.Envelope{Event: "pong"})
	default:
		c.logger.Debug("received unknown message", "event", msg.Event)
	}
}
