package websocket

import (
	"log/slog"
	"sync"

	"github.com/lorrc/newsroom-notifications/internal/core/domain"
	apperrors "github.com/lorrc/newsroom-notifications/internal/core/errors"
	"github.com/lorrc/newsroom-notifications/internal/core/ports"
)

// Hub tracks open connections by connection ID and hands each new or
// closed connection to the session tracker.
type Hub struct {
	// clients maps connection IDs to their client
	clients map[string]*Client

	// sessions is told about every connect and disconnect
	sessions ports.SessionTracker

	// mu protects clients and serializes sends with channel closes
	mu sync.RWMutex

	logger *slog.Logger
}

// Ensure Hub implements the Pusher interface.
var _ ports.Pusher = (*Hub)(nil)

// NewHub creates a new WebSocket hub
func NewHub(sessions ports.SessionTracker, logger *slog.Logger) *Hub {
	return &Hub{
		clients:  make(map[string]*Client),
		sessions: sessions,
		logger:   logger.With("component", "websocket_hub"),
	}
}

// Attach adds a client and registers it as its user's live connection.
func (h *Hub) Attach(client *Client) {
	h.mu.Lock()
	h.clients[client.ID] = client
	total := len(h.clients)
	h.mu.Unlock()

	h.sessions.Register(client.UserID, client.ID)

	h.logger.InfoContext(client.LogContext(), "client connected", "total_connections", total)
}

// Detach removes a client, unregisters it if it is still its user's live
// connection, and closes its send channel. Safe to call more than once.
func (h *Hub) Detach(client *Client) {
	h.mu.Lock()
	if current, ok := h.clients[client.ID]; ok && current == client {
		delete(h.clients, client.ID)
	}
	// Closing under the write lock keeps Push from sending on a closed channel.
	client.CloseSend()
	h.mu.Unlock()

	removed := h.sessions.Unregister(client.UserID, client.ID)

	h.logger.InfoContext(client.LogContext(), "client disconnected", "was_current", removed)
}

// Push queues an envelope on a connection without blocking.
func (h *Hub) Push(connectionID string, envelope domain.Envelope) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	client, ok := h.clients[connectionID]
	if !ok {
		return apperrors.ErrConnectionNotFound
	}

	select {
	case client.Send <- envelope:
		return nil
	default:
		return apperrors.ErrSendBufferFull
	}
}

// ClientCount returns the number of open connections.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// CloseAll detaches every client so their write pumps send a close frame.
func (h *Hub) CloseAll() {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for _, client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		h.Detach(client)
	}
}
