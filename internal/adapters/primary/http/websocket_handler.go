package http

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"

	mw "github.com/lorrc/newsroom-notifications/internal/adapters/primary/http/middleware"
	wsAdapter "github.com/lorrc/newsroom-notifications/internal/adapters/primary/websocket"
	"github.com/lorrc/newsroom-notifications/internal/auth"
	"github.com/lorrc/newsroom-notifications/internal/config"
)

// WebSocketHandler authenticates and upgrades live notification connections
type WebSocketHandler struct {
	hub            *wsAdapter.Hub
	tm             *auth.TokenManager
	upgrader       websocket.Upgrader
	cookieName     string
	sendBufferSize int
	logger         *slog.Logger
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(
	hub *wsAdapter.Hub,
	tm *auth.TokenManager,
	cfg *config.Config,
	logger *slog.Logger,
) *WebSocketHandler {
	handler := &WebSocketHandler{
		hub:            hub,
		tm:             tm,
		cookieName:     cfg.JWT.CookieName,
		sendBufferSize: cfg.WebSocket.SendBufferSize,
		logger:         logger.With("handler", "websocket"),
	}

	handler.upgrader = websocket.Upgrader{
		ReadBufferSize:  cfg.WebSocket.ReadBufferSize,
		WriteBufferSize: cfg.WebSocket.WriteBufferSize,
		CheckOrigin:     handler.makeOriginChecker(cfg),
	}

	return handler
}

// makeOriginChecker creates an origin checking function based on configuration
func (h *WebSocketHandler) makeOriginChecker(cfg *config.Config) func(r *http.Request) bool {
	allowedOrigins := cfg.WebSocket.AllowedOrigins
	development := cfg.IsDevelopment()

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")

		if development {
			if origin != "" {
				h.logger.Debug("allowing websocket origin in development mode",
					"origin", origin,
					"remote_addr", r.RemoteAddr,
				)
			}
			return true
		}

		// No origin header (same-origin request or non-browser client)
		if origin == "" {
			return true
		}

		parsedOrigin, err := url.Parse(origin)
		if err != nil {
			h.logger.Warn("failed to parse websocket origin",
				"origin", origin,
				"error", err,
			)
			return false
		}

		if originAllowed(parsedOrigin.Host, allowedOrigins) {
			return true
		}

		h.logger.Warn("websocket connection rejected due to origin",
			"origin", origin,
			"remote_addr", r.RemoteAddr,
			"allowed_origins", allowedOrigins,
		)
		return false
	}
}

// originAllowed matches a host against exact entries and "*.example.com"
// wildcard entries.
func originAllowed(host string, allowed []string) bool {
	for _, entry := range allowed {
		if strings.HasPrefix(entry, "*.") {
			suffix := entry[1:]
			if strings.HasSuffix(host, suffix) || host == entry[2:] {
				return true
			}
		} else if host == entry {
			return true
		}
	}
	return false
}

// ServeHTTP verifies the caller's credential, upgrades the connection and
// attaches it to the hub as the caller's live session.
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tokenString := mw.TokenFromRequest(r, h.cookieName)
	if tokenString == "" {
		h.logger.WarnContext(ctx, "websocket connection rejected: missing token",
			"remote_addr", r.RemoteAddr,
		)
		WriteJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error: "Missing authentication token",
			Code:  "UNAUTHORIZED",
		})
		return
	}

	identity, err := h.tm.VerifyConnectionCredential(tokenString)
	if err != nil {
		h.logger.WarnContext(ctx, "websocket connection rejected: invalid token",
			"remote_addr", r.RemoteAddr,
			"error", err,
		)
		WriteJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error: "Invalid or expired token",
			Code:  "UNAUTHORIZED",
		})
		return
	}

	// Upgrade writes its own error response on failure.
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to upgrade websocket connection",
			"user_id", identity.UserID,
			"error", err,
		)
		return
	}

	client := wsAdapter.NewClient(ctx, h.hub, conn, identity.UserID, h.sendBufferSize, h.logger)
	h.hub.Attach(client)

	h.logger.InfoContext(client.LogContext(), "websocket connection established",
		"remote_addr", r.RemoteAddr,
	)

	go client.WritePump()
	go client.ReadPump()
}
