package http

import (
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wsAdapter "github.com/lorrc/newsroom-notifications/internal/adapters/primary/websocket"
	"github.com/lorrc/newsroom-notifications/internal/auth"
	"github.com/lorrc/newsroom-notifications/internal/config"
	"github.com/lorrc/newsroom-notifications/internal/core/domain"
	"github.com/lorrc/newsroom-notifications/internal/core/services"
)

const wsTestSecret = "websocket-test-secret"

type wsFixture struct {
	registry *services.SessionRegistry
	hub      *wsAdapter.Hub
	tm       *auth.TokenManager
	url      string
}

func newWSFixture(t *testing.T, env string, allowedOrigins []string) *wsFixture {
	t.Helper()

	cfg := &config.Config{
		JWT:       config.JWTConfig{Secret: wsTestSecret, CookieName: "access_token"},
		WebSocket: config.WebSocketConfig{AllowedOrigins: allowedOrigins, SendBufferSize: 8},
		App:       config.AppConfig{Environment: env},
	}

	registry := services.NewSessionRegistry()
	hub := wsAdapter.NewHub(registry, discardLogger())
	tm := auth.NewTokenManager(wsTestSecret, time.Hour)

	srv := httptest.NewServer(NewWebSocketHandler(hub, tm, cfg, discardLogger()))
	t.Cleanup(func() {
		hub.CloseAll()
		srv.Close()
	})

	return &wsFixture{
		registry: registry,
		hub:      hub,
		tm:       tm,
		url:      "ws" + strings.TrimPrefix(srv.URL, "http"),
	}
}

func (f *wsFixture) token(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	token, err := f.tm.GenerateToken(userID)
	require.NoError(t, err)
	return token
}

func TestWebSocketHandler_QueryTokenRegistersSession(t *testing.T) {
	f := newWSFixture(t, "development", nil)
	userID := uuid.New()

	conn, _, err := websocket.DefaultDialer.Dial(f.url+"?token="+f.token(t, userID), nil)
	require.NoError(t, err)
	defer conn.Close()

	var connID string
	require.Eventually(t, func() bool {
		id, ok := f.registry.Lookup(userID)
		connID = id
		return ok
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, f.hub.Push(connID, domain.Envelope{Event: "pong"}))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var got domain.Envelope
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, "pong", got.Event)
}

func TestWebSocketHandler_CookieToken(t *testing.T) {
	f := newWSFixture(t, "development", nil)
	userID := uuid.New()

	header := stdhttp.Header{}
	header.Set("Cookie", "access_token="+f.token(t, userID))

	conn, _, err := websocket.DefaultDialer.Dial(f.url, header)
	require.NoError(t, err)
	defer conn.Close()

	assert.Eventually(t, func() bool {
		_, ok := f.registry.Lookup(userID)
		return ok
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWebSocketHandler_RejectsMissingToken(t *testing.T) {
	f := newWSFixture(t, "development", nil)

	_, resp, err := websocket.DefaultDialer.Dial(f.url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, stdhttp.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, 0, f.registry.Count())
}

func TestWebSocketHandler_RejectsInvalidToken(t *testing.T) {
	f := newWSFixture(t, "development", nil)

	other := auth.NewTokenManager("a-different-secret", time.Hour)
	token, err := other.GenerateToken(uuid.New())
	require.NoError(t, err)

	_, resp, err := websocket.DefaultDialer.Dial(f.url+"?token="+token, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, stdhttp.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, 0, f.registry.Count())
}

func TestWebSocketHandler_DisconnectUnregisters(t *testing.T) {
	f := newWSFixture(t, "development", nil)
	userID := uuid.New()

	conn, _, err := websocket.DefaultDialer.Dial(f.url+"?token="+f.token(t, userID), nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		_, ok := f.registry.Lookup(userID)
		return ok
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())

	assert.Eventually(t, func() bool {
		_, ok := f.registry.Lookup(userID)
		return !ok
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWebSocketHandler_OriginCheck(t *testing.T) {
	f := newWSFixture(t, "production", []string{"news.example.com", "*.example.org"})
	token := f.token(t, uuid.New())

	tests := []struct {
		origin string
		ok     bool
	}{
		{"https://news.example.com", true},
		{"https://app.example.org", true},
		{"https://example.org", true},
		{"https://evil.example.net", false},
	}

	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			header := stdhttp.Header{}
			header.Set("Origin", tt.origin)

			conn, resp, err := websocket.DefaultDialer.Dial(f.url+"?token="+token, header)
			if tt.ok {
				require.NoError(t, err)
				_ = conn.Close()
				return
			}
			require.Error(t, err)
			require.NotNil(t, resp)
			assert.Equal(t, stdhttp.StatusForbidden, resp.StatusCode)
		})
	}
}

func TestOriginAllowed(t *testing.T) {
	allowed := []string{"news.example.com", "*.example.org"}
	assert.True(t, originAllowed("news.example.com", allowed))
	assert.True(t, originAllowed("a.b.example.org", allowed))
	assert.False(t, originAllowed("example.com", allowed))
	assert.False(t, originAllowed("badexample.org", allowed))
}
