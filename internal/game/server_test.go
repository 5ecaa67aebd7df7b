package game

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacl-coder/PixelStorm-Arena/config"
	"github.com/jacl-coder/PixelStorm-Arena/internal/auth"
	"github.com/jacl-coder/PixelStorm-Arena/internal/models"
	"github.com/jacl-coder/PixelStorm-Arena/internal/protocol"
	"github.com/jacl-coder/PixelStorm-Arena/internal/store"
)

func newTestServer(t *testing.T, secret string) (*GameServer, *store.MemoryGateway, *httptest.Server) {
	t.Helper()
	cfg := &config.Config{}
	cfg.Server.JWTSecret = secret
	gateway := store.NewMemoryGateway()
	gs := NewGameServer(cfg, gateway, zerolog.Nop())
	srv := httptest.NewServer(gs.Handler())
	t.Cleanup(func() {
		srv.Close()
		gs.manager.Close()
	})
	return gs, gateway, srv
}

func wsURL(srv *httptest.Server, query string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws" + query
}

func readMessage(t *testing.T, conn *websocket.Conn) protocol.Outbound {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	msg, err := protocol.DecodeOutbound(data)
	require.NoError(t, err)
	return msg
}

func TestHealth(t *testing.T) {
	_, _, srv := newTestServer(t, "")

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestWebSocketJoinAndDisconnect(t *testing.T) {
	gs, gateway, srv := newTestServer(t, "")
	p, err := gateway.CreatePlayer(context.Background(), models.NewPlayer{Username: "alice"})
	require.NoError(t, err)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, ""), nil)
	require.NoError(t, err)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, joinMsg(p.ID)))
	joined, ok := readMessage(t, conn).(*protocol.MatchJoined)
	require.True(t, ok)
	require.Len(t, joined.Players, 1)
	assert.Equal(t, p.ID, joined.Players[0].ID)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool {
		_, registered := gs.Registry().Lookup(p.ID)
		return !registered && gs.Manager().SessionOf(p.ID) == nil
	}, waitFor, 10*time.Millisecond)
}

func TestWebSocketHandshakeToken(t *testing.T) {
	_, gateway, srv := newTestServer(t, "secret")
	p, err := gateway.CreatePlayer(context.Background(), models.NewPlayer{Username: "alice"})
	require.NoError(t, err)

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv, ""), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	token, err := auth.Sign("secret", p.ID, time.Minute)
	require.NoError(t, err)
	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, "?token="+token), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, joinMsg(p.ID)))
	_, ok := readMessage(t, conn).(*protocol.MatchJoined)
	assert.True(t, ok)
}

func TestUpgraderOrigins(t *testing.T) {
	check := func(allowed []string, origin string) bool {
		r := httptest.NewRequest(http.MethodGet, "/ws", nil)
		if origin != "" {
			r.Header.Set("Origin", origin)
		}
		u := newUpgrader(allowed)
		return u.CheckOrigin(r)
	}

	assert.True(t, check(nil, "http://evil.example"))
	assert.True(t, check([]string{"*"}, "http://evil.example"))
	assert.True(t, check([]string{"http://game.example"}, "http://game.example"))
	assert.False(t, check([]string{"http://game.example"}, "http://evil.example"))
	assert.True(t, check([]string{"http://game.example"}, ""))
}
