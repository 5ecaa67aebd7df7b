package game

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacl-coder/PixelStorm-Arena/internal/models"
	"github.com/jacl-coder/PixelStorm-Arena/internal/protocol"
)

func newTestDispatcher(t *testing.T) (*harness, *Dispatcher) {
	t.Helper()
	h := newHarness(t)
	return h, NewDispatcher(h.manager, h.pool, h.registry, zerolog.Nop())
}

func createPlayer(t *testing.T, h *harness, username string) string {
	t.Helper()
	p, err := h.gateway.CreatePlayer(context.Background(), models.NewPlayer{Username: username})
	require.NoError(t, err)
	return p.ID
}

func joinMsg(playerID string) []byte {
	return []byte(fmt.Sprintf(`{"type":"join_matchmaking","playerId":%q}`, playerID))
}

func TestDispatcherJoin(t *testing.T) {
	h, d := newTestDispatcher(t)
	id := createPlayer(t, h, "alice")
	conn := NewPlayerConnection()

	d.Handle(context.Background(), conn, joinMsg(id))

	assert.Equal(t, id, conn.PlayerID())
	got, ok := h.registry.Lookup(id)
	require.True(t, ok)
	assert.Same(t, conn, got)
	require.NotNil(t, h.manager.SessionOf(id))
	assert.Equal(t, []protocol.Type{protocol.TypeMatchJoined}, types(drain(t, conn)))
}

func TestDispatcherIgnoresBadMessages(t *testing.T) {
	h, d := newTestDispatcher(t)
	conn := NewPlayerConnection()

	for _, raw := range []string{
		`not json`,
		`{"type":"teleport"}`,
		`{"type":"join_matchmaking"}`,
		`{"type":"player_move","x":1}`,
		`{"type":"player_shoot","targetId":"x"}`,
		`{"type":"leave_match"}`,
	} {
		d.Handle(context.Background(), conn, []byte(raw))
	}

	assert.True(t, conn.IsOpen())
	assert.Empty(t, drain(t, conn))
	assert.Zero(t, h.manager.SessionCount())
}

func TestDispatcherRejectsTokenMismatch(t *testing.T) {
	h, d := newTestDispatcher(t)
	id := createPlayer(t, h, "alice")
	conn := NewPlayerConnection()
	conn.authSubject = "someone-else"

	d.Handle(context.Background(), conn, joinMsg(id))

	_, ok := h.registry.Lookup(id)
	assert.False(t, ok)
	assert.Nil(t, h.manager.SessionOf(id))
}

func TestDispatcherRoutesGameplay(t *testing.T) {
	h, d := newTestDispatcher(t)
	a, b := createPlayer(t, h, "alice"), createPlayer(t, h, "bob")
	connA, connB := NewPlayerConnection(), NewPlayerConnection()
	ctx := context.Background()

	d.Handle(ctx, connA, joinMsg(a))
	d.Handle(ctx, connB, joinMsg(b))
	s := h.manager.SessionOf(a)
	require.NotNil(t, s)

	h.advance(CountdownSeconds * time.Second)
	h.waitStatus(t, s, models.MatchPlaying)
	drain(t, connA)
	drain(t, connB)

	d.Handle(ctx, connA, []byte(`{"type":"player_move","x":2,"y":1,"z":3,"rotation":45}`))
	d.Handle(ctx, connA, []byte(fmt.Sprintf(`{"type":"player_shoot","targetId":%q}`, b)))

	assert.Equal(t, []protocol.Type{protocol.TypePlayerMoved, protocol.TypePlayerHit}, types(drain(t, connB)))
	assert.Equal(t, []protocol.Type{protocol.TypePlayerHit}, types(drain(t, connA)))
}

func TestDispatcherLeaveMatchUnregisters(t *testing.T) {
	h, d := newTestDispatcher(t)
	id := createPlayer(t, h, "alice")
	conn := NewPlayerConnection()
	ctx := context.Background()

	d.Handle(ctx, conn, joinMsg(id))
	s := h.manager.SessionOf(id)
	require.NotNil(t, s)

	d.Handle(ctx, conn, []byte(`{"type":"leave_match"}`))

	_, ok := h.registry.Lookup(id)
	assert.False(t, ok)
	assert.True(t, conn.IsOpen())
	assert.Nil(t, h.manager.SessionOf(id))
	assert.Zero(t, s.PlayerCount())
}

func TestDispatcherDisconnectSupersededConnection(t *testing.T) {
	h, d := newTestDispatcher(t)
	id := createPlayer(t, h, "alice")
	oldConn, newConn := NewPlayerConnection(), NewPlayerConnection()
	ctx := context.Background()

	d.Handle(ctx, oldConn, joinMsg(id))
	d.Handle(ctx, newConn, joinMsg(id))
	assert.False(t, oldConn.IsOpen())

	d.Disconnect(ctx, oldConn)

	got, ok := h.registry.Lookup(id)
	require.True(t, ok)
	assert.Same(t, newConn, got)
	require.NotNil(t, h.manager.SessionOf(id))

	d.Disconnect(ctx, newConn)
	_, ok = h.registry.Lookup(id)
	assert.False(t, ok)
	assert.Nil(t, h.manager.SessionOf(id))
	assert.False(t, newConn.IsOpen())
}
