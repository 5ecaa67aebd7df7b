package game

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/jacl-coder/PixelStorm-Arena/internal/models"
	"github.com/jacl-coder/PixelStorm-Arena/internal/protocol"
	"github.com/jacl-coder/PixelStorm-Arena/internal/store"
)

const waitFor = 2 * time.Second

type harness struct {
	gateway  *store.MemoryGateway
	registry *Registry
	manager  *Manager
	pool     *Pool
	advance  func(time.Duration)
	conns    map[string]*PlayerConnection
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	gateway := store.NewMemoryGateway()
	return newHarnessOn(t, gateway, gateway, opts...)
}

// newHarnessOn 对局经由 backend 持久化，测试断言直接读 gateway
func newHarnessOn(t *testing.T, gateway *store.MemoryGateway, backend store.Gateway, opts ...Option) *harness {
	t.Helper()

	clock := clockwork.NewFakeClock()
	registry := NewRegistry(zerolog.Nop())
	base := []Option{
		WithClock(clock),
		withRand(func(int) int { return 0 }),
	}
	manager := NewManager(backend, registry, append(base, opts...)...)
	t.Cleanup(manager.Close)

	return &harness{
		gateway:  gateway,
		registry: registry,
		manager:  manager,
		pool:     NewPool(manager),
		advance:  clock.Advance,
		conns:    make(map[string]*PlayerConnection),
	}
}

// player 创建玩家并注册一个本地连接
func (h *harness) player(t *testing.T, username string) string {
	t.Helper()
	p, err := h.gateway.CreatePlayer(context.Background(), models.NewPlayer{Username: username, AvatarID: 2})
	require.NoError(t, err)

	conn := NewPlayerConnection()
	conn.playerID = p.ID
	h.registry.Register(p.ID, conn)
	h.conns[p.ID] = conn
	return p.ID
}

func (h *harness) join(t *testing.T, playerID string) *Session {
	t.Helper()
	s, err := h.pool.Admit(context.Background(), playerID)
	require.NoError(t, err)
	return s
}

// messages 取出玩家连接上已缓冲的所有消息
func (h *harness) messages(t *testing.T, playerID string) []protocol.Outbound {
	t.Helper()
	return drain(t, h.conns[playerID])
}

func (h *harness) waitStatus(t *testing.T, s *Session, status models.MatchStatus) {
	t.Helper()
	require.Eventually(t, func() bool {
		return s.Status() == status
	}, waitFor, 5*time.Millisecond)
}

// startPlaying 两名玩家加入并推进到游戏中
func (h *harness) startPlaying(t *testing.T) (*Session, string, string) {
	t.Helper()
	a := h.player(t, "alice")
	b := h.player(t, "bob")
	s := h.join(t, a)
	require.Same(t, s, h.join(t, b))

	h.advance(CountdownSeconds * time.Second)
	h.waitStatus(t, s, models.MatchPlaying)
	h.messages(t, a)
	h.messages(t, b)
	return s, a, b
}

func drain(t *testing.T, conn *PlayerConnection) []protocol.Outbound {
	t.Helper()
	var out []protocol.Outbound
	for {
		select {
		case data, ok := <-conn.send:
			if !ok {
				return out
			}
			msg, err := protocol.DecodeOutbound(data)
			require.NoError(t, err)
			out = append(out, msg)
		default:
			return out
		}
	}
}

func ofType[T protocol.Outbound](msgs []protocol.Outbound) []T {
	var out []T
	for _, m := range msgs {
		if v, ok := m.(T); ok {
			out = append(out, v)
		}
	}
	return out
}

func types(msgs []protocol.Outbound) []protocol.Type {
	out := make([]protocol.Type, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.MessageType())
	}
	return out
}

// recordingLeaderboard 记录结算时同步的玩家
type recordingLeaderboard struct {
	mu       sync.Mutex
	recorded []models.Player
}

func (l *recordingLeaderboard) Top(context.Context, int) ([]models.LeaderboardEntry, error) {
	return nil, nil
}

func (l *recordingLeaderboard) Record(_ context.Context, p *models.Player) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.recorded = append(l.recorded, *p)
	return nil
}

func (l *recordingLeaderboard) Refresh(context.Context) error { return nil }

func (l *recordingLeaderboard) ids() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, 0, len(l.recorded))
	for _, p := range l.recorded {
		out = append(out, p.ID)
	}
	return out
}
