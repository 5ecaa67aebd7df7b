package game

import (
	"math/rand"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/jacl-coder/PixelStorm-Arena/internal/models"
	"github.com/jacl-coder/PixelStorm-Arena/internal/protocol"
	"github.com/jacl-coder/PixelStorm-Arena/internal/store"
)

// timing 对局节奏，测试中可缩短
type timing struct {
	countdown     time.Duration
	tick          time.Duration
	matchDuration int
	evictAfter    time.Duration
}

func defaultTiming() timing {
	return timing{
		countdown:     CountdownSeconds * time.Second,
		tick:          time.Second,
		matchDuration: MatchDurationSeconds,
		evictAfter:    EvictionGrace,
	}
}

// Option 管理器选项
type Option func(*Manager)

// WithClock 指定时钟
func WithClock(clock clockwork.Clock) Option {
	return func(m *Manager) { m.clock = clock }
}

// WithLogger 指定日志
func WithLogger(logger zerolog.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// WithLeaderboard 结算后同步排行榜
func WithLeaderboard(lb store.Leaderboard) Option {
	return func(m *Manager) { m.leaderboard = lb }
}

// withRand 注入随机数，用于伤害与重生点
func withRand(intn func(n int) int) Option {
	return func(m *Manager) { m.intn = intn }
}

func withTiming(t timing) Option {
	return func(m *Manager) { m.timing = t }
}

// Manager 持有所有进行中的对局，以及玩家到对局的映射。
// 加锁顺序：Session.mu 先于 Manager.mu，反向不允许。
type Manager struct {
	gateway     store.Gateway
	leaderboard store.Leaderboard
	outbox      Outbox
	clock       clockwork.Clock
	logger      zerolog.Logger
	intn        func(n int) int
	timing      timing

	mu             sync.RWMutex
	sessions       map[string]*Session
	playerSessions map[string]*Session
}

// NewManager 创建对局管理器
func NewManager(gateway store.Gateway, outbox Outbox, opts ...Option) *Manager {
	m := &Manager{
		gateway:        gateway,
		outbox:         outbox,
		clock:          clockwork.NewRealClock(),
		logger:         zerolog.Nop(),
		timing:         defaultTiming(),
		sessions:       make(map[string]*Session),
		playerSessions: make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.intn == nil {
		rng := rand.New(rand.NewSource(m.clock.Now().UnixNano()))
		var rngMu sync.Mutex
		m.intn = func(n int) int {
			rngMu.Lock()
			defer rngMu.Unlock()
			return rng.Intn(n)
		}
	}
	m.logger = m.logger.With().Str("component", "match_manager").Logger()
	return m
}

// Session 按对局ID查询
func (m *Manager) Session(matchID string) *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[matchID]
}

// SessionOf 查询玩家所在对局
func (m *Manager) SessionOf(playerID string) *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.playerSessions[playerID]
}

// Sessions 所有进行中的对局
func (m *Manager) Sessions() []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	return out
}

// SessionCount 进行中的对局数
func (m *Manager) SessionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// open 取得或创建对局
func (m *Manager) open(matchID string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[matchID]; ok {
		return s
	}
	s := newSession(matchID, m)
	m.sessions[matchID] = s
	m.logger.Info().Str("match_id", matchID).Msg("创建对局")
	return s
}

// waitingSession 返回任意一个仍在等待玩家的对局
func (m *Manager) waitingSession() *Session {
	for _, s := range m.Sessions() {
		if s.AcceptsPlayers() {
			return s
		}
	}
	return nil
}

// bind 记录玩家所在对局，调用方持有 s.mu
func (m *Manager) bind(playerID string, s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playerSessions[playerID] = s
}

// unbind 仅当玩家仍映射到 s 时解除，调用方持有 s.mu
func (m *Manager) unbind(playerID string, s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.playerSessions[playerID] == s {
		delete(m.playerSessions, playerID)
	}
}

// remove 移除对局，调用方持有 s.mu
func (m *Manager) remove(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sessions[s.MatchID] == s {
		delete(m.sessions, s.MatchID)
	}
}

// broadcast 序列化一次并投递给 recipients，跳过 exclude
func (m *Manager) broadcast(recipients []string, msg protocol.Outbound, exclude string) {
	data, err := protocol.Encode(msg)
	if err != nil {
		m.logger.Error().Err(err).Str("type", string(msg.MessageType())).Msg("序列化消息失败")
		return
	}
	for _, id := range recipients {
		if id == exclude {
			continue
		}
		m.outbox.SendRaw(id, data)
	}
}

func (m *Manager) send(playerID string, msg protocol.Outbound) {
	m.broadcast([]string{playerID}, msg, "")
}

// Close 停止所有对局计时器
func (m *Manager) Close() {
	for _, s := range m.Sessions() {
		s.shutdown()
	}
	m.logger.Info().Msg("对局管理器已关闭")
}

// statusPtr 构造状态指针
func statusPtr(s models.MatchStatus) *models.MatchStatus {
	return &s
}
