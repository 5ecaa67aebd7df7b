package game

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"github.com/jacl-coder/PixelStorm-Arena/internal/models"
	"github.com/jacl-coder/PixelStorm-Arena/internal/protocol"
)

const (
	// MinPlayers 开始倒计时所需人数
	MinPlayers = 2
	// CountdownSeconds 开局倒计时
	CountdownSeconds = 3
	// MatchDurationSeconds 对局时长
	MatchDurationSeconds = 120
	// EvictionGrace 对局结束后保留时间
	EvictionGrace = 10 * time.Second
	// MaxHealth 满血
	MaxHealth = 100
)

// SpawnPoints 出生点
var SpawnPoints = []protocol.Vector3{
	{X: -5, Y: 1, Z: -5},
	{X: 5, Y: 1, Z: -5},
	{X: -5, Y: 1, Z: 5},
	{X: 5, Y: 1, Z: 5},
}

// ErrSessionClosed 对局不再接受玩家
var ErrSessionClosed = eris.New("session no longer accepts players")

// Participant 对局内玩家状态
type Participant struct {
	PlayerID string
	Username string
	AvatarID int
	Position protocol.Vector3
	Rotation float64
	Health   int
	Kills    int
	Deaths   int

	// settled 本局数据已写入玩家累计数据
	settled bool
}

func (p *Participant) snapshot() protocol.PlayerSnapshot {
	return protocol.PlayerSnapshot{
		ID:       p.PlayerID,
		Username: p.Username,
		AvatarID: p.AvatarID,
		X:        p.Position.X,
		Y:        p.Position.Y,
		Z:        p.Position.Z,
		Rotation: p.Rotation,
		Health:   p.Health,
		Kills:    p.Kills,
		Deaths:   p.Deaths,
	}
}

// Session 单局对局。所有状态修改都在持有 mu 时完成，
// 包括计时器回调与持久化调用，同一对局内的操作严格串行。
type Session struct {
	MatchID string

	m      *Manager
	logger zerolog.Logger

	mu            sync.Mutex
	status        models.MatchStatus
	timeRemaining int
	order         []string
	participants  map[string]*Participant
	joins         int
	winnerID      *string
	evicted       bool
	// void 倒计时中人数不足而作废，结束时不判胜负也不结算
	void bool

	// epoch 每次状态迁移递增，过期的计时器回调据此忽略
	epoch          uint64
	countdownTimer clockwork.Timer
	tickTimer      clockwork.Timer
	evictTimer     clockwork.Timer
}

func newSession(matchID string, m *Manager) *Session {
	return &Session{
		MatchID:      matchID,
		m:            m,
		logger:       m.logger.With().Str("match_id", matchID).Logger(),
		status:       models.MatchWaiting,
		participants: make(map[string]*Participant),
	}
}

// SessionInfo 对局快照
type SessionInfo struct {
	MatchID       string                    `json:"matchId"`
	Status        models.MatchStatus        `json:"status"`
	TimeRemaining int                       `json:"timeRemaining"`
	WinnerID      *string                   `json:"winnerId"`
	Players       []protocol.PlayerSnapshot `json:"players"`
}

// Info 返回对局快照
func (s *Session) Info() SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SessionInfo{
		MatchID:       s.MatchID,
		Status:        s.status,
		TimeRemaining: s.timeRemaining,
		WinnerID:      s.winnerID,
		Players:       s.snapshots(),
	}
}

// Status 当前状态
func (s *Session) Status() models.MatchStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// TimeRemaining 剩余秒数
func (s *Session) TimeRemaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timeRemaining
}

// PlayerCount 当前人数
func (s *Session) PlayerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

// Participant 返回玩家状态副本
func (s *Session) Participant(playerID string) (Participant, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.participants[playerID]
	if !ok {
		return Participant{}, false
	}
	return *p, true
}

// AcceptsPlayers 是否仍在等待玩家
func (s *Session) AcceptsPlayers() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.acceptsPlayers()
}

func (s *Session) acceptsPlayers() bool {
	return s.status == models.MatchWaiting && !s.evicted
}

func (s *Session) snapshots() []protocol.PlayerSnapshot {
	out := make([]protocol.PlayerSnapshot, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.participants[id].snapshot())
	}
	return out
}

// broadcast 发给对局内所有玩家，exclude 为空表示不排除
func (s *Session) broadcast(msg protocol.Outbound, exclude string) {
	s.m.broadcast(s.order, msg, exclude)
}

// admit 将玩家加入对局并在人数足够时开始倒计时
func (s *Session) admit(ctx context.Context, player *models.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.acceptsPlayers() {
		return ErrSessionClosed
	}

	p, exists := s.participants[player.ID]
	if !exists {
		p = &Participant{
			PlayerID: player.ID,
			Username: player.Username,
			AvatarID: player.AvatarID,
			Position: SpawnPoints[s.joins%len(SpawnPoints)],
			Health:   MaxHealth,
		}
		s.joins++
		s.participants[player.ID] = p
		s.order = append(s.order, player.ID)
	}
	s.m.bind(player.ID, s)

	s.logger.Info().
		Str("player_id", player.ID).
		Int("player_count", len(s.order)).
		Msg("玩家加入对局")

	if !exists {
		s.broadcast(protocol.NewPlayerJoined(p.snapshot(), len(s.order)), player.ID)
	}
	s.m.send(player.ID, protocol.NewMatchJoined(s.MatchID, string(s.status), s.snapshots()))

	if len(s.order) >= MinPlayers {
		s.beginCountdown(ctx)
	}
	return nil
}

// Move 更新玩家位置，仅在游戏中有效
func (s *Session) Move(playerID string, move protocol.PlayerMove) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != models.MatchPlaying {
		return
	}
	p, ok := s.participants[playerID]
	if !ok {
		return
	}
	p.Position = protocol.Vector3{X: move.X, Y: move.Y, Z: move.Z}
	p.Rotation = move.Rotation
	s.broadcast(protocol.NewPlayerMoved(playerID, move), playerID)
}

// Shoot 处理射击，仅在游戏中有效
func (s *Session) Shoot(shooterID, targetID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != models.MatchPlaying {
		return
	}
	shooter, ok := s.participants[shooterID]
	if !ok {
		return
	}
	target, ok := s.participants[targetID]
	if !ok {
		return
	}
	if shooter == target {
		s.logger.Debug().Str("player_id", shooterID).Msg("忽略对自身的射击")
		return
	}

	hit := resolveShot(shooter, target, s.m.intn)
	s.broadcast(protocol.NewPlayerHit(targetID, shooterID, hit.damage, hit.health), "")
	if hit.killed {
		s.logger.Debug().
			Str("player_id", shooterID).
			Str("target_id", targetID).
			Int("kills", shooter.Kills).
			Msg("击杀")
		s.broadcast(protocol.NewPlayerKilled(targetID, shooterID, shooter.Kills, hit.respawn), "")
	}
}

// Leave 玩家离开或断线
func (s *Session) Leave(ctx context.Context, playerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.participants[playerID]
	if !ok {
		s.m.unbind(playerID, s)
		return
	}

	delete(s.participants, playerID)
	for i, id := range s.order {
		if id == playerID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.m.unbind(playerID, s)

	if !p.settled {
		s.settleDeparted(ctx, p)
	}

	s.logger.Info().
		Str("player_id", playerID).
		Int("player_count", len(s.order)).
		Msg("玩家离开对局")
	s.broadcast(protocol.NewPlayerLeft(playerID, len(s.order)), "")

	if len(s.order) >= MinPlayers {
		return
	}
	switch s.status {
	case models.MatchCountdown:
		// 倒计时中人数不足，对局作废并沿合法迁移直接结束
		s.void = true
		s.startMatch(ctx)
	case models.MatchPlaying:
		s.endMatch(ctx)
	}
}

// settleDeparted 写入中途离开玩家的击杀与死亡，不计入完成局数与经验
func (s *Session) settleDeparted(ctx context.Context, p *Participant) {
	p.settled = true
	if p.Kills == 0 && p.Deaths == 0 {
		return
	}

	logger := s.logger.With().Str("player_id", p.PlayerID).Logger()
	if _, err := s.m.gateway.AddPlayerStats(ctx, p.PlayerID, models.StatsDelta{
		Kills:  p.Kills,
		Deaths: p.Deaths,
	}); err != nil {
		logger.Error().Err(err).Msg("写入离开玩家战绩失败")
	}
	if err := s.m.gateway.UpdateParticipant(ctx, s.MatchID, p.PlayerID, models.ParticipantResult{
		Kills:  p.Kills,
		Deaths: p.Deaths,
		Score:  p.Kills * ScorePerKill,
	}); err != nil {
		logger.Error().Err(err).Msg("写入离开玩家对局记录失败")
	}
}
