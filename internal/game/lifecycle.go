package game

import (
	"context"

	"github.com/jacl-coder/PixelStorm-Arena/internal/models"
	"github.com/jacl-coder/PixelStorm-Arena/internal/protocol"
)

const (
	// ScorePerKill 每次击杀得分
	ScorePerKill = 100
	// XPPerKill 每次击杀经验
	XPPerKill = 100
	// XPWin 胜者额外经验
	XPWin = 500
	// XPParticipation 非胜者参与经验
	XPParticipation = 100
)

// transition 迁移状态并使所有已布置的计时器失效
func (s *Session) transition(to models.MatchStatus) bool {
	if !s.status.CanTransition(to) {
		s.logger.Warn().
			Str("from", string(s.status)).
			Str("to", string(to)).
			Msg("非法状态迁移")
		return false
	}
	s.stopTimers()
	s.epoch++
	s.logger.Info().
		Str("from", string(s.status)).
		Str("to", string(to)).
		Msg("对局状态变更")
	s.status = to
	return true
}

func (s *Session) stopTimers() {
	if s.countdownTimer != nil {
		s.countdownTimer.Stop()
		s.countdownTimer = nil
	}
	if s.tickTimer != nil {
		s.tickTimer.Stop()
		s.tickTimer = nil
	}
	if s.evictTimer != nil {
		s.evictTimer.Stop()
		s.evictTimer = nil
	}
}

// persist 写入对局状态，失败只记录
func (s *Session) persist(ctx context.Context, update models.MatchUpdate) {
	if _, err := s.m.gateway.UpdateMatch(ctx, s.MatchID, update); err != nil {
		s.logger.Error().Err(err).Msg("更新对局记录失败")
	}
}

// beginCountdown waiting -> countdown
func (s *Session) beginCountdown(ctx context.Context) {
	if !s.transition(models.MatchCountdown) {
		return
	}
	s.persist(ctx, models.MatchUpdate{Status: statusPtr(models.MatchCountdown)})
	s.broadcast(protocol.NewCountdownStart(CountdownSeconds), "")

	epoch := s.epoch
	s.countdownTimer = s.m.clock.AfterFunc(s.m.timing.countdown, func() {
		s.onCountdownElapsed(epoch)
	})
}

func (s *Session) onCountdownElapsed(epoch uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.epoch != epoch || s.status != models.MatchCountdown {
		return
	}
	s.startMatch(context.Background())
}

// startMatch countdown -> playing
func (s *Session) startMatch(ctx context.Context) {
	if !s.transition(models.MatchPlaying) {
		return
	}
	s.timeRemaining = s.m.timing.matchDuration
	now := s.m.clock.Now()
	s.persist(ctx, models.MatchUpdate{
		Status:    statusPtr(models.MatchPlaying),
		StartedAt: &now,
	})
	if s.void {
		s.endMatch(ctx)
		return
	}
	s.broadcast(protocol.NewMatchStart(s.timeRemaining), "")
	s.armTick()
}

func (s *Session) armTick() {
	epoch := s.epoch
	s.tickTimer = s.m.clock.AfterFunc(s.m.timing.tick, func() {
		s.onTick(epoch)
	})
}

func (s *Session) onTick(epoch uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.epoch != epoch || s.status != models.MatchPlaying {
		return
	}
	s.timeRemaining--
	s.broadcast(protocol.NewTimeUpdate(s.timeRemaining), "")
	if s.timeRemaining <= 0 {
		s.endMatch(context.Background())
		return
	}
	s.armTick()
}

// endMatch playing -> ended：结算、广播结果并布置回收，作废的对局不结算
func (s *Session) endMatch(ctx context.Context) {
	if !s.transition(models.MatchEnded) {
		return
	}

	if !s.void {
		s.winnerID = s.pickWinner()
	}
	now := s.m.clock.Now()
	s.persist(ctx, models.MatchUpdate{
		Status:   statusPtr(models.MatchEnded),
		WinnerID: s.winnerID,
		EndedAt:  &now,
	})

	results := make([]protocol.PlayerResult, 0, len(s.order))
	for _, id := range s.order {
		p := s.participants[id]
		won := s.winnerID != nil && *s.winnerID == id
		if !p.settled && !s.void {
			s.settle(ctx, p, won)
		}
		results = append(results, protocol.PlayerResult{
			PlayerID: p.PlayerID,
			Username: p.Username,
			Kills:    p.Kills,
			Deaths:   p.Deaths,
			Score:    p.Kills * ScorePerKill,
		})
	}

	event := s.logger.Info().Int("player_count", len(s.order)).Bool("void", s.void)
	if s.winnerID != nil {
		event = event.Str("winner_id", *s.winnerID)
	}
	event.Msg("对局结束")
	s.broadcast(protocol.NewMatchEnded(s.winnerID, results), "")

	epoch := s.epoch
	s.evictTimer = s.m.clock.AfterFunc(s.m.timing.evictAfter, func() {
		s.onEvict(epoch)
	})
}

// pickWinner 击杀数严格最高者，平局取最早加入者
func (s *Session) pickWinner() *string {
	var winner *Participant
	for _, id := range s.order {
		p := s.participants[id]
		if winner == nil || p.Kills > winner.Kills {
			winner = p
		}
	}
	if winner == nil {
		return nil
	}
	id := winner.PlayerID
	return &id
}

// matchXP 单局经验
func matchXP(kills int, won bool) int {
	xp := kills * XPPerKill
	if won {
		return xp + XPWin
	}
	return xp + XPParticipation
}

// settle 写入单个玩家的对局结果，失败只记录，不影响其他玩家
func (s *Session) settle(ctx context.Context, p *Participant, won bool) {
	p.settled = true
	logger := s.logger.With().Str("player_id", p.PlayerID).Logger()

	delta := models.StatsDelta{
		Kills:         p.Kills,
		Deaths:        p.Deaths,
		MatchesPlayed: 1,
		XP:            matchXP(p.Kills, won),
	}
	if won {
		delta.MatchesWon = 1
	}

	updated, err := s.m.gateway.AddPlayerStats(ctx, p.PlayerID, delta)
	if err != nil {
		logger.Error().Err(err).Msg("写入玩家战绩失败")
	}
	if err := s.m.gateway.UpdateParticipant(ctx, s.MatchID, p.PlayerID, models.ParticipantResult{
		Kills:  p.Kills,
		Deaths: p.Deaths,
		Score:  p.Kills * ScorePerKill,
	}); err != nil {
		logger.Error().Err(err).Msg("写入对局记录失败")
	}
	if updated != nil && s.m.leaderboard != nil {
		if err := s.m.leaderboard.Record(ctx, updated); err != nil {
			logger.Warn().Err(err).Msg("更新排行榜缓存失败")
		}
	}
}

func (s *Session) onEvict(epoch uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.epoch != epoch || s.status != models.MatchEnded || s.evicted {
		return
	}
	s.evicted = true
	s.evictTimer = nil
	for _, id := range s.order {
		s.m.unbind(id, s)
	}
	s.m.remove(s)
	s.logger.Info().Msg("回收对局")
}

// shutdown 进程退出时停止计时器
func (s *Session) shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopTimers()
	s.epoch++
}
