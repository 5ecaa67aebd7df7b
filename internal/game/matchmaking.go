package game

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"github.com/jacl-coder/PixelStorm-Arena/internal/store"
)

// Pool 匹配池。入队请求串行处理，保证并发加入的玩家落在同一个等待中的对局。
type Pool struct {
	manager *Manager
	gateway store.Gateway
	logger  zerolog.Logger

	mu sync.Mutex
}

// NewPool 创建匹配池
func NewPool(manager *Manager) *Pool {
	return &Pool{
		manager: manager,
		gateway: manager.gateway,
		logger:  manager.logger.With().Str("component", "matchmaking").Logger(),
	}
}

// Admit 将玩家放入一个等待中的对局，必要时新建对局。
// 玩家已在其他对局中时先离开原对局。
func (p *Pool) Admit(ctx context.Context, playerID string) (*Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	player, err := p.gateway.GetPlayer(ctx, playerID)
	if err != nil {
		return nil, eris.Wrapf(err, "load player %s", playerID)
	}

	if current := p.manager.SessionOf(playerID); current != nil {
		p.logger.Info().
			Str("player_id", playerID).
			Str("match_id", current.MatchID).
			Msg("玩家重新匹配，离开原对局")
		current.Leave(ctx, playerID)
	}

	session, err := p.findOrCreate(ctx)
	if err != nil {
		return nil, err
	}

	if _, err := p.gateway.AddParticipant(ctx, session.MatchID, playerID); err != nil {
		p.logger.Error().Err(err).
			Str("match_id", session.MatchID).
			Str("player_id", playerID).
			Msg("写入参赛记录失败")
	}

	if err := session.admit(ctx, player); err != nil {
		return nil, eris.Wrapf(err, "admit player %s to match %s", playerID, session.MatchID)
	}
	return session, nil
}

// findOrCreate 优先复用持久化层中最早的等待对局
func (p *Pool) findOrCreate(ctx context.Context) (*Session, error) {
	match, err := p.gateway.GetWaitingMatch(ctx)
	switch {
	case err == nil:
		s := p.manager.open(match.ID)
		if s.AcceptsPlayers() {
			return s, nil
		}
		p.logger.Warn().Str("match_id", match.ID).Msg("等待中的对局已开始，新建对局")
	case store.IsNotFound(err):
	default:
		p.logger.Error().Err(err).Msg("查询等待中的对局失败")
	}

	if s := p.manager.waitingSession(); s != nil {
		return s, nil
	}

	created, err := p.gateway.CreateMatch(ctx)
	if err != nil {
		// 持久化不可用时对局仍在内存中进行
		id := uuid.New().String()
		p.logger.Error().Err(err).Str("match_id", id).Msg("创建对局记录失败，使用临时对局")
		return p.manager.open(id), nil
	}
	return p.manager.open(created.ID), nil
}
