// service.go

package match

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"github.com/jacl-coder/PixelStorm-Arena/internal/game"
	"github.com/jacl-coder/PixelStorm-Arena/internal/models"
	"github.com/jacl-coder/PixelStorm-Arena/internal/store"
)

// IdleAfter 连接超过该时长未发消息即计为空闲
const IdleAfter = 30 * time.Second

// Status 对局概况
type Status struct {
	ActiveSessions int                        `json:"activeSessions"`
	OnlinePlayers  int                        `json:"onlinePlayers"`
	IdlePlayers    int                        `json:"idlePlayers"`
	ByStatus       map[models.MatchStatus]int `json:"byStatus"`
}

// Detail 单局详情：持久化记录与仍在内存中的实时状态
type Detail struct {
	Match        *models.Match             `json:"match"`
	Participants []models.MatchParticipant `json:"participants"`
	Live         *game.SessionInfo         `json:"live"`
}

// MatchService 只读对局查询服务
type MatchService struct {
	manager  *game.Manager
	registry *game.Registry
	gateway  store.Gateway
	logger   zerolog.Logger
	now      func() time.Time
}

// NewMatchService 创建对局查询服务
func NewMatchService(manager *game.Manager, registry *game.Registry, gateway store.Gateway, logger zerolog.Logger) *MatchService {
	return &MatchService{
		manager:  manager,
		registry: registry,
		gateway:  gateway,
		logger:   logger.With().Str("component", "match_service").Logger(),
		now:      time.Now,
	}
}

// Status 统计进行中的对局
func (s *MatchService) Status() Status {
	status := Status{
		OnlinePlayers: s.registry.Count(),
		IdlePlayers:   s.registry.Idle(IdleAfter, s.now()),
		ByStatus: map[models.MatchStatus]int{
			models.MatchWaiting:   0,
			models.MatchCountdown: 0,
			models.MatchPlaying:   0,
			models.MatchEnded:     0,
		},
	}
	for _, session := range s.manager.Sessions() {
		status.ActiveSessions++
		status.ByStatus[session.Status()]++
	}
	return status
}

// Detail 查询单局详情。持久化层查不到但对局仍在内存中时只返回实时状态。
func (s *MatchService) Detail(ctx context.Context, matchID string) (*Detail, error) {
	detail := &Detail{Participants: []models.MatchParticipant{}}

	if session := s.manager.Session(matchID); session != nil {
		info := session.Info()
		detail.Live = &info
	}

	match, err := s.gateway.GetMatch(ctx, matchID)
	switch {
	case err == nil:
		detail.Match = match
	case store.IsNotFound(err) && detail.Live != nil:
		return detail, nil
	default:
		return nil, eris.Wrapf(err, "get match %s", matchID)
	}

	participants, err := s.gateway.GetParticipants(ctx, matchID)
	if err != nil {
		s.logger.Error().Err(err).Str("match_id", matchID).Msg("查询参赛记录失败")
		return detail, nil
	}
	detail.Participants = participants
	return detail, nil
}
