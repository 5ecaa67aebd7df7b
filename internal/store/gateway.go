// Package store 持久化网关：玩家、对局与参赛记录的读写。
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/jacl-coder/PixelStorm-Arena/internal/models"
)

// ErrNotFound 记录不存在
var ErrNotFound = eris.New("record not found")

// IsNotFound 判断错误是否为记录不存在
func IsNotFound(err error) bool {
	return eris.Is(err, ErrNotFound)
}

// Gateway 持久化网关。所有调用都可能失败，调用方负责记录并容忍失败。
type Gateway interface {
	GetPlayer(ctx context.Context, id string) (*models.Player, error)
	GetPlayerByUsername(ctx context.Context, username string) (*models.Player, error)
	CreatePlayer(ctx context.Context, data models.NewPlayer) (*models.Player, error)
	UpdatePlayer(ctx context.Context, id string, update models.PlayerUpdate) (*models.Player, error)
	// AddPlayerStats 原子累加玩家累计数据并重新计算等级
	AddPlayerStats(ctx context.Context, id string, delta models.StatsDelta) (*models.Player, error)
	// GetLeaderboard 按总击杀降序返回前 limit 名玩家
	GetLeaderboard(ctx context.Context, limit int) ([]models.Player, error)

	CreateMatch(ctx context.Context) (*models.Match, error)
	GetMatch(ctx context.Context, id string) (*models.Match, error)
	UpdateMatch(ctx context.Context, id string, update models.MatchUpdate) (*models.Match, error)
	// GetWaitingMatch 返回最早创建的等待中对局，没有时返回 ErrNotFound
	GetWaitingMatch(ctx context.Context) (*models.Match, error)

	// AddParticipant 对 (matchID, playerID) 幂等
	AddParticipant(ctx context.Context, matchID, playerID string) (*models.MatchParticipant, error)
	GetParticipant(ctx context.Context, matchID, playerID string) (*models.MatchParticipant, error)
	GetParticipants(ctx context.Context, matchID string) ([]models.MatchParticipant, error)
	UpdateParticipant(ctx context.Context, matchID, playerID string, result models.ParticipantResult) error
}
