package store

import (
	"context"

	"github.com/jacl-coder/PixelStorm-Arena/internal/models"
)

// Leaderboard 排行榜读取与增量更新
type Leaderboard interface {
	Top(ctx context.Context, limit int) ([]models.LeaderboardEntry, error)
	// Record 玩家累计数据变化后调用
	Record(ctx context.Context, player *models.Player) error
	// Refresh 从持久化网关重建排行榜
	Refresh(ctx context.Context) error
}

// GatewayLeaderboard 直接读取持久化网关的排行榜
type GatewayLeaderboard struct {
	gateway Gateway
}

// NewGatewayLeaderboard 创建直读排行榜
func NewGatewayLeaderboard(gateway Gateway) *GatewayLeaderboard {
	return &GatewayLeaderboard{gateway: gateway}
}

// Top 获取排行榜
func (l *GatewayLeaderboard) Top(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	players, err := l.gateway.GetLeaderboard(ctx, limit)
	if err != nil {
		return nil, err
	}
	return toEntries(players), nil
}

// Record 直读模式无需处理
func (l *GatewayLeaderboard) Record(context.Context, *models.Player) error { return nil }

// Refresh 直读模式无需处理
func (l *GatewayLeaderboard) Refresh(context.Context) error { return nil }

func toEntries(players []models.Player) []models.LeaderboardEntry {
	entries := make([]models.LeaderboardEntry, 0, len(players))
	for i := range players {
		entries = append(entries, players[i].ToLeaderboardEntry(i+1))
	}
	return entries
}
