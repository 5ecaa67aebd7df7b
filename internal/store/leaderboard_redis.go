package store

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/goccy/go-json"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"github.com/jacl-coder/PixelStorm-Arena/internal/models"
)

// 排行榜Redis键名
const (
	LeaderboardKillsKey = "arena:leaderboard:kills"

	// leaderboardRebuildKey 重建排行榜时使用的临时键
	leaderboardRebuildKey = LeaderboardKillsKey + ":rebuild"

	// 玩家详细信息键前缀
	PlayerInfoPrefix = "arena:player:info:"

	// refreshLimit 重建排行榜时加载的玩家数量
	refreshLimit = 1000
)

// RedisLeaderboard Redis排行榜，未命中或出错时回退到持久化网关
type RedisLeaderboard struct {
	client   *redis.Client
	fallback Gateway
	ttl      time.Duration
	logger   zerolog.Logger
}

// NewRedisLeaderboard 创建Redis排行榜
func NewRedisLeaderboard(client *redis.Client, fallback Gateway, ttl time.Duration, logger zerolog.Logger) *RedisLeaderboard {
	return &RedisLeaderboard{
		client:   client,
		fallback: fallback,
		ttl:      ttl,
		logger:   logger.With().Str("component", "leaderboard").Logger(),
	}
}

func playerInfoKey(playerID string) string {
	return fmt.Sprintf("%s%s", PlayerInfoPrefix, playerID)
}

// Record 更新玩家分数与缓存信息
func (rl *RedisLeaderboard) Record(ctx context.Context, player *models.Player) error {
	data, err := json.Marshal(player.ToLeaderboardEntry(0))
	if err != nil {
		return eris.Wrap(err, "序列化排行榜条目失败")
	}

	pipe := rl.client.TxPipeline()
	pipe.ZAdd(ctx, LeaderboardKillsKey, &redis.Z{
		Score:  float64(player.TotalKills),
		Member: player.ID,
	})
	pipe.Set(ctx, playerInfoKey(player.ID), data, rl.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return eris.Wrapf(err, "写入排行榜失败: %s", player.ID)
	}
	return nil
}

// Top 获取排行榜
func (rl *RedisLeaderboard) Top(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	members, err := rl.client.ZRevRangeWithScores(ctx, LeaderboardKillsKey, 0, int64(limit-1)).Result()
	if err != nil {
		rl.logger.Warn().Err(err).Msg("读取Redis排行榜失败，回退到数据库")
		return rl.fromGateway(ctx, limit)
	}
	if len(members) == 0 {
		return rl.fromGateway(ctx, limit)
	}

	entries := make([]models.LeaderboardEntry, 0, len(members))
	for i, member := range members {
		playerID, ok := member.Member.(string)
		if !ok {
			continue
		}

		entry, err := rl.playerInfo(ctx, playerID)
		if err != nil {
			// 缓存过期时从数据库补齐
			player, gerr := rl.fallback.GetPlayer(ctx, playerID)
			if gerr != nil {
				continue
			}
			if rerr := rl.Record(ctx, player); rerr != nil {
				rl.logger.Warn().Err(rerr).Str("player_id", playerID).Msg("回填排行榜缓存失败")
			}
			e := player.ToLeaderboardEntry(0)
			entry = &e
		}

		entry.TotalKills = int(member.Score)
		entry.Rank = i + 1
		entries = append(entries, *entry)
	}

	return entries, nil
}

// Refresh 从数据库重建排行榜。新数据写入临时键后整体替换，读取方不会看到半成品。
func (rl *RedisLeaderboard) Refresh(ctx context.Context) error {
	players, err := rl.fallback.GetLeaderboard(ctx, refreshLimit)
	if err != nil {
		return eris.Wrap(err, "加载排行榜数据失败")
	}

	pipe := rl.client.TxPipeline()
	if len(players) == 0 {
		pipe.Del(ctx, LeaderboardKillsKey)
	} else {
		members := make([]*redis.Z, 0, len(players))
		for i := range players {
			player := &players[i]
			data, err := json.Marshal(player.ToLeaderboardEntry(0))
			if err != nil {
				return eris.Wrap(err, "序列化排行榜条目失败")
			}
			members = append(members, &redis.Z{Score: float64(player.TotalKills), Member: player.ID})
			pipe.Set(ctx, playerInfoKey(player.ID), data, rl.ttl)
		}
		pipe.Del(ctx, leaderboardRebuildKey)
		pipe.ZAdd(ctx, leaderboardRebuildKey, members...)
		pipe.Rename(ctx, leaderboardRebuildKey, LeaderboardKillsKey)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return eris.Wrap(err, "重建排行榜失败")
	}

	rl.logger.Debug().Int("players", len(players)).Msg("排行榜已刷新")
	return nil
}

func (rl *RedisLeaderboard) fromGateway(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	players, err := rl.fallback.GetLeaderboard(ctx, limit)
	if err != nil {
		return nil, err
	}
	return toEntries(players), nil
}

// playerInfo 从Redis获取玩家信息
func (rl *RedisLeaderboard) playerInfo(ctx context.Context, playerID string) (*models.LeaderboardEntry, error) {
	data, err := rl.client.Get(ctx, playerInfoKey(playerID)).Bytes()
	if err != nil {
		return nil, err
	}

	var entry models.LeaderboardEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}
