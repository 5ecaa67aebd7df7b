package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacl-coder/PixelStorm-Arena/internal/models"
)

func newTestLeaderboard(t *testing.T) (*RedisLeaderboard, *MemoryGateway, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	gw := NewMemoryGateway()
	return NewRedisLeaderboard(client, gw, time.Minute, zerolog.Nop()), gw, mr
}

func seedPlayer(t *testing.T, gw *MemoryGateway, name string, kills int) *models.Player {
	t.Helper()
	ctx := context.Background()
	p, err := gw.CreatePlayer(ctx, models.NewPlayer{Username: name})
	require.NoError(t, err)
	p, err = gw.AddPlayerStats(ctx, p.ID, models.StatsDelta{Kills: kills})
	require.NoError(t, err)
	return p
}

func TestRedisLeaderboardFallsBackWhenEmpty(t *testing.T) {
	lb, gw, _ := newTestLeaderboard(t)
	seedPlayer(t, gw, "alice", 4)

	top, err := lb.Top(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, "alice", top[0].Username)
	assert.Equal(t, 1, top[0].Rank)
}

func TestRedisLeaderboardRefreshAndRecord(t *testing.T) {
	ctx := context.Background()
	lb, gw, mr := newTestLeaderboard(t)
	alice := seedPlayer(t, gw, "alice", 4)
	seedPlayer(t, gw, "bob", 7)

	require.NoError(t, lb.Refresh(ctx))
	assert.True(t, mr.Exists(LeaderboardKillsKey))

	top, err := lb.Top(ctx, 10)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "bob", top[0].Username)

	alice, err = gw.AddPlayerStats(ctx, alice.ID, models.StatsDelta{Kills: 5})
	require.NoError(t, err)
	require.NoError(t, lb.Record(ctx, alice))

	top, err = lb.Top(ctx, 1)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, "alice", top[0].Username)
	assert.Equal(t, 9, top[0].TotalKills)
}

func TestRedisLeaderboardRefillsExpiredPlayerInfo(t *testing.T) {
	ctx := context.Background()
	lb, gw, mr := newTestLeaderboard(t)
	p := seedPlayer(t, gw, "carol", 2)
	require.NoError(t, lb.Refresh(ctx))

	mr.FastForward(2 * time.Minute)
	assert.False(t, mr.Exists(playerInfoKey(p.ID)))

	top, err := lb.Top(ctx, 5)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, "carol", top[0].Username)
	assert.True(t, mr.Exists(playerInfoKey(p.ID)))
}

func TestRedisLeaderboardRefreshReplacesBoard(t *testing.T) {
	ctx := context.Background()
	lb, gw, mr := newTestLeaderboard(t)
	alice := seedPlayer(t, gw, "alice", 4)

	// 库中已不存在的旧成员在重建后消失
	_, err := mr.ZAdd(LeaderboardKillsKey, 50, "ghost")
	require.NoError(t, err)

	require.NoError(t, lb.Refresh(ctx))
	assert.False(t, mr.Exists(leaderboardRebuildKey))

	members, err := mr.ZMembers(LeaderboardKillsKey)
	require.NoError(t, err)
	assert.Equal(t, []string{alice.ID}, members)
	score, err := mr.ZScore(LeaderboardKillsKey, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 4.0, score)
	assert.True(t, mr.Exists(playerInfoKey(alice.ID)))
}

func TestRedisLeaderboardRefreshEmpty(t *testing.T) {
	ctx := context.Background()
	lb, _, mr := newTestLeaderboard(t)
	_, err := mr.ZAdd(LeaderboardKillsKey, 3, "ghost")
	require.NoError(t, err)

	require.NoError(t, lb.Refresh(ctx))
	assert.False(t, mr.Exists(LeaderboardKillsKey))
}
