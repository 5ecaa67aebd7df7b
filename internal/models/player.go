// player.go

package models

import (
	"time"
)

const (
	// ExpPerLevel 每升一级所需经验
	ExpPerLevel = 1000
	// AvatarCount 可选头像数量，头像ID取值 [0, AvatarCount)
	AvatarCount = 4
)

// Player 玩家模型
type Player struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Password  string    `json:"-"` // 不序列化密码
	AvatarID  int       `json:"avatarId"`
	CreatedAt time.Time `json:"createdAt"`

	// 等级和经验
	Level int `json:"level"`
	XP    int `json:"xp"`

	// 战绩统计
	TotalKills    int `json:"totalKills"`
	TotalDeaths   int `json:"totalDeaths"`
	MatchesPlayed int `json:"matchesPlayed"`
	MatchesWon    int `json:"matchesWon"`
}

// NewPlayer 创建玩家所需数据，密码应已完成哈希
type NewPlayer struct {
	Username string
	Password string
	AvatarID int
}

// PlayerUpdate 玩家部分字段更新，nil 表示不修改
type PlayerUpdate struct {
	AvatarID      *int
	Level         *int
	XP            *int
	TotalKills    *int
	TotalDeaths   *int
	MatchesPlayed *int
	MatchesWon    *int
}

// IsEmpty 是否没有任何待更新字段
func (u PlayerUpdate) IsEmpty() bool {
	return u.AvatarID == nil && u.Level == nil && u.XP == nil &&
		u.TotalKills == nil && u.TotalDeaths == nil &&
		u.MatchesPlayed == nil && u.MatchesWon == nil
}

// StatsDelta 玩家累计数据增量，由存储层原子累加
type StatsDelta struct {
	Kills         int
	Deaths        int
	MatchesPlayed int
	MatchesWon    int
	XP            int
}

// LevelForXP 根据总经验计算等级
func LevelForXP(xp int) int {
	if xp < 0 {
		return 1
	}
	return 1 + xp/ExpPerLevel
}

// LeaderboardEntry 排行榜条目
type LeaderboardEntry struct {
	PlayerID      string `json:"playerId"`
	Username      string `json:"username"`
	AvatarID      int    `json:"avatarId"`
	Level         int    `json:"level"`
	TotalKills    int    `json:"totalKills"`
	TotalDeaths   int    `json:"totalDeaths"`
	MatchesPlayed int    `json:"matchesPlayed"`
	MatchesWon    int    `json:"matchesWon"`
	Rank          int    `json:"rank"`
}

// ToLeaderboardEntry 转换为排行榜条目
func (p *Player) ToLeaderboardEntry(rank int) LeaderboardEntry {
	return LeaderboardEntry{
		PlayerID:      p.ID,
		Username:      p.Username,
		AvatarID:      p.AvatarID,
		Level:         p.Level,
		TotalKills:    p.TotalKills,
		TotalDeaths:   p.TotalDeaths,
		MatchesPlayed: p.MatchesPlayed,
		MatchesWon:    p.MatchesWon,
		Rank:          rank,
	}
}
