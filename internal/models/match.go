package models

import (
	"time"
)

// MatchStatus 对局状态
type MatchStatus string

const (
	// MatchWaiting 等待玩家
	MatchWaiting MatchStatus = "waiting"
	// MatchCountdown 倒计时
	MatchCountdown MatchStatus = "countdown"
	// MatchPlaying 游戏中
	MatchPlaying MatchStatus = "playing"
	// MatchEnded 已结束
	MatchEnded MatchStatus = "ended"
)

// next 返回状态机中唯一合法的后继状态
func (s MatchStatus) next() (MatchStatus, bool) {
	switch s {
	case MatchWaiting:
		return MatchCountdown, true
	case MatchCountdown:
		return MatchPlaying, true
	case MatchPlaying:
		return MatchEnded, true
	default:
		return "", false
	}
}

// CanTransition 判断 s -> to 是否为合法状态迁移
func (s MatchStatus) CanTransition(to MatchStatus) bool {
	n, ok := s.next()
	return ok && n == to
}

// Valid 是否为已知状态
func (s MatchStatus) Valid() bool {
	switch s {
	case MatchWaiting, MatchCountdown, MatchPlaying, MatchEnded:
		return true
	}
	return false
}

// Match 对局记录
type Match struct {
	ID        string      `json:"id"`
	Status    MatchStatus `json:"status"`
	WinnerID  *string     `json:"winnerId"`
	StartedAt *time.Time  `json:"startedAt"`
	EndedAt   *time.Time  `json:"endedAt"`
	CreatedAt time.Time   `json:"createdAt"`
}

// MatchUpdate 对局部分字段更新
type MatchUpdate struct {
	Status    *MatchStatus
	WinnerID  *string
	StartedAt *time.Time
	EndedAt   *time.Time
}

// MatchParticipant 玩家对局记录
type MatchParticipant struct {
	ID       string    `json:"id"`
	MatchID  string    `json:"matchId"`
	PlayerID string    `json:"playerId"`
	Kills    int       `json:"kills"`
	Deaths   int       `json:"deaths"`
	Score    int       `json:"score"`
	IsReady  bool      `json:"isReady"`
	JoinedAt time.Time `json:"joinedAt"`
}

// ParticipantResult 单局结算数据
type ParticipantResult struct {
	Kills  int
	Deaths int
	Score  int
}
