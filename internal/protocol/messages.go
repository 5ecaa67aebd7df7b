// Package protocol 客户端与游戏服务器之间的 JSON 消息定义。
// 每条消息都是扁平的 JSON 对象，以 "type" 字段区分类型。
package protocol

// Type 消息类型
type Type string

// 客户端 -> 服务器
const (
	TypeJoinMatchmaking Type = "join_matchmaking"
	TypePlayerMove      Type = "player_move"
	TypePlayerShoot     Type = "player_shoot"
	TypeLeaveMatch      Type = "leave_match"
)

// 服务器 -> 客户端
const (
	TypeMatchJoined    Type = "match_joined"
	TypePlayerJoined   Type = "player_joined"
	TypePlayerLeft     Type = "player_left"
	TypeCountdownStart Type = "countdown_start"
	TypeMatchStart     Type = "match_start"
	TypePlayerMoved    Type = "player_moved"
	TypePlayerHit      Type = "player_hit"
	TypePlayerKilled   Type = "player_killed"
	TypeTimeUpdate     Type = "time_update"
	TypeMatchEnded     Type = "match_ended"
)

// Vector3 三维坐标
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Inbound 客户端消息
type Inbound interface {
	MessageType() Type
}

// JoinMatchmaking 加入匹配
type JoinMatchmaking struct {
	PlayerID string `json:"playerId"`
}

// PlayerMove 玩家移动
type PlayerMove struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Z        float64 `json:"z"`
	Rotation float64 `json:"rotation"`
}

// PlayerShoot 玩家射击
type PlayerShoot struct {
	TargetID string `json:"targetId"`
}

// LeaveMatch 离开对局
type LeaveMatch struct{}

func (JoinMatchmaking) MessageType() Type { return TypeJoinMatchmaking }
func (PlayerMove) MessageType() Type      { return TypePlayerMove }
func (PlayerShoot) MessageType() Type     { return TypePlayerShoot }
func (LeaveMatch) MessageType() Type      { return TypeLeaveMatch }

// Outbound 服务器消息
type Outbound interface {
	MessageType() Type
}

// PlayerSnapshot 对局内玩家状态快照
type PlayerSnapshot struct {
	ID       string  `json:"id"`
	Username string  `json:"username"`
	AvatarID int     `json:"avatarId"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Z        float64 `json:"z"`
	Rotation float64 `json:"rotation"`
	Health   int     `json:"health"`
	Kills    int     `json:"kills"`
	Deaths   int     `json:"deaths"`
}

// PlayerResult 对局结算条目
type PlayerResult struct {
	PlayerID string `json:"playerId"`
	Username string `json:"username"`
	Kills    int    `json:"kills"`
	Deaths   int    `json:"deaths"`
	Score    int    `json:"score"`
}

// MatchJoined 发给加入者的对局快照
type MatchJoined struct {
	Type    Type             `json:"type"`
	MatchID string           `json:"matchId"`
	Players []PlayerSnapshot `json:"players"`
	Status  string           `json:"status"`
}

// PlayerJoined 新玩家加入
type PlayerJoined struct {
	Type        Type           `json:"type"`
	Player      PlayerSnapshot `json:"player"`
	PlayerCount int            `json:"playerCount"`
}

// PlayerLeft 玩家离开
type PlayerLeft struct {
	Type        Type   `json:"type"`
	PlayerID    string `json:"playerId"`
	PlayerCount int    `json:"playerCount"`
}

// CountdownStart 开局倒计时
type CountdownStart struct {
	Type    Type `json:"type"`
	Seconds int  `json:"seconds"`
}

// MatchStart 对局开始
type MatchStart struct {
	Type          Type `json:"type"`
	TimeRemaining int  `json:"timeRemaining"`
}

// PlayerMoved 玩家位置更新
type PlayerMoved struct {
	Type     Type    `json:"type"`
	PlayerID string  `json:"playerId"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Z        float64 `json:"z"`
	Rotation float64 `json:"rotation"`
}

// PlayerHit 玩家被击中
type PlayerHit struct {
	Type      Type   `json:"type"`
	TargetID  string `json:"targetId"`
	ShooterID string `json:"shooterId"`
	Damage    int    `json:"damage"`
	Health    int    `json:"health"`
}

// PlayerKilled 玩家被击杀
type PlayerKilled struct {
	Type            Type    `json:"type"`
	TargetID        string  `json:"targetId"`
	KillerID        string  `json:"killerId"`
	KillerKills     int     `json:"killerKills"`
	RespawnPosition Vector3 `json:"respawnPosition"`
}

// TimeUpdate 剩余时间
type TimeUpdate struct {
	Type          Type `json:"type"`
	TimeRemaining int  `json:"timeRemaining"`
}

// MatchEnded 对局结束
type MatchEnded struct {
	Type     Type           `json:"type"`
	WinnerID *string        `json:"winnerId"`
	Results  []PlayerResult `json:"results"`
}

func (MatchJoined) MessageType() Type    { return TypeMatchJoined }
func (PlayerJoined) MessageType() Type   { return TypePlayerJoined }
func (PlayerLeft) MessageType() Type     { return TypePlayerLeft }
func (CountdownStart) MessageType() Type { return TypeCountdownStart }
func (MatchStart) MessageType() Type     { return TypeMatchStart }
func (PlayerMoved) MessageType() Type    { return TypePlayerMoved }
func (PlayerHit) MessageType() Type      { return TypePlayerHit }
func (PlayerKilled) MessageType() Type   { return TypePlayerKilled }
func (TimeUpdate) MessageType() Type     { return TypeTimeUpdate }
func (MatchEnded) MessageType() Type     { return TypeMatchEnded }
