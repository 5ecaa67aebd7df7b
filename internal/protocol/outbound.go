package protocol

// NewMatchJoined 构造 match_joined
func NewMatchJoined(matchID, status string, players []PlayerSnapshot) *MatchJoined {
	return &MatchJoined{Type: TypeMatchJoined, MatchID: matchID, Status: status, Players: players}
}

// NewPlayerJoined 构造 player_joined
func NewPlayerJoined(player PlayerSnapshot, count int) *PlayerJoined {
	return &PlayerJoined{Type: TypePlayerJoined, Player: player, PlayerCount: count}
}

// NewPlayerLeft 构造 player_left
func NewPlayerLeft(playerID string, count int) *PlayerLeft {
	return &PlayerLeft{Type: TypePlayerLeft, PlayerID: playerID, PlayerCount: count}
}

// NewCountdownStart 构造 countdown_start
func NewCountdownStart(seconds int) *CountdownStart {
	return &CountdownStart{Type: TypeCountdownStart, Seconds: seconds}
}

// NewMatchStart 构造 match_start
func NewMatchStart(timeRemaining int) *MatchStart {
	return &MatchStart{Type: TypeMatchStart, TimeRemaining: timeRemaining}
}

// NewPlayerMoved 构造 player_moved
func NewPlayerMoved(playerID string, move PlayerMove) *PlayerMoved {
	return &PlayerMoved{
		Type:     TypePlayerMoved,
		PlayerID: playerID,
		X:        move.X,
		Y:        move.Y,
		Z:        move.Z,
		Rotation: move.Rotation,
	}
}

// NewPlayerHit 构造 player_hit
func NewPlayerHit(targetID, shooterID string, damage, health int) *PlayerHit {
	return &PlayerHit{Type: TypePlayerHit, TargetID: targetID, ShooterID: shooterID, Damage: damage, Health: health}
}

// NewPlayerKilled 构造 player_killed
func NewPlayerKilled(targetID, killerID string, killerKills int, respawn Vector3) *PlayerKilled {
	return &PlayerKilled{
		Type:            TypePlayerKilled,
		TargetID:        targetID,
		KillerID:        killerID,
		KillerKills:     killerKills,
		RespawnPosition: respawn,
	}
}

// NewTimeUpdate 构造 time_update
func NewTimeUpdate(timeRemaining int) *TimeUpdate {
	return &TimeUpdate{Type: TypeTimeUpdate, TimeRemaining: timeRemaining}
}

// NewMatchEnded 构造 match_ended
func NewMatchEnded(winnerID *string, results []PlayerResult) *MatchEnded {
	if results == nil {
		results = []PlayerResult{}
	}
	return &MatchEnded{Type: TypeMatchEnded, WinnerID: winnerID, Results: results}
}
