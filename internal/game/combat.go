package game

import (
	"github.com/jacl-coder/PixelStorm-Arena/internal/protocol"
)

// 伤害常量
const (
	// DamageMin 单次最低伤害
	DamageMin = 25
	// DamageMax 单次最高伤害
	DamageMax = 39
)

// shotResult 射击结算结果
type shotResult struct {
	damage int
	// health 扣血后、重生前的生命值
	health  int
	killed  bool
	respawn protocol.Vector3
}

// rollDamage 在 [DamageMin, DamageMax] 内均匀取值
func rollDamage(intn func(int) int) int {
	return DamageMin + intn(DamageMax-DamageMin+1)
}

// resolveShot 命中必中，不做距离与视线判定。
// 生命值降到0及以下时记一次击杀，目标满血并随机重生。
func resolveShot(shooter, target *Participant, intn func(int) int) shotResult {
	result := shotResult{damage: rollDamage(intn)}

	target.Health -= result.damage
	result.health = target.Health
	if target.Health > 0 {
		return result
	}

	shooter.Kills++
	target.Deaths++
	target.Health = MaxHealth
	target.Position = SpawnPoints[intn(len(SpawnPoints))]

	result.killed = true
	result.respawn = target.Position
	return result
}
