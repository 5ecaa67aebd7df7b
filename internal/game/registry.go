package game

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jacl-coder/PixelStorm-Arena/internal/protocol"
)

// Outbox 出站投递。投递是尽力而为的，失败只返回 false。
type Outbox interface {
	SendRaw(playerID string, data []byte) bool
}

// Registry 玩家ID到连接的映射，只用于出站投递，不代表对局成员关系
type Registry struct {
	mu     sync.RWMutex
	conns  map[string]*PlayerConnection
	logger zerolog.Logger
}

// NewRegistry 创建连接注册表
func NewRegistry(logger zerolog.Logger) *Registry {
	return &Registry{
		conns:  make(map[string]*PlayerConnection),
		logger: logger.With().Str("component", "registry").Logger(),
	}
}

// Register 绑定玩家与连接，返回被替换的旧连接（可能为nil）
func (r *Registry) Register(playerID string, conn *PlayerConnection) *PlayerConnection {
	r.mu.Lock()
	defer r.mu.Unlock()

	previous := r.conns[playerID]
	r.conns[playerID] = conn
	if previous == conn {
		return nil
	}
	return previous
}

// Unregister 解除绑定。conn 非nil时只有当前绑定的正是 conn 才会解除，
// 避免旧连接关闭时误删新连接。
func (r *Registry) Unregister(playerID string, conn *PlayerConnection) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.conns[playerID]
	if !ok {
		return false
	}
	if conn != nil && current != conn {
		return false
	}
	delete(r.conns, playerID)
	return true
}

// Lookup 查询玩家当前连接
func (r *Registry) Lookup(playerID string) (*PlayerConnection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.conns[playerID]
	return conn, ok
}

// Count 当前在线连接数
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// Idle 统计在 now 之前超过 threshold 未发送消息的连接数
func (r *Registry) Idle(threshold time.Duration, now time.Time) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	idle := 0
	for _, conn := range r.conns {
		if now.Sub(conn.LastActive()) > threshold {
			idle++
		}
	}
	return idle
}

// SendRaw 投递已序列化的消息
func (r *Registry) SendRaw(playerID string, data []byte) bool {
	conn, ok := r.Lookup(playerID)
	if !ok {
		r.logger.Debug().Str("player_id", playerID).Msg("玩家未连接，丢弃消息")
		return false
	}
	if !conn.enqueue(data) {
		r.logger.Debug().Str("player_id", playerID).Msg("连接已关闭或缓冲已满，丢弃消息")
		return false
	}
	return true
}

// Send 序列化并投递消息
func (r *Registry) Send(playerID string, msg protocol.Outbound) bool {
	data, err := protocol.Encode(msg)
	if err != nil {
		r.logger.Error().Err(err).Str("type", string(msg.MessageType())).Msg("序列化消息失败")
		return false
	}
	return r.SendRaw(playerID, data)
}
