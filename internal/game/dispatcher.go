package game

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/jacl-coder/PixelStorm-Arena/internal/protocol"
)

// Dispatcher 将连接上的入站消息路由到匹配池或对应对局
type Dispatcher struct {
	manager  *Manager
	pool     *Pool
	registry *Registry
	logger   zerolog.Logger
}

// NewDispatcher 创建消息分发器
func NewDispatcher(manager *Manager, pool *Pool, registry *Registry, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		manager:  manager,
		pool:     pool,
		registry: registry,
		logger:   logger.With().Str("component", "dispatcher").Logger(),
	}
}

// Handle 处理一条入站消息。协议错误只记录，连接保持打开。
func (d *Dispatcher) Handle(ctx context.Context, conn *PlayerConnection, data []byte) {
	msg, err := protocol.DecodeInbound(data)
	if err != nil {
		event := d.logger.Warn()
		if errors.Is(err, protocol.ErrUnknownType) {
			event = d.logger.Debug()
		}
		event.Err(err).Str("conn_id", conn.ID).Msg("丢弃无法解析的消息")
		return
	}

	switch m := msg.(type) {
	case protocol.JoinMatchmaking:
		d.join(ctx, conn, m.PlayerID)
	case protocol.PlayerMove:
		if s := d.sessionOf(conn); s != nil {
			s.Move(conn.playerID, m)
		}
	case protocol.PlayerShoot:
		if s := d.sessionOf(conn); s != nil {
			s.Shoot(conn.playerID, m.TargetID)
		}
	case protocol.LeaveMatch:
		d.leave(ctx, conn)
	}
}

// sessionOf 连接已绑定玩家且玩家仍在对局中时返回对局
func (d *Dispatcher) sessionOf(conn *PlayerConnection) *Session {
	if conn.playerID == "" {
		return nil
	}
	return d.manager.SessionOf(conn.playerID)
}

func (d *Dispatcher) join(ctx context.Context, conn *PlayerConnection, playerID string) {
	logger := d.logger.With().Str("conn_id", conn.ID).Str("player_id", playerID).Logger()

	if conn.authSubject != "" && conn.authSubject != playerID {
		logger.Warn().Str("token_subject", conn.authSubject).Msg("玩家ID与握手令牌不一致")
		return
	}

	if conn.playerID != "" && conn.playerID != playerID {
		d.release(ctx, conn)
	}
	conn.playerID = playerID
	if previous := d.registry.Register(playerID, conn); previous != nil {
		logger.Info().Str("previous_conn_id", previous.ID).Msg("玩家连接被替换")
		previous.Close()
	}

	s, err := d.pool.Admit(ctx, playerID)
	if err != nil {
		logger.Error().Err(err).Msg("匹配失败")
		return
	}
	logger.Debug().Str("match_id", s.MatchID).Msg("匹配成功")
}

// leave 显式离开对局，同时解除注册但不关闭连接
func (d *Dispatcher) leave(ctx context.Context, conn *PlayerConnection) {
	if conn.playerID == "" {
		return
	}
	if s := d.manager.SessionOf(conn.playerID); s != nil {
		s.Leave(ctx, conn.playerID)
	}
	d.registry.Unregister(conn.playerID, conn)
}

// release 连接不再代表原玩家：离开对局并解除注册
func (d *Dispatcher) release(ctx context.Context, conn *PlayerConnection) {
	if !d.registry.Unregister(conn.playerID, conn) {
		// 玩家已由其他连接接管
		return
	}
	if s := d.manager.SessionOf(conn.playerID); s != nil {
		s.Leave(ctx, conn.playerID)
	}
}

// Disconnect 连接断开
func (d *Dispatcher) Disconnect(ctx context.Context, conn *PlayerConnection) {
	if conn.playerID != "" {
		d.logger.Info().Str("conn_id", conn.ID).Str("player_id", conn.playerID).Msg("玩家断开连接")
		d.release(ctx, conn)
	}
	conn.Close()
}
