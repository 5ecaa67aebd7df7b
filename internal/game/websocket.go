// websocket.go

package game

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// 写入超时时间
	writeWait = 10 * time.Second

	// 读取超时时间
	pongWait = 60 * time.Second

	// 发送 ping 的间隔时间
	pingPeriod = (pongWait * 9) / 10

	// 最大消息大小
	maxMessageSize = 512 * 1024 // 512KB
)

// newUpgrader 创建升级器，allowedOrigins 为空或包含 "*" 时允许所有来源
func newUpgrader(allowedOrigins []string) websocket.Upgrader {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	allowAll := len(allowedOrigins) == 0
	for _, origin := range allowedOrigins {
		if origin == "*" {
			allowAll = true
		}
		allowed[origin] = struct{}{}
	}

	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if allowAll {
				return true
			}
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			_, ok := allowed[origin]
			return ok
		},
	}
}

// handleWSConnection 处理WebSocket连接
func (s *GameServer) handleWSConnection(w http.ResponseWriter, r *http.Request) {
	playerConn := NewPlayerConnection()

	if s.verifier.Enabled() {
		subject, err := s.verifier.Subject(r.URL.Query().Get("token"))
		if err != nil {
			s.logger.Warn().Err(err).Str("remote_addr", r.RemoteAddr).Msg("握手令牌无效")
			http.Error(w, "未授权", http.StatusUnauthorized)
			return
		}
		playerConn.authSubject = subject
	}

	// 升级HTTP连接为WebSocket
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn().Err(err).Msg("WebSocket升级失败")
		return
	}

	s.track(playerConn, conn)
	s.logger.Debug().Str("conn_id", playerConn.ID).Str("remote_addr", r.RemoteAddr).Msg("新连接")

	// 启动读写协程
	go s.writePump(conn, playerConn)
	go s.readPump(conn, playerConn)
}

// readPump 从WebSocket读取数据，每条连接的入站消息按到达顺序串行处理
func (s *GameServer) readPump(conn *websocket.Conn, player *PlayerConnection) {
	defer func() {
		s.dispatcher.Disconnect(context.Background(), player)
		s.untrack(player)
		conn.Close()
	}()

	// 设置读取参数
	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.logger.Warn().Err(err).Str("conn_id", player.ID).Msg("WebSocket错误")
			}
			break
		}

		player.touch(time.Now())
		s.dispatcher.Handle(context.Background(), player, message)
	}
}

// writePump 向WebSocket写入数据，每条消息一个文本帧
func (s *GameServer) writePump(conn *websocket.Conn, player *PlayerConnection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case message, ok := <-player.send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// 通道已关闭
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
