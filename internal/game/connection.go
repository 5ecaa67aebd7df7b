package game

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// sendBufferSize 每个连接的出站缓冲
const sendBufferSize = 256

// PlayerConnection 玩家连接。出站消息先进入 send 缓冲，由写协程发出。
type PlayerConnection struct {
	ID string

	// lastActive 最近一次收到客户端消息的时间（UnixNano）
	lastActive atomic.Int64

	// authSubject 握手令牌中的玩家ID，为空表示未启用令牌校验
	authSubject string

	// playerID 通过 join_matchmaking 绑定，仅由读协程访问
	playerID string

	send   chan []byte
	mu     sync.Mutex
	closed bool
}

// NewPlayerConnection 创建玩家连接
func NewPlayerConnection() *PlayerConnection {
	c := &PlayerConnection{
		ID:   uuid.New().String(),
		send: make(chan []byte, sendBufferSize),
	}
	c.touch(time.Now())
	return c
}

func (c *PlayerConnection) touch(now time.Time) {
	c.lastActive.Store(now.UnixNano())
}

// LastActive 最近一次收到客户端消息的时间
func (c *PlayerConnection) LastActive() time.Time {
	return time.Unix(0, c.lastActive.Load())
}

// PlayerID 当前绑定的玩家ID
func (c *PlayerConnection) PlayerID() string {
	return c.playerID
}

// enqueue 非阻塞写入出站缓冲，连接已关闭或缓冲已满时返回 false
func (c *PlayerConnection) enqueue(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}

	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// Close 关闭出站缓冲，写协程随后发送关闭帧并退出
func (c *PlayerConnection) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// IsOpen 连接是否仍可投递
func (c *PlayerConnection) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed
}
