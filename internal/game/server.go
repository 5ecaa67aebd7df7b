package game

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/jacl-coder/PixelStorm-Arena/config"
	"github.com/jacl-coder/PixelStorm-Arena/internal/auth"
	"github.com/jacl-coder/PixelStorm-Arena/internal/store"
)

// Routes 挂载到游戏服务器上的附加HTTP接口
type Routes interface {
	RegisterHandlers(mux *http.ServeMux)
}

// GameServer 游戏服务器
type GameServer struct {
	config     *config.Config
	logger     zerolog.Logger
	registry   *Registry
	manager    *Manager
	pool       *Pool
	dispatcher *Dispatcher
	verifier   *auth.Verifier
	upgrader   websocket.Upgrader
	routes     []Routes
	httpServer *http.Server

	connMutex   sync.Mutex
	connections map[*PlayerConnection]*websocket.Conn
}

// NewGameServer 创建新的游戏服务器
func NewGameServer(cfg *config.Config, gateway store.Gateway, logger zerolog.Logger, opts ...Option) *GameServer {
	logger = logger.With().Str("component", "game_server").Logger()
	registry := NewRegistry(logger)
	manager := NewManager(gateway, registry, append([]Option{WithLogger(logger)}, opts...)...)
	pool := NewPool(manager)

	return &GameServer{
		config:      cfg,
		logger:      logger,
		registry:    registry,
		manager:     manager,
		pool:        pool,
		dispatcher:  NewDispatcher(manager, pool, registry, logger),
		verifier:    auth.NewVerifier(cfg.Server.JWTSecret),
		upgrader:    newUpgrader(cfg.Server.AllowedOrigins),
		connections: make(map[*PlayerConnection]*websocket.Conn),
	}
}

// Manager 对局管理器
func (s *GameServer) Manager() *Manager {
	return s.manager
}

// Registry 连接注册表
func (s *GameServer) Registry() *Registry {
	return s.registry
}

// Mount 挂载附加接口，需在 Start 之前调用
func (s *GameServer) Mount(routes Routes) {
	s.routes = append(s.routes, routes)
}

// Handler 创建HTTP处理器
func (s *GameServer) Handler() http.Handler {
	mux := http.NewServeMux()

	// WebSocket 连接端点
	mux.HandleFunc("/ws", s.handleWSConnection)

	// 健康检查端点
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	for _, routes := range s.routes {
		routes.RegisterHandlers(mux)
	}
	return mux
}

// Start 启动游戏服务器，阻塞直到服务器关闭
func (s *GameServer) Start() error {
	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.config.Server.GamePort),
		Handler: s.Handler(),
	}

	s.logger.Info().Int("port", s.config.Server.GamePort).Msg("游戏服务器启动")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP服务器错误: %w", err)
	}
	return nil
}

// Stop 停止游戏服务器：关闭监听、断开所有连接并停止对局计时器
func (s *GameServer) Stop(ctx context.Context) error {
	var err error
	if s.httpServer != nil {
		if shutdownErr := s.httpServer.Shutdown(ctx); shutdownErr != nil {
			err = fmt.Errorf("HTTP服务器关闭错误: %w", shutdownErr)
		}
	}

	s.connMutex.Lock()
	for playerConn, conn := range s.connections {
		playerConn.Close()
		conn.Close()
	}
	s.connMutex.Unlock()

	s.manager.Close()
	s.logger.Info().Msg("游戏服务器已停止")
	return err
}

func (s *GameServer) track(playerConn *PlayerConnection, conn *websocket.Conn) {
	s.connMutex.Lock()
	defer s.connMutex.Unlock()
	s.connections[playerConn] = conn
}

func (s *GameServer) untrack(playerConn *PlayerConnection) {
	s.connMutex.Lock()
	defer s.connMutex.Unlock()
	delete(s.connections, playerConn)
}
