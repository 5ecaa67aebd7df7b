package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/jacl-coder/PixelStorm-Arena/config"
	"github.com/jacl-coder/PixelStorm-Arena/internal/auth"
	"github.com/jacl-coder/PixelStorm-Arena/internal/store"
)

// leaderboardResponseTTL 排行榜响应缓存时间
const leaderboardResponseTTL = 5 * time.Second

// Gateway REST API：玩家资料与排行榜
type Gateway struct {
	config      *config.Config
	store       store.Gateway
	leaderboard store.Leaderboard
	verifier    *auth.Verifier
	logger      zerolog.Logger
	limiter     *RateLimiter
	httpServer  *http.Server
}

// NewGateway 创建新的网关
func NewGateway(cfg *config.Config, st store.Gateway, lb store.Leaderboard, logger zerolog.Logger) *Gateway {
	return &Gateway{
		config:      cfg,
		store:       st,
		leaderboard: lb,
		verifier:    auth.NewVerifier(cfg.Server.JWTSecret),
		logger:      logger.With().Str("component", "gateway").Logger(),
		limiter:     NewRateLimiter(120, defaultCleanupInterval),
	}
}

// Start 启动网关，阻塞直到关闭
func (g *Gateway) Start() error {
	g.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", g.config.Server.GatewayPort),
		Handler: g.Handler(),
	}

	g.logger.Info().Int("port", g.config.Server.GatewayPort).Msg("API网关启动")
	if err := g.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP服务器错误: %w", err)
	}
	return nil
}

// Stop 停止网关
func (g *Gateway) Stop(ctx context.Context) error {
	g.limiter.Stop()
	if g.httpServer == nil {
		return nil
	}
	if err := g.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("HTTP服务器关闭错误: %w", err)
	}
	g.logger.Info().Msg("API网关已停止")
	return nil
}

// Handler 创建HTTP处理器
func (g *Gateway) Handler() http.Handler {
	mux := http.NewServeMux()

	NewAuthHandler(g.verifier, g.logger).RegisterHandlers(mux)
	NewProfileHandler(g.store, g.verifier, g.logger).RegisterHandlers(mux)
	NewStatsHandler(g.leaderboard, g.logger).RegisterHandlers(mux)

	// 健康检查端点
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return g.applyMiddleware(mux)
}

// applyMiddleware 应用中间件
func (g *Gateway) applyMiddleware(handler http.Handler) http.Handler {
	cache := NewCacheMiddleware(map[string]time.Duration{
		"/api/leaderboard": leaderboardResponseTTL,
	})

	// 按顺序应用中间件（从外到内）
	handler = cache.Middleware(handler)
	handler = g.limiter.Middleware(handler)
	handler = NewCORSMiddleware(g.config.Server.AllowedOrigins).Middleware(handler)
	handler = NewSecurityMiddleware().Middleware(handler)
	handler = NewLoggingMiddleware(g.logger).Middleware(handler)
	return handler
}

// apiResponse 统一响应
type apiResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, logger zerolog.Logger, status int, resp apiResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.Error().Err(err).Msg("编码响应失败")
	}
}

// sendSuccessResponse 发送成功响应
func sendSuccessResponse(w http.ResponseWriter, logger zerolog.Logger, message string, data interface{}) {
	writeJSON(w, logger, http.StatusOK, apiResponse{Success: true, Message: message, Data: data})
}

// sendErrorResponse 发送错误响应
func sendErrorResponse(w http.ResponseWriter, logger zerolog.Logger, message string, status int) {
	writeJSON(w, logger, status, apiResponse{Message: message})
}
