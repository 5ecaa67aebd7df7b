// main.go

package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/jacl-coder/PixelStorm-Arena/config"
	"github.com/jacl-coder/PixelStorm-Arena/internal/game"
	"github.com/jacl-coder/PixelStorm-Arena/internal/gateway"
	"github.com/jacl-coder/PixelStorm-Arena/internal/match"
	"github.com/jacl-coder/PixelStorm-Arena/internal/store"
	"github.com/jacl-coder/PixelStorm-Arena/pkg/db"
)

// shutdownTimeout 优雅关闭等待时间
const shutdownTimeout = 5 * time.Second

func main() {
	// 解析命令行参数
	configPath := flag.String("config", "config/config.yaml", "配置文件路径")
	serviceType := flag.String("service", "all", "服务类型 (game, gateway, all)")
	storeType := flag.String("store", "postgres", "持久化方式 (postgres, memory)")
	flag.Parse()

	// 加载配置
	if err := config.LoadConfig(*configPath); err != nil {
		log.Fatal().Err(err).Msg("加载配置失败")
	}
	cfg := &config.GlobalConfig
	logger := newLogger(cfg.Server)
	log.Logger = logger

	if *serviceType != "game" && *serviceType != "gateway" && *serviceType != "all" {
		logger.Fatal().Str("service", *serviceType).Msg("未知的服务类型")
	}

	gw, closeStore := openStore(*storeType, logger)
	defer closeStore()

	lb := openLeaderboard(cfg, gw, logger)
	defer db.CloseRedis()

	scheduler, err := startLeaderboardJob(lb, cfg.Leaderboard.RefreshInterval, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("启动排行榜刷新任务失败")
	}
	defer func() {
		if err := scheduler.Shutdown(); err != nil {
			logger.Error().Err(err).Msg("关闭定时任务失败")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	eg, ctx := errgroup.WithContext(ctx)
	var stoppers []func(context.Context) error

	// 根据服务类型启动不同的服务
	if *serviceType == "game" || *serviceType == "all" {
		gameServer := game.NewGameServer(cfg, gw, logger, game.WithLeaderboard(lb))
		matchService := match.NewMatchService(gameServer.Manager(), gameServer.Registry(), gw, logger)
		gameServer.Mount(match.NewMatchHandler(matchService))
		eg.Go(gameServer.Start)
		stoppers = append(stoppers, gameServer.Stop)
	}
	if *serviceType == "gateway" || *serviceType == "all" {
		gatewayServer := gateway.NewGateway(cfg, gw, lb, logger)
		eg.Go(gatewayServer.Start)
		stoppers = append(stoppers, gatewayServer.Stop)
	}

	// 等待中断信号或任一服务退出
	eg.Go(func() error {
		<-ctx.Done()
		logger.Info().Msg("接收到关闭信号，正在关闭服务器...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		for _, stopFn := range stoppers {
			if err := stopFn(shutdownCtx); err != nil {
				logger.Error().Err(err).Msg("关闭服务失败")
			}
		}
		return nil
	})

	if err := eg.Wait(); err != nil {
		logger.Error().Err(err).Msg("服务异常退出")
		return
	}
	logger.Info().Msg("服务器已安全关闭")
}

// newLogger 根据配置创建根日志
func newLogger(cfg config.ServerConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil || cfg.LogLevel == "" {
		level = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if cfg.Debug {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		logger = zerolog.New(os.Stderr)
	}
	return logger.Level(level).With().Timestamp().Logger()
}

// openStore 初始化持久化网关
func openStore(storeType string, logger zerolog.Logger) (store.Gateway, func()) {
	switch storeType {
	case "memory":
		logger.Warn().Msg("使用内存存储，进程退出后数据丢失")
		return store.NewMemoryGateway(), func() {}
	case "postgres":
		if err := db.InitPostgres(); err != nil {
			logger.Fatal().Err(err).Msg("初始化PostgreSQL失败")
		}
		if err := db.InitAllTables(db.DB); err != nil {
			db.Close()
			logger.Fatal().Err(err).Msg("初始化数据表失败")
		}
		return store.NewPostgresGateway(db.DB), db.Close
	default:
		logger.Fatal().Str("store", storeType).Msg("未知的存储类型")
		return nil, nil
	}
}

// openLeaderboard 启用Redis时使用缓存排行榜
func openLeaderboard(cfg *config.Config, gw store.Gateway, logger zerolog.Logger) store.Leaderboard {
	if err := db.InitRedis(); err != nil {
		logger.Error().Err(err).Msg("初始化Redis失败，排行榜直接读取数据库")
		return store.NewGatewayLeaderboard(gw)
	}
	if db.RedisClient == nil {
		return store.NewGatewayLeaderboard(gw)
	}
	return store.NewRedisLeaderboard(db.RedisClient, gw, cfg.Leaderboard.CacheTTL, logger)
}
