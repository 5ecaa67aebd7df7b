package db

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"

	"github.com/jacl-coder/PixelStorm-Arena/config"
)

var (
	// RedisClient 全局Redis客户端实例，未启用时为nil
	RedisClient *redis.Client
)

// InitRedis 初始化Redis连接
func InitRedis() error {
	redisConfig := config.GlobalConfig.Redis
	if !redisConfig.Enabled {
		log.Info().Msg("Redis未启用，排行榜将直接读取数据库")
		return nil
	}

	RedisClient = redis.NewClient(&redis.Options{
		Addr:     redisConfig.GetRedisAddr(),
		Password: redisConfig.Password,
		DB:       redisConfig.DB,
	})

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := RedisClient.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("Redis连接失败: %w", err)
	}

	log.Info().Str("addr", redisConfig.GetRedisAddr()).Msg("成功连接到Redis服务器")
	return nil
}

// CloseRedis 关闭Redis连接
func CloseRedis() {
	if RedisClient != nil {
		if err := RedisClient.Close(); err != nil {
			log.Error().Err(err).Msg("关闭Redis连接时发生错误")
			return
		}
		log.Info().Msg("Redis连接已关闭")
	}
}
