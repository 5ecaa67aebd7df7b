package db

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/jacl-coder/PixelStorm-Arena/config"
)

var (
	// DB 全局数据库连接实例
	DB *sql.DB
)

// InitPostgres 初始化PostgreSQL连接
func InitPostgres() error {
	dsn := config.GlobalConfig.Database.GetDSN()
	var err error

	DB, err = sql.Open("postgres", dsn)
	if err != nil {
		return fmt.Errorf("连接数据库失败: %w", err)
	}

	DB.SetMaxOpenConns(25)
	DB.SetMaxIdleConns(5)
	DB.SetConnMaxLifetime(30 * time.Minute)

	// 测试连接
	if err = DB.Ping(); err != nil {
		return fmt.Errorf("数据库Ping失败: %w", err)
	}

	log.Info().Str("host", config.GlobalConfig.Database.Host).Msg("成功连接到PostgreSQL数据库")
	return nil
}

// Close 关闭数据库连接
func Close() {
	if DB != nil {
		DB.Close()
		log.Info().Msg("数据库连接已关闭")
	}
}
