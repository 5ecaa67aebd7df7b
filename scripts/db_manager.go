// db_manager.go

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/jacl-coder/PixelStorm-Arena/config"
	"github.com/jacl-coder/PixelStorm-Arena/internal/auth"
	"github.com/jacl-coder/PixelStorm-Arena/internal/models"
	"github.com/jacl-coder/PixelStorm-Arena/internal/store"
	"github.com/jacl-coder/PixelStorm-Arena/pkg/db"
)

// testAccounts 测试账号，密码统一为 password123
var testAccounts = []models.NewPlayer{
	{Username: "test1", AvatarID: 0},
	{Username: "test2", AvatarID: 1},
	{Username: "test3", AvatarID: 2},
	{Username: "test4", AvatarID: 3},
}

const testPassword = "password123"

func main() {
	// 解析命令行参数
	configPath := flag.String("config", "config/config.yaml", "配置文件路径")
	action := flag.String("action", "help", "操作类型: reset, init, seed, help")
	tokenTTL := flag.Duration("token-ttl", 24*time.Hour, "seed 时打印的测试令牌有效期")
	flag.Parse()

	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		With().Timestamp().Logger()

	// 显示帮助信息
	if *action == "help" {
		showHelp()
		return
	}

	// 加载配置
	if err := config.LoadConfig(*configPath); err != nil {
		log.Fatal().Err(err).Msg("加载配置失败")
	}

	// 初始化数据库连接
	if err := db.InitPostgres(); err != nil {
		log.Fatal().Err(err).Msg("初始化PostgreSQL失败")
	}
	defer db.Close()

	// 执行操作
	var err error
	switch *action {
	case "reset":
		err = resetDatabase()
	case "init":
		err = initDatabase()
	case "seed":
		err = seedAccounts(context.Background(), store.NewPostgresGateway(db.DB), *tokenTTL)
	default:
		err = fmt.Errorf("未知操作: %s", *action)
	}
	if err != nil {
		log.Error().Err(err).Str("action", *action).Msg("操作失败")
		db.Close()
		os.Exit(1)
	}
}

// showHelp 显示帮助信息
func showHelp() {
	fmt.Println(`PixelStorm Arena 数据库管理工具

用法:
  go run scripts/db_manager.go -action=<操作> [-config=<配置文件>]

操作:
  reset  - 重置数据库（删除所有表和数据）
  init   - 初始化数据库（创建表结构）
  seed   - 创建测试账号，配置了 jwt_secret 时同时打印连接令牌
  help   - 显示此帮助信息

示例:
  go run scripts/db_manager.go -action=reset
  go run scripts/db_manager.go -action=init
  go run scripts/db_manager.go -action=seed -token-ttl=2h`)
}

// resetDatabase 重置数据库
func resetDatabase() error {
	log.Warn().Msg("正在重置数据库，这将删除所有表和数据")
	if err := db.DropAllTables(db.DB); err != nil {
		return err
	}
	log.Info().Msg("数据库重置完成")
	return nil
}

// initDatabase 初始化数据库
func initDatabase() error {
	if err := db.InitAllTables(db.DB); err != nil {
		return err
	}
	log.Info().Strs("tables", []string{"players", "matches", "match_participants"}).Msg("数据库初始化完成")
	return nil
}

// seedAccounts 创建测试账号，已存在的账号跳过
func seedAccounts(ctx context.Context, gw store.Gateway, tokenTTL time.Duration) error {
	if err := db.InitAllTables(db.DB); err != nil {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	secret := config.GlobalConfig.Server.JWTSecret
	for _, account := range testAccounts {
		player, err := gw.GetPlayerByUsername(ctx, account.Username)
		switch {
		case store.IsNotFound(err):
			account.Password = string(hashed)
			if player, err = gw.CreatePlayer(ctx, account); err != nil {
				return err
			}
			log.Info().Str("username", player.Username).Str("id", player.ID).Msg("测试账号已创建")
		case err != nil:
			return err
		default:
			log.Info().Str("username", player.Username).Str("id", player.ID).Msg("测试账号已存在")
		}

		if secret == "" {
			continue
		}
		token, err := auth.Sign(secret, player.ID, tokenTTL)
		if err != nil {
			return err
		}
		fmt.Printf("%s\t%s\t%s\n", player.Username, player.ID, token)
	}
	return nil
}
