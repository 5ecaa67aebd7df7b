// config.go

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 服务器配置结构
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Leaderboard LeaderboardConfig `mapstructure:"leaderboard"`
}

// ServerConfig 服务器基本配置
type ServerConfig struct {
	GamePort       int      `mapstructure:"game_port"`
	GatewayPort    int      `mapstructure:"gateway_port"`
	Debug          bool     `mapstructure:"debug"`
	LogLevel       string   `mapstructure:"log_level"`
	JWTSecret      string   `mapstructure:"jwt_secret"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// RedisConfig Redis配置
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// LeaderboardConfig 排行榜配置
type LeaderboardConfig struct {
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
	CacheTTL        time.Duration `mapstructure:"cache_ttl"`
}

var (
	// GlobalConfig 全局配置实例
	GlobalConfig Config
)

// setDefaults 设置默认值
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.game_port", 8080)
	v.SetDefault("server.gateway_port", 8081)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.jwt_secret", "")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("leaderboard.refresh_interval", 5*time.Minute)
	v.SetDefault("leaderboard.cache_ttl", 5*time.Minute)
}

// Load 从文件加载配置，环境变量（如 SERVER_GAME_PORT）优先
func Load(configPath string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(configPath)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.ReadInConfig(); err != nil {
		return cfg, fmt.Errorf("无法读取配置文件: %w", err)
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("无法解析配置文件: %w", err)
	}

	return cfg, nil
}

// LoadConfig 从文件加载配置到 GlobalConfig
func LoadConfig(configPath string) error {
	cfg, err := Load(configPath)
	if err != nil {
		return err
	}
	GlobalConfig = cfg
	return nil
}

// GetDSN 获取PostgreSQL连接字符串
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// GetRedisAddr 获取Redis连接地址
func (c *RedisConfig) GetRedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
