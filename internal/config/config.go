package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Log        LogConfig        `mapstructure:"log"`
	Tracing    TracingConfig    `mapstructure:"tracing"`
	CORS       CORSConfig       `mapstructure:"cors"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
	Simulation SimulationConfig `mapstructure:"simulation"`
	Sync       SyncConfig       `mapstructure:"sync"`
	Preview    PreviewConfig    `mapstructure:"preview"`

	// 运行时参数，来自命令行而不是配置文件
	ForceMigrate bool `mapstructure:"-"`
	MigrateOnly  bool `mapstructure:"-"`

	// 配置文件路径，供监听器使用
	File string `mapstructure:"-"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes"`
}

type ServerConfig struct {
	Port string
	Mode string
}

// DatabaseConfig 部署用mysql，本地运行用sqlite
type DatabaseConfig struct {
	Driver    string
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	Charset   string
	ParseTime bool   `mapstructure:"parse_time"`
	Path      string `mapstructure:"path"`
}

// LogConfig 滚动JSON日志文件配置。Level 为空时跟随服务模式
type LogConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// SimulationConfig 模拟构建器前端开发时所用 mock 后端的延迟和随机失败
type SimulationConfig struct {
	Enabled        bool    `mapstructure:"enabled"`
	MinLatencyMS   int     `mapstructure:"min_latency_ms"`
	MaxLatencyMS   int     `mapstructure:"max_latency_ms"`
	WriteErrorRate float64 `mapstructure:"write_error_rate"`
}

type SyncConfig struct {
	RetryInterval time.Duration `mapstructure:"retry_interval"`
	MaxAttempts   int           `mapstructure:"max_attempts"`
	SaveTimeout   time.Duration `mapstructure:"save_timeout"`
	RetryRate     float64       `mapstructure:"retry_rate"`
}

type PreviewConfig struct {
	SessionTTL time.Duration `mapstructure:"session_ttl"`
}

func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("TALENTFLOW")
	v.AutomaticEnv()

	setDefaults(v)

	// 数据库
	v.BindEnv("database.driver", "DATABASE_DRIVER")
	v.BindEnv("database.host", "DATABASE_HOST")
	v.BindEnv("database.port", "DATABASE_PORT")
	v.BindEnv("database.user", "DATABASE_USER")
	v.BindEnv("database.password", "DATABASE_PASSWORD")
	v.BindEnv("database.dbname", "DATABASE_NAME")
	v.BindEnv("database.path", "DATABASE_PATH")

	// Redis
	v.BindEnv("redis.enabled", "REDIS_ENABLED")
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.port", "REDIS_PORT")
	v.BindEnv("redis.password", "REDIS_PASSWORD")

	// 服务
	v.BindEnv("server.port", "SERVER_PORT")
	v.BindEnv("server.mode", "SERVER_MODE")

	// 日志
	v.BindEnv("log.level", "LOG_LEVEL")

	// 链路追踪
	v.BindEnv("tracing.enabled", "TRACING_ENABLED")
	v.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	// 网络模拟
	v.BindEnv("simulation.enabled", "SIMULATION_ENABLED")

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	cfg.File = v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "talentflow.db")
	v.SetDefault("database.charset", "utf8mb4")
	v.SetDefault("database.parse_time", true)
	v.SetDefault("log.file", "logs/talentflow.log")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age_days", 30)
	v.SetDefault("rate_limit.max_requests", 300)
	v.SetDefault("rate_limit.window_minutes", 1)
	v.SetDefault("simulation.min_latency_ms", 200)
	v.SetDefault("simulation.max_latency_ms", 1200)
	v.SetDefault("simulation.write_error_rate", 0.08)
	v.SetDefault("sync.retry_interval", "2s")
	v.SetDefault("sync.max_attempts", 5)
	v.SetDefault("sync.save_timeout", "10s")
	v.SetDefault("sync.retry_rate", 5.0)
	v.SetDefault("preview.session_ttl", "2h")
}

// Validate 拒绝服务无法运行的配置
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "mysql", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	return c.Simulation.Validate()
}

func (s SimulationConfig) Validate() error {
	if s.MinLatencyMS < 0 || s.MaxLatencyMS < s.MinLatencyMS {
		return fmt.Errorf("invalid simulated latency range [%d, %d]ms", s.MinLatencyMS, s.MaxLatencyMS)
	}
	if s.WriteErrorRate < 0 || s.WriteErrorRate > 1 {
		return fmt.Errorf("write error rate %v must be within [0, 1]", s.WriteErrorRate)
	}
	return nil
}
