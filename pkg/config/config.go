package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Dispatch    DispatchConfig    `mapstructure:"dispatch"`
	Retry       RetryConfig       `mapstructure:"retry"`
	Summary     SummaryConfig     `mapstructure:"summary"`
	RateLimiter RateLimiterConfig `mapstructure:"rate_limiter"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Server      ServerConfig      `mapstructure:"server"`
	Log         LogConfig         `mapstructure:"log"`
	Redis       RedisConfig       `mapstructure:"redis"`
}

type DispatchConfig struct {
	InstanceID   string        `mapstructure:"instance_id"`
	MaxWorkers   int           `mapstructure:"max_workers"`
	ScanInterval time.Duration `mapstructure:"scan_interval"`
	ScanLimit    int           `mapstructure:"scan_limit"`
}

type RetryConfig struct {
	// 回调任务固定的最大重试次数，场景配置对回调任务不生效
	CallbackMaxRetryCount int `mapstructure:"callback_max_retry_count"`
	// 场景未配置执行超时时的全局默认值
	DefaultExecutorTimeout time.Duration `mapstructure:"default_executor_timeout"`
}

type SummaryConfig struct {
	// 统计回溯天数，每次调度从今天起往前回溯 summary_day 天
	SummaryDay int    `mapstructure:"summary_day"`
	LockType   string `mapstructure:"lock_type"`
}

type RateLimiterConfig struct {
	TTL              time.Duration `mapstructure:"ttl"`
	PermitsPerSecond float64       `mapstructure:"permits_per_second"`
	MaxEntries       int           `mapstructure:"max_entries"`
}

type DatabaseConfig struct {
	Host                  string        `mapstructure:"host"`
	Port                  int           `mapstructure:"port"`
	Database              string        `mapstructure:"database"`
	User                  string        `mapstructure:"user"`
	Password              string        `mapstructure:"password"`
	MaxConnections        int           `mapstructure:"max_connections"`
	MaxIdleConnections    int           `mapstructure:"max_idle_connections"`
	ConnectionMaxLifetime time.Duration `mapstructure:"connection_max_lifetime"`
}

type ServerConfig struct {
	IP             string        `mapstructure:"ip"`
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	MaxHeaderBytes int           `mapstructure:"max_header_bytes"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	// 设置默认值
	viper.SetDefault("dispatch.instance_id", "retry-server-001")
	viper.SetDefault("dispatch.max_workers", 10)
	viper.SetDefault("dispatch.scan_interval", "5s")
	viper.SetDefault("dispatch.scan_limit", 100)

	viper.SetDefault("retry.callback_max_retry_count", 288)
	viper.SetDefault("retry.default_executor_timeout", "60s")

	viper.SetDefault("summary.summary_day", 7)
	viper.SetDefault("summary.lock_type", "mysql")

	viper.SetDefault("rate_limiter.ttl", "30m")
	viper.SetDefault("rate_limiter.permits_per_second", 1.0)
	viper.SetDefault("rate_limiter.max_entries", 4096)

	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 3306)
	viper.SetDefault("database.max_connections", 20)
	viper.SetDefault("database.max_idle_connections", 10)
	viper.SetDefault("database.connection_max_lifetime", "1h")

	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("server.max_header_bytes", 1048576)

	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "json")
	viper.SetDefault("log.output", "stdout")

	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
