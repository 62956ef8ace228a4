package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用配置；yaml 文件 + AT_ 前缀环境变量覆盖
type Config struct {
	Server struct {
		Addr string
		Mode string // debug / release
	}
	Log struct {
		Level string
		Dev   bool
	}
	Database struct {
		DSN string
	}
	Redis struct {
		Addr     string
		Password string
		DB       int
	}
	Cache struct {
		CounterTTL  time.Duration
		SnapshotTTL time.Duration
	}
	JWT struct {
		Secret string
		TTL    time.Duration
	}
	Sentry struct {
		DSN string
	}
	Trace struct {
		Enabled  bool
		Endpoint string
	}
	RateLimit struct {
		RPS   float64
		Burst int
	}
}

func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.dev", false)
	v.SetDefault("database.dsn", "host=localhost user=postgres password=postgres dbname=postgres port=5432 sslmode=disable")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("cache.counterttl", 30*time.Minute)
	v.SetDefault("cache.snapshotttl", 10*time.Minute)
	v.SetDefault("jwt.secret", "change-me")
	v.SetDefault("jwt.ttl", 24*time.Hour)
	v.SetDefault("trace.enabled", false)
	v.SetDefault("trace.endpoint", "localhost:4318")
	v.SetDefault("ratelimit.rps", 50)
	v.SetDefault("ratelimit.burst", 100)

	v.SetEnvPrefix("AT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
