package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// StorageMode selects where the record store keeps collections.
type StorageMode string

const (
	StorageDisk   StorageMode = "disk"
	StorageMemory StorageMode = "memory"
)

type Config struct {
	Debug bool `env:"DEBUG" envDefault:"false"`

	Storage struct {
		Mode    StorageMode `env:"STORAGE_MODE" envDefault:"disk"`
		DataDir string      `env:"DATA_DIR" envDefault:"data"`
	}

	Web struct {
		Port   int    `env:"WEB_PORT" envDefault:"3000"`
		Origin string `env:"ORIGIN" envDefault:"http://localhost:3000"`
	}

	Redis struct {
		Enabled  bool   `env:"REDIS_ENABLED" envDefault:"false"`
		Host     string `env:"REDIS_HOST" envDefault:"localhost"`
		Port     int    `env:"REDIS_PORT" envDefault:"6379"`
		Password string `env:"REDIS_PASSWORD" envDefault:""`
		DB       int    `env:"REDIS_DB" envDefault:"0"`
	}

	Session struct {
		TTL time.Duration `env:"SESSION_TTL" envDefault:"30m"`
	}

	Telegram struct {
		BotToken        string  `env:"BOT_TOKEN,required"`
		BotUsername     string  `env:"BOT_USERNAME" envDefault:"yolchi_goals_bot"`
		AdminIDs        []int64 `env:"ADMIN_IDS" envSeparator:","`
		ChannelID       int64   `env:"CHANNEL_ID" envDefault:"0"`
		ChannelUsername string  `env:"CHANNEL_USERNAME" envDefault:""`
		InitDataTTL     int     `env:"INIT_DATA_TTL" envDefault:"3600"`
	}
}

func Load() (*Config, error) {
	// .env is optional; in production the variables are set directly.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if cfg.Storage.Mode != StorageDisk && cfg.Storage.Mode != StorageMemory {
		return nil, fmt.Errorf("invalid STORAGE_MODE %q", cfg.Storage.Mode)
	}

	return cfg, nil
}

// IsAdmin reports whether the given Telegram id is in the configured admin set.
func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.Telegram.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// RedisAddr returns the host:port pair for the Redis connection.
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}
