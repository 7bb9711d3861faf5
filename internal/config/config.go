// Package config handles application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the application configuration.
type Config struct {
	APIURL        string        `env:"READLATER_API_URL,required,notEmpty"`
	APIToken      string        `env:"READLATER_API_TOKEN"`
	DatabasePath  string        `env:"DATABASE_PATH" envDefault:"./data/readlater.db"`
	LogLevel      string        `env:"LOG_LEVEL" envDefault:"info"`
	SyncInterval  time.Duration `env:"SYNC_INTERVAL" envDefault:"5m"`
	ProbeInterval time.Duration `env:"PROBE_INTERVAL" envDefault:"30s"`
	RecentCount   int           `env:"RECENT_COUNT" envDefault:"50"`

	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID   int64  `env:"TELEGRAM_CHAT_ID"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	return load(env.Options{})
}

func load(opts env.Options) (*Config, error) {
	cfg, err := env.ParseAsWithOptions[Config](opts)
	if err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.SyncInterval <= 0 {
		errs = append(errs, fmt.Errorf("SYNC_INTERVAL must be positive, got %s", c.SyncInterval))
	}
	if c.ProbeInterval <= 0 {
		errs = append(errs, fmt.Errorf("PROBE_INTERVAL must be positive, got %s", c.ProbeInterval))
	}
	if c.RecentCount <= 0 {
		errs = append(errs, fmt.Errorf("RECENT_COUNT must be positive, got %d", c.RecentCount))
	}
	if c.TelegramBotToken != "" && c.TelegramChatID == 0 {
		errs = append(errs, errors.New("TELEGRAM_CHAT_ID is required when TELEGRAM_BOT_TOKEN is set"))
	}
	return errors.Join(errs...)
}

// TelegramEnabled reports whether drop and failure notifications go to Telegram.
func (c *Config) TelegramEnabled() bool {
	return c.TelegramBotToken != ""
}
