package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	// Core
	OpenRouterKey string `env:"OPENROUTER_API_KEY"`
	OpenRouterURL string `env:"OPENROUTER_API_URL" envDefault:"https://openrouter.ai/api/v1"`

	// Archive (optional; archiving is disabled when empty)
	DatabaseURL string `env:"DATABASE_URL"`

	// Ops notifications (optional)
	NotifyBotToken string `env:"NOTIFY_BOT_TOKEN"`
	NotifyChatID   int64  `env:"NOTIFY_TELEGRAM_CHAT_ID"`

	// Server
	Port int `env:"PORT" envDefault:"8080"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// HasAPIKey reports whether a provider credential is configured. The key is
// not required at startup: endpoints answer a uniform 500 when it is absent
// instead of the process refusing to boot.
func (c *Config) HasAPIKey() bool {
	return c.OpenRouterKey != ""
}

// ArchiveEnabled reports whether completed sessions should be persisted.
func (c *Config) ArchiveEnabled() bool {
	return c.DatabaseURL != ""
}

// NotifierEnabled reports whether the Telegram ops notifier is configured.
func (c *Config) NotifierEnabled() bool {
	return c.NotifyBotToken != "" && c.NotifyChatID != 0
}
