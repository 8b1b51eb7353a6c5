package config

import "github.com/kelseyhightower/envconfig"

// Config holds application configuration loaded from environment variables.
type Config struct {
	BotToken          string `envconfig:"BOT_TOKEN" required:"true"`
	DBPath            string `envconfig:"DB_PATH" default:"./data/gradebook.db"`
	DefaultTZ         string `envconfig:"DEFAULT_TZ" default:"Europe/Berlin"`
	AdminChatID       int64  `envconfig:"ADMIN_CHAT_ID" default:"0"` // 0 disables /export
	LogLevel          string `envconfig:"LOG_LEVEL" default:"info"`  // debug|info|warn|error
	HTTPAddr          string `envconfig:"HTTP_ADDR" default:":8080"` // liveness probe
	SnapshotRetention int    `envconfig:"SNAPSHOT_RETENTION" default:"60"`
}

// Load reads environment variables into Config.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
