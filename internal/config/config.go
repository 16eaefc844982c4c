// Package config loads runtime settings from the environment, with an
// optional .env file for development.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config is the full runtime configuration for the controller daemon.
type Config struct {
	// BoardAddr is the board's host:port. The link dials ws://<addr>/link.
	BoardAddr string `env:"BOARD_ADDR" envDefault:"lastdrop-board.local:8080"`
	// BoardPIN is the pairing PIN sent in the pair command.
	BoardPIN string `env:"BOARD_PIN" envDefault:"0000"`

	DBPath string `env:"DB_PATH" envDefault:"lastdrop.db"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	MaxReconnectAttempts int           `env:"MAX_RECONNECT_ATTEMPTS" envDefault:"3"`
	ReconnectDelay       time.Duration `env:"RECONNECT_DELAY" envDefault:"2s"`
	HeartbeatInterval    time.Duration `env:"HEARTBEAT_INTERVAL" envDefault:"5s"`
	HeartbeatTimeout     time.Duration `env:"HEARTBEAT_TIMEOUT" envDefault:"15s"`

	ReconcileInterval time.Duration `env:"RECONCILE_INTERVAL" envDefault:"10s"`
	UndoWindow        time.Duration `env:"UNDO_WINDOW" envDefault:"5s"`
}

// Load reads .env if present, then the environment.
func Load() (Config, error) {
	// Missing .env is fine; the environment is the source of truth.
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse environment: %w", err)
	}
	if cfg.MaxReconnectAttempts < 0 {
		return Config{}, fmt.Errorf("config: MAX_RECONNECT_ATTEMPTS must be >= 0")
	}
	if cfg.HeartbeatTimeout <= cfg.HeartbeatInterval {
		return Config{}, fmt.Errorf("config: HEARTBEAT_TIMEOUT must exceed HEARTBEAT_INTERVAL")
	}
	return cfg, nil
}

// NewLogger builds the process logger from the configured level and format.
func (c Config) NewLogger() *logrus.Logger {
	log := logrus.New()

	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	if c.LogFormat == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return log
}
