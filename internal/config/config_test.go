package config

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "lastdrop-board.local:8080", cfg.BoardAddr)
	assert.Equal(t, 3, cfg.MaxReconnectAttempts)
	assert.Equal(t, 2*time.Second, cfg.ReconnectDelay)
	assert.Equal(t, 5*time.Second, cfg.HeartbeatInterval)
	assert.Equal(t, 15*time.Second, cfg.HeartbeatTimeout)
	assert.Equal(t, 5*time.Second, cfg.UndoWindow)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("BOARD_ADDR", "10.0.0.42:9000")
	t.Setenv("BOARD_PIN", "4321")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("RECONCILE_INTERVAL", "30s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "10.0.0.42:9000", cfg.BoardAddr)
	assert.Equal(t, "4321", cfg.BoardPIN)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 30*time.Second, cfg.ReconcileInterval)
}

func TestLoadRejectsBadHeartbeat(t *testing.T) {
	t.Setenv("HEARTBEAT_INTERVAL", "20s")
	t.Setenv("HEARTBEAT_TIMEOUT", "15s")

	_, err := Load()
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	cfg := Config{LogLevel: "warn", LogFormat: "json"}
	log := cfg.NewLogger()
	assert.Equal(t, logrus.WarnLevel, log.GetLevel())
	_, ok := log.Formatter.(*logrus.JSONFormatter)
	assert.True(t, ok)

	cfg = Config{LogLevel: "not-a-level"}
	log = cfg.NewLogger()
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
}
