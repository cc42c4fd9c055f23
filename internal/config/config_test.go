package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8002, cfg.Port)
	assert.Equal(t, "./data/history.db", cfg.DatabasePath)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 0.0, cfg.RiskFreeRate)
	assert.Equal(t, 0.02, cfg.TargetReturn)
	assert.Equal(t, 730, cfg.HistoryRetentionDays)
	assert.False(t, cfg.DevMode)
}

func TestLoadOverridesFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("RISK_FREE_RATE", "0.03")
	t.Setenv("DEV_MODE", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, 0.03, cfg.RiskFreeRate)
	assert.True(t, cfg.DevMode)
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("PORT", "not-a-port")
	t.Setenv("TARGET_RETURN", "two percent")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8002, cfg.Port)
	assert.Equal(t, 0.02, cfg.TargetReturn)
}

func TestValidate(t *testing.T) {
	cfg := &Config{DatabasePath: "", HistoryRetentionDays: 30}
	assert.Error(t, cfg.Validate())

	cfg = &Config{DatabasePath: "./data/history.db", HistoryRetentionDays: 0}
	assert.Error(t, cfg.Validate())

	cfg = &Config{DatabasePath: "./data/history.db", HistoryRetentionDays: 30}
	assert.NoError(t, cfg.Validate())
}
