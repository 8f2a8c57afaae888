package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Ledger.Driver)
	assert.Equal(t, "data/feedback.db", cfg.Ledger.Path)
	assert.Equal(t, "http://localhost:8100", cfg.Catalog.BaseURL)
	assert.Equal(t, 5, cfg.Catalog.TopK)
	assert.Equal(t, 20.0, cfg.Catalog.RateLimit)
	assert.Equal(t, 8, cfg.Pricing.MatchConcurrency)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("PRICING_SERVER_PORT", "9999")
	t.Setenv("PRICING_LEDGER_DRIVER", "postgres")
	t.Setenv("PRICING_CATALOG_BASE_URL", "http://match.internal:8100")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Ledger.Driver)
	assert.Equal(t, "http://match.internal:8100", cfg.Catalog.BaseURL)
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	require.NoError(t, InitLogger(LogConfig{Level: "info", Format: "json"}))

	err := InitLogger(LogConfig{Level: "shouting", Format: "json"})
	require.Error(t, err)
}
