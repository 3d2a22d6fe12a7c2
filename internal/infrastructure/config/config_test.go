package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_DefaultsAndNormalization(t *testing.T) {
	path := writeConfig(t, `
[symbols]
list = [" btc", "ETH", "eth", ""]

[exchanges.Binance]
enabled = true

[exchanges.coinbase]
enabled = false
max_symbols = 5
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"BTC", "ETH"}, cfg.Symbols.List)
	assert.Equal(t, []string{"binance"}, cfg.GetEnabledExchanges())
	assert.Equal(t, 10*time.Second, cfg.RefreshInterval())
	assert.Equal(t, 5*time.Second, cfg.RetryInterval())
	assert.Equal(t, ":8000", cfg.Server.Addr)
	assert.Equal(t, "/ws", cfg.Server.WSPath)
	assert.Equal(t, []string{"binance", "kucoin", "coinbase"}, cfg.Display.Priority)
	assert.Equal(t, 5, cfg.Exchanges["coinbase"].MaxSymbols)
}

func TestLoad_EmptyFileUsesDefaultUniverse(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)

	assert.Len(t, cfg.Symbols.List, 30)
	assert.Equal(t, []string{"binance", "coinbase", "kucoin"}, cfg.GetEnabledExchanges())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv(EnvAddr, ":9999")
	t.Setenv(EnvLogLevel, "debug")
	t.Setenv(EnvRedisAddr, "cache:6379")
	t.Setenv(EnvPostgresDSN, "postgres://x")

	cfg, err := Load(writeConfig(t, `
[server]
addr = ":8000"
`))
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.Server.Addr)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "cache:6379", cfg.Storage.Redis.Addr)
	assert.Equal(t, "postgres://x", cfg.Storage.Postgres.DSN)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, `
[symbols]
list = ["  ", ""]
`))
	assert.ErrorContains(t, err, "symbols.list")

	_, err = Load(writeConfig(t, `
[storage]
enabled = true
[storage.postgres]
enabled = true
`))
	assert.ErrorContains(t, err, "postgres")
}

func TestExchangeConfig_Durations(t *testing.T) {
	ex := ExchangeConfig{TimeoutSec: 3, RequestIntervalMs: 150}
	assert.Equal(t, 3*time.Second, ex.Timeout())
	assert.Equal(t, 150*time.Millisecond, ex.RequestInterval())
}

func TestLoad_RetryClampedToRefreshInterval(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
[app]
refresh_interval_sec = 3
retry_interval_sec = 30
`))
	require.NoError(t, err)

	assert.Equal(t, 3*time.Second, cfg.RefreshInterval())
	assert.Equal(t, 3*time.Second, cfg.RetryInterval())
}
