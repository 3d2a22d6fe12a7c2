package main

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricehub/internal/infrastructure/config"
)

func loadTestConfig(t *testing.T, addr string) *config.Config {
	t.Helper()
	body := `
[app]
autostart = false

[server]
addr = "` + addr + `"
shutdown_timeout_sec = 1

[symbols]
list = ["BTC"]

[exchanges.binance]
enabled = true
base_url = "http://127.0.0.1:1"
`
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	cfg, err := config.Load(path)
	require.NoError(t, err)
	return cfg
}

func TestRun_ReturnsBindError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	cfg := loadTestConfig(t, ln.Addr().String())

	done := make(chan error, 1)
	go func() { done <- run(context.Background(), cfg) }()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.Contains(t, err.Error(), "address already in use")
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return on bind failure")
	}
}

func TestRun_CleanShutdownOnCancel(t *testing.T) {
	cfg := loadTestConfig(t, "127.0.0.1:0")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- run(ctx, cfg) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not stop after cancel")
	}
}
