package main

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hammer-live/event-bridge/pkg/bridge"
)

func TestLoadConfig_Defaults(t *testing.T) {
	for _, k := range []string{"BRIDGE_CONFIG", "BRIDGE_HOST", "BRIDGE_PORT", "BRIDGE_AUTH_TOKEN", "BRIDGE_DEBUG"} {
		t.Setenv(k, "")
	}
	cfg, err := loadConfig(zap.NewNop())
	require.NoError(t, err)
	require.Equal(t, "localhost", cfg.Host)
	require.Equal(t, 9696, cfg.Port)
	require.Empty(t, cfg.AuthToken)
	require.False(t, cfg.Debug)
	require.Equal(t, 64, cfg.MaxConnections)
}

func TestLoadConfig_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bridge.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: 9800\nauthToken: from-file\ndebug: true\npingInterval: 30s\n"), 0644))

	t.Setenv("BRIDGE_CONFIG", path)
	t.Setenv("BRIDGE_HOST", "127.0.0.1")
	t.Setenv("BRIDGE_PORT", "9801")
	t.Setenv("BRIDGE_AUTH_TOKEN", "")
	t.Setenv("BRIDGE_DEBUG", "")
	t.Setenv("BRIDGE_MAX_CONNECTIONS", "not-a-number")

	cfg, err := loadConfig(zap.NewNop())
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1", cfg.Host)
	require.Equal(t, 9801, cfg.Port)
	require.Equal(t, "from-file", cfg.AuthToken)
	require.True(t, cfg.Debug)
	require.Equal(t, 30*time.Second, cfg.PingInterval)
	require.Equal(t, 64, cfg.MaxConnections)
}

func TestLoadConfig_BadFile(t *testing.T) {
	t.Setenv("BRIDGE_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err := loadConfig(zap.NewNop())
	require.Error(t, err)
}

func TestRunRelay_StopsOnCancel(t *testing.T) {
	relay := bridge.New(zap.NewNop())
	registerRoutes(relay, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runRelay(ctx, relay, bridge.Config{Host: "127.0.0.1"}, zap.NewNop()) }()

	require.Eventually(t, relay.Running, 2*time.Second, 10*time.Millisecond)
	base := "http://" + relay.Addr().String()
	for _, path := range []string{"/healthz", "/status", "/metrics", "/swagger/swagger.json"} {
		resp, err := http.Get(base + path)
		require.NoError(t, err, path)
		require.Equal(t, http.StatusOK, resp.StatusCode, path)
		resp.Body.Close()
	}

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("relay did not stop")
	}
	require.False(t, relay.Running())
}
