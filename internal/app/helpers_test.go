package app

import (
	"context"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rbright/deckmix/internal/config"
	"github.com/rbright/deckmix/internal/ipc"
)

type runnerPaths struct {
	configPath string
	runtimeDir string
}

func setupRunnerEnv(t *testing.T) runnerPaths {
	t.Helper()

	runtimeDir := t.TempDir()
	t.Setenv("XDG_STATE_HOME", t.TempDir())
	configHome := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(configHome, "deckmix"), 0o755))
	t.Setenv("XDG_CONFIG_HOME", configHome)
	t.Setenv("XDG_RUNTIME_DIR", runtimeDir)
	t.Setenv(ipc.SocketEnv, "")

	configPath := filepath.Join(t.TempDir(), "config.jsonc")
	contents := `{
  "relay": {"enable": false},
  "indicator": {"enable": false},
}`
	require.NoError(t, os.WriteFile(configPath, []byte(contents), 0o600))

	return runnerPaths{configPath: configPath, runtimeDir: runtimeDir}
}

func loadTestConfig(t *testing.T, path string) config.Config {
	t.Helper()
	loaded, err := config.Load(path)
	require.NoError(t, err)
	return loaded.Config
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func startIPCServerForRunnerTest(t *testing.T, socketPath string, handler func(context.Context, ipc.Request) ipc.Response) func() {
	t.Helper()

	listener, err := net.Listen("unix", socketPath)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- ipc.Serve(ctx, listener, ipc.HandlerFunc(handler))
	}()

	return func() {
		cancel()
		require.NoError(t, <-done)
	}
}
