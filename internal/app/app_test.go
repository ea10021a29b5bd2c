package app

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeMinimalConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	const yaml = `
daemon:
  idle_timeout: 0
health:
  interval: 30s
backends: {}
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
	return path
}

func TestNew_BootstrapsWithNoBackends(t *testing.T) {
	path := writeMinimalConfig(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := New(ctx, path)
	require.NoError(t, err)
	require.NotNil(t, a.registry)
	require.NotNil(t, a.engine)
	require.NotNil(t, a.sessions)
	require.Empty(t, a.engine.ListBackends())

	a.shutdown(ctx)
}

func TestApp_RunDirectServesInitializeOverStdio(t *testing.T) {
	path := writeMinimalConfig(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := New(ctx, path)
	require.NoError(t, err)

	req := map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "initialize",
		"params": map[string]any{
			"protocolVersion": "2024-11-05",
			"capabilities":    map[string]any{},
			"clientInfo":      map[string]any{"name": "test-client", "version": "0.0.1"},
		},
	}
	reqBytes, err := json.Marshal(req)
	require.NoError(t, err)

	stdin := bytes.NewReader(append(reqBytes, '\n'))
	var stdout bytes.Buffer

	done := make(chan error, 1)
	go func() { done <- a.RunDirect(ctx, stdin, &stdout) }()

	require.Eventually(t, func() bool {
		return strings.Contains(stdout.String(), "serverInfo")
	}, 3*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("RunDirect did not return after cancellation")
	}
}

func TestDebouncedSaver_FlushWritesWithoutWaitingForTimer(t *testing.T) {
	path := writeMinimalConfig(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := New(ctx, path)
	require.NoError(t, err)

	a.saveCache.trigger()
	a.saveCache.flush()

	_, statErr := os.Stat(a.cachePath)
	require.NoError(t, statErr, "expected cache sidecar to exist after flush")
}
