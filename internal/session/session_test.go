package session

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"gatemini/internal/backend"
	"gatemini/internal/config"
	"gatemini/internal/metatools"
	"gatemini/internal/registry"
)

// pipeConn glues a pair of io.Pipe halves into a single io.ReadWriter, the
// shape Server.Serve expects for one accepted net.Conn.
type pipeConn struct {
	io.Reader
	io.Writer
}

func newTestProvider(t *testing.T) *metatools.Provider {
	t.Helper()
	reg := registry.New()
	eng := backend.NewEngine(reg, &config.Config{})
	return metatools.NewProvider(reg, eng, nil)
}

func TestServer_ServeHandlesInitializeHandshake(t *testing.T) {
	provider := newTestProvider(t)
	srv := NewServer(provider, nil)

	clientToServerR, clientToServerW := io.Pipe()
	serverToClientR, serverToClientW := io.Pipe()

	conn := pipeConn{Reader: clientToServerR, Writer: serverToClientW}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Serve(ctx, conn) }()

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

	go func() {
		_, _ = clientToServerW.Write(append(reqBytes, '\n'))
	}()

	respLine := make(chan string, 1)
	go func() {
		scanner := bufio.NewScanner(serverToClientR)
		if scanner.Scan() {
			respLine <- scanner.Text()
		}
	}()

	select {
	case line := <-respLine:
		var resp map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &resp))
		result, ok := resp["result"].(map[string]any)
		require.True(t, ok, "expected a result field, got: %s", line)
		serverInfo, ok := result["serverInfo"].(map[string]any)
		require.True(t, ok)
		require.Equal(t, serverName, serverInfo["name"])
		instructions, _ := result["instructions"].(string)
		require.True(t, strings.Contains(instructions, "seven meta-tools"))
	case <-time.After(3 * time.Second):
		t.Fatal("no response to initialize within deadline")
	}

	cancel()
	_ = clientToServerW.Close()
	_ = serverToClientW.Close()

	select {
	case <-serveErr:
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancellation")
	}
}
