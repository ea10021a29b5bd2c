package ipc

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"gatemini/internal/socketcoord"
)

func TestCleanupStaleSocket_RemovesSocketWithDeadPID(t *testing.T) {
	dir := t.TempDir()
	sockPath := filepath.Join(dir, "gatemini.sock")
	pidPath := filepath.Join(dir, "gatemini.pid")

	l, err := net.Listen("unix", sockPath)
	require.NoError(t, err)
	_ = l.Close() // leaves the socket file behind, nothing listening

	require.NoError(t, os.WriteFile(pidPath, []byte("999999999"), 0o600))

	require.NoError(t, cleanupStaleSocket(sockPath, pidPath))
	_, statErr := os.Stat(sockPath)
	require.True(t, os.IsNotExist(statErr))
}

func TestCleanupStaleSocket_LeavesSocketWhenPIDIsUs(t *testing.T) {
	dir := t.TempDir()
	sockPath := filepath.Join(dir, "gatemini.sock")
	pidPath := filepath.Join(dir, "gatemini.pid")

	l, err := net.Listen("unix", sockPath)
	require.NoError(t, err)
	defer l.Close()

	require.NoError(t, socketcoord.WritePIDFile(pidPath))

	require.NoError(t, cleanupStaleSocket(sockPath, pidPath))
	_, statErr := os.Stat(sockPath)
	require.NoError(t, statErr)
}

func TestCleanupStaleSocket_NoSocketIsNoop(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, cleanupStaleSocket(filepath.Join(dir, "missing.sock"), filepath.Join(dir, "missing.pid")))
}

func TestWaitForDialable_ReturnsOnceListenerExists(t *testing.T) {
	dir := t.TempDir()
	sockPath := filepath.Join(dir, "gatemini.sock")

	go func() {
		time.Sleep(60 * time.Millisecond)
		l, err := net.Listen("unix", sockPath)
		if err != nil {
			return
		}
		defer l.Close()
		conn, err := l.Accept()
		if err == nil {
			_ = conn.Close()
		}
	}()

	conn, err := waitForDialable(context.Background(), sockPath)
	require.NoError(t, err)
	_ = conn.Close()
}

func TestWaitForDialable_RespectsContextCancellation(t *testing.T) {
	dir := t.TempDir()
	sockPath := filepath.Join(dir, "never.sock")

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	_, err := waitForDialable(ctx, sockPath)
	require.ErrorIs(t, err, context.Canceled)
}

func TestRunProxy_BridgesToExistingDaemon(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())

	sockPath, err := socketcoord.SocketPath()
	require.NoError(t, err)

	l, err := net.Listen("unix", sockPath)
	require.NoError(t, err)
	defer l.Close()

	received := make(chan string, 1)
	go func() {
		conn, err := l.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		buf := make([]byte, 4)
		n, _ := conn.Read(buf)
		received <- string(buf[:n])
		// Closing from the server side is what unblocks the proxy's bridge
		// once it has nothing left to read.
	}()

	stdinR, stdinW, err := os.Pipe()
	require.NoError(t, err)
	stdoutR, stdoutW, err := os.Pipe()
	require.NoError(t, err)

	go func() {
		_, _ = stdinW.Write([]byte("ping"))
		_ = stdinW.Close()
	}()

	err = RunProxy(context.Background(), stdinR, stdoutW)
	require.NoError(t, err)
	_ = stdoutR.Close()

	select {
	case got := <-received:
		require.Equal(t, "ping", got)
	case <-time.After(2 * time.Second):
		t.Fatal("server never received bridged bytes")
	}
}
