package ipc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"gatemini/internal/socketcoord"
)

func newIsolatedRuntimeDir(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())
}

func TestDaemon_AcceptsAndHandlesConnection(t *testing.T) {
	newIsolatedRuntimeDir(t)

	handled := make(chan string, 1)
	d, err := NewDaemon(func(ctx context.Context, conn net.Conn) {
		buf := make([]byte, 5)
		n, _ := conn.Read(buf)
		handled <- string(buf[:n])
	}, 0)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serveErr := make(chan error, 1)
	go func() { serveErr <- d.Serve(ctx) }()

	sockPath, err := socketcoord.SocketPath()
	require.NoError(t, err)

	conn, err := net.DialTimeout("unix", sockPath, time.Second)
	require.NoError(t, err)
	_, err = conn.Write([]byte("hello"))
	require.NoError(t, err)

	select {
	case got := <-handled:
		require.Equal(t, "hello", got)
	case <-time.After(2 * time.Second):
		t.Fatal("handler did not run in time")
	}
	_ = conn.Close()

	d.Shutdown()
	select {
	case err := <-serveErr:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after Shutdown")
	}
}

func TestDaemon_WritesPIDFile(t *testing.T) {
	newIsolatedRuntimeDir(t)

	d, err := NewDaemon(func(ctx context.Context, conn net.Conn) {}, 0)
	require.NoError(t, err)
	defer d.Shutdown()

	pidPath, err := socketcoord.PIDFilePath()
	require.NoError(t, err)
	pid, err := socketcoord.ReadPIDFile(pidPath)
	require.NoError(t, err)
	require.Greater(t, pid, 0)
}

func TestDaemon_IdleTimeoutShutsDownWithNoSessions(t *testing.T) {
	newIsolatedRuntimeDir(t)

	d, err := NewDaemon(func(ctx context.Context, conn net.Conn) {}, 20*time.Millisecond)
	require.NoError(t, err)

	ctx := context.Background()
	serveErr := make(chan error, 1)
	go func() { serveErr <- d.Serve(ctx) }()

	select {
	case err := <-serveErr:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return on idle timeout")
	}
}

func TestDaemon_ActiveSessionsTracksConnections(t *testing.T) {
	newIsolatedRuntimeDir(t)

	release := make(chan struct{})
	d, err := NewDaemon(func(ctx context.Context, conn net.Conn) {
		<-release
	}, 0)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = d.Serve(ctx) }()

	sockPath, err := socketcoord.SocketPath()
	require.NoError(t, err)
	conn, err := net.DialTimeout("unix", sockPath, time.Second)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return d.ActiveSessions() == 1 }, time.Second, 10*time.Millisecond)

	close(release)
	require.Eventually(t, func() bool { return d.ActiveSessions() == 0 }, time.Second, 10*time.Millisecond)

	d.Shutdown()
}
