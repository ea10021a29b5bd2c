package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"gatemini/internal/socketcoord"
	"gatemini/pkg/logging"
)

// ConnHandler serves one accepted connection until the client disconnects or
// ctx is cancelled. The daemon does not know anything about MCP framing;
// internal/app wires this to the session server (spec.md §4.11 "Sessions
// run the MCP protocol using an external implementation").
type ConnHandler func(ctx context.Context, conn net.Conn)

// Daemon owns the Unix socket, the PID file, and the accept loop. Bind
// happens in NewDaemon; internal/app calls it from RunDaemon, after New has
// loaded config and started backends, so the socket does not exist while
// that startup runs.
type Daemon struct {
	handler     ConnHandler
	idleTimeout time.Duration

	sockPath string
	pidPath  string

	listener net.Listener

	sessions       sync.WaitGroup
	activeSessions atomic.Int64

	shutdownOnce sync.Once
	shutdownCh   chan struct{}
}

// NewDaemon resolves the socket/PID paths, removes a stale socket, binds
// the listener and writes the PID file. It does no other startup work;
// config load, registry build and backend startup are the caller's.
func NewDaemon(handler ConnHandler, idleTimeout time.Duration) (*Daemon, error) {
	sockPath, err := socketcoord.SocketPath()
	if err != nil {
		return nil, fmt.Errorf("ipc: resolve socket path: %w", err)
	}
	pidPath, err := socketcoord.PIDFilePath()
	if err != nil {
		return nil, fmt.Errorf("ipc: resolve pid path: %w", err)
	}

	if err := cleanupStaleSocket(sockPath, pidPath); err != nil {
		return nil, fmt.Errorf("ipc: clean stale socket: %w", err)
	}

	listener, err := net.Listen("unix", sockPath)
	if err != nil {
		return nil, fmt.Errorf("ipc: listen on %s: %w", sockPath, err)
	}
	if err := os.Chmod(sockPath, 0o700); err != nil {
		_ = listener.Close()
		return nil, fmt.Errorf("ipc: chmod socket: %w", err)
	}

	if err := socketcoord.WritePIDFile(pidPath); err != nil {
		_ = listener.Close()
		return nil, fmt.Errorf("ipc: write pid file: %w", err)
	}

	return &Daemon{
		handler:     handler,
		idleTimeout: idleTimeout,
		sockPath:    sockPath,
		pidPath:     pidPath,
		listener:    listener,
		shutdownCh:  make(chan struct{}),
	}, nil
}

// Serve runs the accept loop until ctx is cancelled, a termination signal
// arrives, the idle timer fires with zero active sessions, or Shutdown is
// called directly. It always attempts CleanupFiles before returning.
func (d *Daemon) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return d.acceptLoop(gctx, cancel)
	})

	g.Go(func() error {
		select {
		case sig := <-sigCh:
			logging.Info(subsystem, "received signal %s, shutting down", sig)
		case <-d.shutdownCh:
			logging.Info(subsystem, "shutdown requested")
		case <-gctx.Done():
		}
		d.stopAccepting()
		return nil
	})

	err := g.Wait()

	d.sessions.Wait()

	if cleanupErr := socketcoord.CleanupFiles(); cleanupErr != nil {
		logging.Warn(subsystem, "cleanup files: %v", cleanupErr)
	}

	if err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}
	return nil
}

// Shutdown requests a graceful stop from outside the accept loop (e.g. an
// RPC-style command on an existing session, or the "stop" CLI talking over
// a future control channel).
func (d *Daemon) Shutdown() {
	d.shutdownOnce.Do(func() { close(d.shutdownCh) })
}

func (d *Daemon) stopAccepting() {
	_ = d.listener.Close()
}

// acceptLoop selects among new connections, the idle timer (armed only
// while zero sessions are active), and loop cancellation (spec.md §4.11).
func (d *Daemon) acceptLoop(ctx context.Context, cancel context.CancelFunc) error {
	type acceptResult struct {
		conn net.Conn
		err  error
	}
	acceptCh := make(chan acceptResult)
	sessionEndedCh := make(chan struct{}, 1)

	go func() {
		for {
			conn, err := d.listener.Accept()
			acceptCh <- acceptResult{conn: conn, err: err}
			if err != nil {
				return
			}
		}
	}()

	var idleTimer *time.Timer
	var idleC <-chan time.Time
	d.rearmIdleTimer(&idleTimer, &idleC)
	if idleTimer != nil {
		defer idleTimer.Stop()
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-idleC:
			logging.Info(subsystem, "idle timeout exceeded with zero active sessions, shutting down")
			cancel()
			return nil

		case res := <-acceptCh:
			if res.err != nil {
				select {
				case <-ctx.Done():
					return nil
				default:
					return res.err
				}
			}
			d.handleConn(ctx, res.conn, sessionEndedCh)
			d.rearmIdleTimer(&idleTimer, &idleC)

		case <-sessionEndedCh:
			d.rearmIdleTimer(&idleTimer, &idleC)
		}
	}
}

func (d *Daemon) rearmIdleTimer(timer **time.Timer, c *<-chan time.Time) {
	if *timer != nil {
		(*timer).Stop()
	}
	if d.idleTimeout <= 0 || d.activeSessions.Load() > 0 {
		*c = nil
		return
	}
	*timer = time.NewTimer(d.idleTimeout)
	*c = (*timer).C
}

func (d *Daemon) handleConn(ctx context.Context, conn net.Conn, sessionEndedCh chan<- struct{}) {
	d.activeSessions.Add(1)
	d.sessions.Add(1)
	go func() {
		defer d.sessions.Done()
		defer func() { _ = conn.Close() }()
		defer func() {
			d.activeSessions.Add(-1)
			select {
			case sessionEndedCh <- struct{}{}:
			default:
			}
		}()
		d.handler(ctx, conn)
	}()
}

// ActiveSessions reports the current session count, primarily for status
// reporting and tests.
func (d *Daemon) ActiveSessions() int64 {
	return d.activeSessions.Load()
}
