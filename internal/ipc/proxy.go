package ipc

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"os/exec"
	"syscall"
	"time"

	"gatemini/internal/socketcoord"
	"gatemini/pkg/logging"
)

const subsystem = "IPC"

// dialDeadline bounds a single connection attempt (spec.md §4.10 step 2).
const dialDeadline = 2 * time.Second

// spawnWaitBudget is the total time the proxy will wait for a freshly
// spawned (or someone else's in-flight) daemon to become dialable before
// giving up (spec.md §4.10 step 3, "exponential backoff ... 30 s total
// budget").
const spawnWaitBudget = 30 * time.Second

// RunProxy implements the default CLI mode: find or start the daemon, then
// bridge stdin/stdout to its socket until either side closes (spec.md
// §4.10). It never returns an error for "daemon already running" — that is
// the common case, not a failure.
func RunProxy(ctx context.Context, stdin io.Reader, stdout io.Writer) error {
	sockPath, err := socketcoord.SocketPath()
	if err != nil {
		return fmt.Errorf("ipc: resolve socket path: %w", err)
	}
	pidPath, err := socketcoord.PIDFilePath()
	if err != nil {
		return fmt.Errorf("ipc: resolve pid path: %w", err)
	}
	lockPath, err := socketcoord.LockFilePath()
	if err != nil {
		return fmt.Errorf("ipc: resolve lock path: %w", err)
	}

	if err := cleanupStaleSocket(sockPath, pidPath); err != nil {
		logging.Warn(subsystem, "stale socket cleanup: %v", err)
	}

	if conn, err := dial(sockPath); err == nil {
		logging.Debug(subsystem, "connected to running daemon at %s", sockPath)
		bridge(conn, stdin, stdout)
		return nil
	}

	lock, acquired, err := socketcoord.TryAcquireExclusiveLock(lockPath)
	if err != nil {
		return fmt.Errorf("ipc: acquire startup lock: %w", err)
	}

	if !acquired {
		// Someone else is already spawning; just wait for their daemon.
		logging.Debug(subsystem, "startup lock held by another proxy, waiting for daemon")
		conn, err := waitForDialable(ctx, sockPath)
		if err != nil {
			return err
		}
		bridge(conn, stdin, stdout)
		return nil
	}
	defer func() { _ = lock.Release() }()

	// Race protection: the previous holder may have finished starting a
	// daemon between our failed dial and acquiring the lock.
	if conn, err := dial(sockPath); err == nil {
		logging.Debug(subsystem, "daemon appeared while acquiring lock")
		bridge(conn, stdin, stdout)
		return nil
	}

	if err := spawnDaemon(); err != nil {
		return fmt.Errorf("ipc: spawn daemon: %w", err)
	}

	conn, err := waitForDialable(ctx, sockPath)
	if err != nil {
		return err
	}
	bridge(conn, stdin, stdout)
	return nil
}

// cleanupStaleSocket removes the socket file when its recorded PID is dead,
// so a crashed daemon doesn't leave behind an entry that makes every future
// proxy believe one is still listening (spec.md §4.10 step 1).
func cleanupStaleSocket(sockPath, pidPath string) error {
	if _, err := os.Stat(sockPath); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	alive, err := socketcoord.IsDaemonAlive(pidPath)
	if err != nil {
		return err
	}
	if alive {
		return nil
	}
	if err := os.Remove(sockPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove stale socket %s: %w", sockPath, err)
	}
	return nil
}

func dial(sockPath string) (net.Conn, error) {
	return net.DialTimeout("unix", sockPath, dialDeadline)
}

// spawnDaemon re-execs the current binary with the "serve" subcommand as a
// detached child: null stdin/stdout so it never inherits the proxy's pipes,
// inherited stderr so early startup failures are still visible to whoever
// is watching this terminal, and its own process group so it outlives the
// proxy (spec.md §4.10 step 3).
func spawnDaemon() error {
	self, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve own executable: %w", err)
	}

	cmd := exec.Command(self, "serve")
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = os.Stderr
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	devNull, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	if err == nil {
		cmd.Stdin = devNull
		cmd.Stdout = devNull
	}

	if err := cmd.Start(); err != nil {
		return err
	}
	// The daemon runs in its own process group; the proxy does not block on
	// it and must not leave it as a zombie once it exits unsupervised.
	go func() { _ = cmd.Wait() }()
	return nil
}

// waitForDialable polls the socket with exponential backoff (50 ms → 1 s)
// until it accepts a connection or the total budget is exhausted.
func waitForDialable(ctx context.Context, sockPath string) (net.Conn, error) {
	deadline := time.Now().Add(spawnWaitBudget)
	backoff := 50 * time.Millisecond
	const maxBackoff = 1 * time.Second

	for {
		if conn, err := dial(sockPath); err == nil {
			return conn, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("ipc: daemon did not become reachable within %s", spawnWaitBudget)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}
