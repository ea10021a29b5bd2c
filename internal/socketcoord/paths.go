// Package socketcoord resolves the per-user filesystem coordinates the proxy
// and daemon agree on (socket, PID file, lock file) and the primitives built
// on top of them: a liveness probe and a non-blocking exclusive lock
// (spec.md §4.1 "Socket coordination").
//
// At most one daemon per user per host may own the socket path. Every path
// this package hands out embeds the caller's numeric user id so two users
// sharing a host (or a shared /tmp) never collide.
package socketcoord

import (
	"fmt"
	"os"
	"path/filepath"
)

const appName = "gatemini"

// RuntimeDir returns the directory gatemini's coordination files live under:
// $XDG_RUNTIME_DIR when set, otherwise a gatemini subdirectory of
// the shared temp directory. The directory is created if missing.
func RuntimeDir() (string, error) {
	dir := os.Getenv("XDG_RUNTIME_DIR")
	if dir == "" {
		dir = filepath.Join(os.TempDir(), fmt.Sprintf("%s-%d", appName, os.Getuid()))
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("socketcoord: runtime dir %s: %w", dir, err)
	}
	return dir, nil
}

// SocketPath returns the path of the Unix domain socket the daemon listens
// on and the proxy dials.
func SocketPath() (string, error) {
	return userPath(fmt.Sprintf("%s-%d.sock", appName, os.Getuid()))
}

// PIDFilePath returns the path of the file holding the winning daemon's PID.
func PIDFilePath() (string, error) {
	return userPath(fmt.Sprintf("%s-%d.pid", appName, os.Getuid()))
}

// LockFilePath returns the path of the advisory lock file that arbitrates
// which daemon process wins startup. Unlike the socket and PID file, this
// file is never unlinked during normal operation — it is the coordination
// primitive itself, and deleting it while another process holds it open
// would let a second daemon acquire a lock on a new inode while the first
// still believes it holds the original one.
func LockFilePath() (string, error) {
	return userPath(fmt.Sprintf("%s-%d.lock", appName, os.Getuid()))
}

func userPath(name string) (string, error) {
	dir, err := RuntimeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

// CleanupFiles removes the socket and PID file, e.g. as the last step of a
// daemon's graceful shutdown. The lock file is deliberately left in place.
func CleanupFiles() error {
	sock, err := SocketPath()
	if err != nil {
		return err
	}
	pidPath, err := PIDFilePath()
	if err != nil {
		return err
	}
	for _, p := range []string{sock, pidPath} {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("socketcoord: removing %s: %w", p, err)
		}
	}
	return nil
}
