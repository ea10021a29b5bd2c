package socketcoord

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaths_EmbedNumericUID(t *testing.T) {
	sock, err := SocketPath()
	require.NoError(t, err)
	assert.Contains(t, filepath.Base(sock), fmt.Sprintf("%d", os.Getuid()))

	pidPath, err := PIDFilePath()
	require.NoError(t, err)
	assert.Contains(t, filepath.Base(pidPath), fmt.Sprintf("%d", os.Getuid()))

	lockPath, err := LockFilePath()
	require.NoError(t, err)
	assert.Contains(t, filepath.Base(lockPath), fmt.Sprintf("%d", os.Getuid()))
}

func TestPaths_AreDistinct(t *testing.T) {
	sock, _ := SocketPath()
	pidPath, _ := PIDFilePath()
	lockPath, _ := LockFilePath()
	assert.NotEqual(t, sock, pidPath)
	assert.NotEqual(t, sock, lockPath)
	assert.NotEqual(t, pidPath, lockPath)
}

func TestRuntimeDir_RespectsXDGWhenSet(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_RUNTIME_DIR", tmp)

	dir, err := RuntimeDir()
	require.NoError(t, err)
	assert.Equal(t, tmp, dir)
}

func TestRuntimeDir_FallsBackWithoutXDG(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", "")

	dir, err := RuntimeDir()
	require.NoError(t, err)
	assert.Contains(t, dir, fmt.Sprintf("%d", os.Getuid()))

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestCleanupFiles_RemovesSocketAndPIDButNotLock(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_RUNTIME_DIR", tmp)

	sock, _ := SocketPath()
	pidPath, _ := PIDFilePath()
	lockPath, _ := LockFilePath()

	for _, p := range []string{sock, pidPath, lockPath} {
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o600))
	}

	require.NoError(t, CleanupFiles())

	_, err := os.Stat(sock)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(pidPath)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(lockPath)
	assert.NoError(t, err) // lock file is never unlinked during normal operation
}

func TestCleanupFiles_MissingFilesAreNotAnError(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_RUNTIME_DIR", tmp)

	assert.NoError(t, CleanupFiles())
}
