package socketcoord

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsDaemonAlive_NoPIDFileIsNotAlive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.pid")
	alive, err := IsDaemonAlive(path)
	require.NoError(t, err)
	assert.False(t, alive)
}

func TestIsDaemonAlive_OwnProcessIsAlive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gatemini.pid")
	require.NoError(t, WritePIDFile(path))

	alive, err := IsDaemonAlive(path)
	require.NoError(t, err)
	assert.True(t, alive)
}

func TestIsDaemonAlive_ImpossiblePIDIsNotAlive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gatemini.pid")
	// PID 2^30 is never a real process on any system this runs on.
	require.NoError(t, os.WriteFile(path, []byte("1073741824"), 0o600))

	alive, err := IsDaemonAlive(path)
	require.NoError(t, err)
	assert.False(t, alive)
}
