package socketcoord

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteReadPIDFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gatemini.pid")
	require.NoError(t, WritePIDFile(path))

	pid, err := ReadPIDFile(path)
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), pid)
}

func TestReadPIDFile_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.pid")
	_, err := ReadPIDFile(path)
	assert.True(t, os.IsNotExist(err))
}

func TestReadPIDFile_MalformedContentErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gatemini.pid")
	require.NoError(t, os.WriteFile(path, []byte("not-a-pid"), 0o600))

	_, err := ReadPIDFile(path)
	assert.Error(t, err)
}
