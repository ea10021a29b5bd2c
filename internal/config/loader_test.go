package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfigYAML = `
log_level: debug
max_dynamic_backends: 5
backends:
  time:
    command: time-server
    args: ["--utc"]
    timeout: 10s
`

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_AppliesDefaultsAndParses(t *testing.T) {
	path := writeTempConfig(t, sampleConfigYAML)

	c, err := Load(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, "debug", c.LogLevel)
	assert.Equal(t, DefaultHealthInterval, c.Health.Interval)
	assert.Len(t, c.Backends, 1)
	assert.Equal(t, "time", c.Backends["time"].Name)
	assert.Equal(t, TransportStdio, c.Backends["time"].Transport)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(context.Background(), filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeTempConfig(t, "backends: [this is not a map]")
	_, err := Load(context.Background(), path)
	assert.Error(t, err)
}

func TestLoad_ValidationFailureReturnsCollection(t *testing.T) {
	path := writeTempConfig(t, `
backends:
  bad:
    timeout: 5s
`)
	_, err := Load(context.Background(), path)
	require.Error(t, err)

	var collection *ConfigurationErrorCollection
	require.ErrorAs(t, err, &collection)
	assert.True(t, collection.HasErrors())
}
