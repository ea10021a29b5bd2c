package registry

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCachePath(t *testing.T) {
	assert.Equal(t, "/etc/gatemini/config.cache.json", CachePath("/etc/gatemini/config.yaml"))
}

func TestLoadCache_MissingFileReturnsEmptyRecord(t *testing.T) {
	rec, err := LoadCache(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	assert.Equal(t, CacheVersion, rec.Version)
	assert.Empty(t, rec.Backends)
}

func TestSaveThenLoadCache_RoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.cache.json")

	r := New()
	r.UpsertBackendTools("b", []ToolDescriptor{
		{Name: "one", Description: "first tool"},
		{Name: "two", Description: "second tool"},
	})

	require.NoError(t, SaveCache(path, r.Snapshot()))

	loaded, err := LoadCache(path)
	require.NoError(t, err)
	assert.Equal(t, CacheVersion, loaded.Version)
	assert.Len(t, loaded.Backends["b"], 2)

	resaved := filepath.Join(t.TempDir(), "resaved.json")
	require.NoError(t, SaveCache(resaved, loaded))
	reloaded, err := LoadCache(resaved)
	require.NoError(t, err)
	assert.Equal(t, loaded.Backends, reloaded.Backends)
}

func TestLoadInto_WarmStartsRegistry(t *testing.T) {
	rec := &CacheRecord{
		Version: CacheVersion,
		Backends: map[string][]ToolDescriptor{
			"b": {{Name: "cached_tool", Description: "from cache", Backend: "b"}},
		},
	}

	r := New()
	LoadInto(r, rec)

	tool, err := r.Get("b.cached_tool")
	require.NoError(t, err)
	assert.Equal(t, "cached_tool", tool.Name)
}
