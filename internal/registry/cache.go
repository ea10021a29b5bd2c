package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gatemini/pkg/logging"
)

// CacheVersion is the current cache record schema version (spec.md §3
// "Cache record (v2)").
const CacheVersion = 2

// CacheRecord is the durable sidecar format: last-known tools and
// embeddings per backend, for warm start before backends finish their own
// discovery handshake.
type CacheRecord struct {
	Version    int                           `json:"version"`
	Backends   map[string][]ToolDescriptor   `json:"backends"`
	Embeddings map[string][]float32          `json:"embeddings,omitempty"`
}

// CachePath returns the sidecar path for a given config file path: the same
// directory, with a ".cache.json" suffix replacing the config's extension.
func CachePath(configPath string) string {
	ext := filepath.Ext(configPath)
	base := configPath[:len(configPath)-len(ext)]
	return base + ".cache.json"
}

// LoadCache reads and decodes the cache at path. A missing file is not an
// error — it returns an empty record so a first run proceeds normally.
func LoadCache(path string) (*CacheRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &CacheRecord{Version: CacheVersion, Backends: map[string][]ToolDescriptor{}}, nil
		}
		return nil, fmt.Errorf("read tool cache %s: %w", path, err)
	}

	var rec CacheRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parse tool cache %s: %w", path, err)
	}
	if rec.Backends == nil {
		rec.Backends = map[string][]ToolDescriptor{}
	}
	return &rec, nil
}

// SaveCache writes rec to path via a sibling temp file followed by an
// atomic rename, so concurrent readers never observe a partially-written
// cache (spec.md §3 "Cache record (v2)").
func SaveCache(path string, rec *CacheRecord) error {
	rec.Version = CacheVersion

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal tool cache: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write tool cache temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename tool cache into place: %w", err)
	}
	return nil
}

// LoadInto seeds r with every backend's tools recorded in rec. It does not
// read rec.Embeddings: when r has an embedder, UpsertBackendTools embeds
// each cached tool again as it is inserted.
func LoadInto(r *Registry, rec *CacheRecord) {
	for backend, tools := range rec.Backends {
		r.UpsertBackendTools(backend, tools)
	}
	logging.Info("Registry-Cache", "warm-started %d backends from cache", len(rec.Backends))
}

// Snapshot builds a CacheRecord from the registry's current contents, ready
// to be passed to SaveCache.
func (r *Registry) Snapshot() *CacheRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec := &CacheRecord{
		Version:    CacheVersion,
		Backends:   make(map[string][]ToolDescriptor),
		Embeddings: make(map[string][]float32),
	}
	for fqn, e := range r.entries {
		rec.Backends[e.Tool.Backend] = append(rec.Backends[e.Tool.Backend], e.Tool)
		if len(e.embedding) > 0 {
			rec.Embeddings[fqn] = e.embedding
		}
	}
	return rec
}
