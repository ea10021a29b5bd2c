package backend

import (
	"hash/fnv"
	"sync"
)

// shardCount follows spec.md §9's "shared, mutable backend map" design note
// ("a sharded concurrent map, lock-free reads, per-shard writer locks");
// implementers may substitute any structure with the same O(1)-average-read,
// bounded-contention guarantee. 32 shards is the corpus's usual choice for
// maps of this size (a few dozen to a few hundred backends, not millions).
const shardCount = 32

type recordShard struct {
	mu   sync.RWMutex
	data map[string]*backendRecord
}

// shardedRecords is a concurrent name -> backendRecord map. Reads take a
// per-shard read lock; writes take a per-shard write lock; no operation
// holds a lock across a suspension point (spec.md §9 "ordering guarantees").
type shardedRecords struct {
	shards [shardCount]*recordShard
}

func newShardedRecords() *shardedRecords {
	s := &shardedRecords{}
	for i := range s.shards {
		s.shards[i] = &recordShard{data: make(map[string]*backendRecord)}
	}
	return s
}

func (s *shardedRecords) shardFor(name string) *recordShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(name))
	return s.shards[h.Sum32()%shardCount]
}

func (s *shardedRecords) get(name string) (*backendRecord, bool) {
	shard := s.shardFor(name)
	shard.mu.RLock()
	defer shard.mu.RUnlock()
	r, ok := shard.data[name]
	return r, ok
}

func (s *shardedRecords) set(name string, r *backendRecord) {
	shard := s.shardFor(name)
	shard.mu.Lock()
	defer shard.mu.Unlock()
	shard.data[name] = r
}

func (s *shardedRecords) delete(name string) {
	shard := s.shardFor(name)
	shard.mu.Lock()
	defer shard.mu.Unlock()
	delete(shard.data, name)
}

// snapshot returns a stable copy of every record, used by list_backends and
// stop_all where the caller needs a consistent point-in-time view.
func (s *shardedRecords) snapshot() map[string]*backendRecord {
	out := make(map[string]*backendRecord)
	for _, shard := range s.shards {
		shard.mu.RLock()
		for k, v := range shard.data {
			out[k] = v
		}
		shard.mu.RUnlock()
	}
	return out
}
