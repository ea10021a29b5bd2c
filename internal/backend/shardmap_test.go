package backend

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShardedRecords_SetGetDelete(t *testing.T) {
	s := newShardedRecords()

	rec := &backendRecord{cfg: nil}
	s.set("a", rec)

	got, ok := s.get("a")
	assert.True(t, ok)
	assert.Same(t, rec, got)

	s.delete("a")
	_, ok = s.get("a")
	assert.False(t, ok)
}

func TestShardedRecords_SnapshotIsStable(t *testing.T) {
	s := newShardedRecords()
	for i := 0; i < 50; i++ {
		s.set(fmt.Sprintf("backend-%d", i), &backendRecord{})
	}

	snap := s.snapshot()
	assert.Len(t, snap, 50)
}

func TestShardedRecords_ConcurrentAccess(t *testing.T) {
	s := newShardedRecords()
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			name := fmt.Sprintf("b-%d", i%10)
			s.set(name, &backendRecord{})
			_, _ = s.get(name)
		}()
	}
	wg.Wait()
}
