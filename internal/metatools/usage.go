package metatools

import "sync"

// usageCounter tracks how many times each fully-qualified tool has been
// dispatched through call_tool_chain, so list_tools_meta can order its page
// by usage then name (spec.md §4.7). Neither registry.Registry nor
// backend.Engine has a notion of "how often was this called" — that is a
// display concern of the meta-tool surface, not the registry's indexing
// concern or the engine's dispatch concern, so it lives here instead of
// being bolted onto either.
type usageCounter struct {
	mu     sync.Mutex
	counts map[string]int64
}

func newUsageCounter() *usageCounter {
	return &usageCounter{counts: make(map[string]int64)}
}

func (u *usageCounter) record(fqn string) {
	u.mu.Lock()
	u.counts[fqn]++
	u.mu.Unlock()
}

func (u *usageCounter) get(fqn string) int64 {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.counts[fqn]
}
