package registry

import (
	"encoding/base64"
	"errors"
	"sort"
	"sync"

	"gatemini/pkg/logging"
)

// ErrNotFound is returned by Get when no tool exists under the given name.
var ErrNotFound = errors.New("tool not found")

// ErrAmbiguous is returned by Get when a bare (non-qualified) tool name
// matches more than one backend.
var ErrAmbiguous = errors.New("ambiguous tool name")

// Registry stores every backend's tools and serves hybrid search over them.
// Reads (search, get, list) take a read lock; mutations (upsert, remove)
// rebuild the BM25 index under a write lock. Search holds the read lock for
// its whole run, so a mutation waits for searches in progress and a search
// waits for a rebuild in progress.
type Registry struct {
	mu       sync.RWMutex
	entries  map[string]*Entry // fqn -> entry
	byName   map[string][]string // bare tool name -> fqns, for ambiguity detection
	bm25     *bm25Index
	embedder Embedder // nil disables semantic search

	onMutate func() // invoked after every upsert/remove, outside the lock
}

// Option configures a new Registry.
type Option func(*Registry)

// WithEmbedder enables semantic search using the given embedder.
func WithEmbedder(e Embedder) Option {
	return func(r *Registry) { r.embedder = e }
}

// WithMutationHook registers a callback invoked after every mutation (used
// by the tool cache to debounce writes and by the session server to emit
// tools/list_changed notifications).
func WithMutationHook(fn func()) Option {
	return func(r *Registry) { r.onMutate = fn }
}

// New returns an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		entries: make(map[string]*Entry),
		byName:  make(map[string][]string),
		bm25:    buildBM25Index(nil),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// UpsertBackendTools replaces every tool currently attributed to backend
// with tools. A tool appears under exactly one backend at any instant
// (spec.md §3 invariant), so this call first removes backend's previous
// entries before inserting the new set.
func (r *Registry) UpsertBackendTools(backend string, tools []ToolDescriptor) {
	r.mu.Lock()
	r.removeBackendLocked(backend)
	for _, t := range tools {
		t.Backend = backend
		e := &Entry{Tool: t, tokens: buildDocument(t)}
		if r.embedder != nil {
			e.embedding = r.embedder.Embed(t.Name + " " + t.Description)
		}
		r.entries[t.FQN()] = e
		r.byName[t.Name] = append(r.byName[t.Name], t.FQN())
	}
	r.bm25 = buildBM25Index(r.entries)
	r.mu.Unlock()

	logging.Info("Registry", "indexed %d tools for backend %s", len(tools), backend)
	r.notifyMutation()
}

// RemoveBackend deletes every tool attributed to backend.
func (r *Registry) RemoveBackend(backend string) {
	r.mu.Lock()
	removed := r.removeBackendLocked(backend)
	r.bm25 = buildBM25Index(r.entries)
	r.mu.Unlock()

	if removed > 0 {
		logging.Info("Registry", "removed %d tools for backend %s", removed, backend)
		r.notifyMutation()
	}
}

func (r *Registry) removeBackendLocked(backend string) int {
	removed := 0
	for fqn, e := range r.entries {
		if e.Tool.Backend != backend {
			continue
		}
		delete(r.entries, fqn)
		r.byName[e.Tool.Name] = removeString(r.byName[e.Tool.Name], fqn)
		if len(r.byName[e.Tool.Name]) == 0 {
			delete(r.byName, e.Tool.Name)
		}
		removed++
	}
	return removed
}

func removeString(ss []string, target string) []string {
	out := ss[:0]
	for _, s := range ss {
		if s != target {
			out = append(out, s)
		}
	}
	return out
}

func (r *Registry) notifyMutation() {
	if r.onMutate != nil {
		r.onMutate()
	}
}

// Get resolves name to a ToolDescriptor. name may be fully-qualified
// ("backend.tool") or bare ("tool"), provided the bare form is unambiguous.
func (r *Registry) Get(name string) (ToolDescriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if e, ok := r.entries[name]; ok {
		return e.Tool, nil
	}
	if fqns, ok := r.byName[name]; ok {
		switch len(fqns) {
		case 1:
			return r.entries[fqns[0]].Tool, nil
		default:
			return ToolDescriptor{}, ErrAmbiguous
		}
	}
	return ToolDescriptor{}, ErrNotFound
}

// Search runs BM25 (and, if mode and an embedder allow it, semantic cosine
// search fused via RRF) over query and returns up to limit results ordered
// by descending fused score (spec.md §4.5 "search(query, limit, mode)").
func (r *Registry) Search(query string, limit int, mode SearchMode) []Result {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fuse := mode != ModeBM25Only && r.embedder != nil && len(r.entries) > 0

	// rrfCandidateCount is only the right candidate-pool size when a second
	// retriever's ranks still need fusing; with nothing to fuse against, the
	// caller's own limit is the candidate count, so a BM25-only search of
	// limit > rrfCandidateCount isn't silently truncated below what it asked
	// for.
	bm25Candidates := rrfCandidateCount
	if !fuse && limit > 0 {
		bm25Candidates = limit
	}
	bm25Results := r.bm25.search(query, bm25Candidates)

	var fused []scoredFQN
	if fuse {
		queryVec := r.embedder.Embed(query)
		semanticResults := cosineSearch(r.entries, queryVec, rrfCandidateCount)
		fused = reciprocalRankFusion(bm25Results, semanticResults)
	} else {
		fused = bm25Results
	}

	if limit > 0 && len(fused) > limit {
		fused = fused[:limit]
	}

	results := make([]Result, 0, len(fused))
	for _, sf := range fused {
		results = append(results, Result{Tool: r.entries[sf.FQN].Tool, Score: sf.Score})
	}
	return results
}

// ListNames returns a page of tool names ordered by backend then name,
// continuing from cursor (an opaque token returned in the previous page's
// next_cursor).
func (r *Registry) ListNames(cursor string, pageSize int) (names []string, nextCursor string) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]string, 0, len(r.entries))
	for fqn := range r.entries {
		all = append(all, fqn)
	}
	sort.Strings(all)

	start := 0
	if cursor != "" {
		if decoded, err := decodeCursor(cursor); err == nil {
			for i, fqn := range all {
				if fqn > decoded {
					start = i
					break
				}
				start = i + 1
			}
		}
	}

	if pageSize <= 0 {
		pageSize = 50
	}
	end := start + pageSize
	if end > len(all) {
		end = len(all)
	}
	if start > len(all) {
		start = len(all)
	}

	page := all[start:end]
	if end < len(all) {
		nextCursor = encodeCursor(page[len(page)-1])
	}
	return page, nextCursor
}

func encodeCursor(last string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(last))
}

func decodeCursor(cursor string) (string, error) {
	b, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Len returns the total number of indexed tools, for the backend_status
// prompt and tests.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// All returns every indexed tool, unordered. Callers that need a stable
// order (e.g. the all-tools-index resource, list_tools_meta) sort the
// result themselves.
func (r *Registry) All() []ToolDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ToolDescriptor, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.Tool)
	}
	return out
}

