// Package registry stores the tool descriptors discovered from every
// backend and serves hybrid BM25 + optional semantic search over them
// (spec.md §4.5 "Tool registry and hybrid search").
package registry

import "encoding/json"

// ToolDescriptor is the unit of discovery: one tool exposed by one backend.
type ToolDescriptor struct {
	Name        string          `json:"name"`
	Backend     string          `json:"backend"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"input_schema"`
	Annotations map[string]any  `json:"annotations,omitempty"`
}

// FQN returns the tool's fully-qualified name, "backend.tool".
func (t ToolDescriptor) FQN() string {
	return t.Backend + "." + t.Name
}

// Entry is a ToolDescriptor plus its precomputed index representation.
type Entry struct {
	Tool ToolDescriptor

	// tokens is the effective document used for BM25: name tokens appear
	// twice (2x name boost) followed by description tokens.
	tokens []string

	// embedding is present only when semantic search is enabled; it is
	// unit-L2-normalised so dot product equals cosine similarity.
	embedding []float32
}

// SearchMode selects which retrievers search() fuses.
type SearchMode int

const (
	// ModeAuto uses semantic search when an embedder is configured, BM25
	// alone otherwise.
	ModeAuto SearchMode = iota
	ModeBM25Only
)

// Result is one ranked hit from search().
type Result struct {
	Tool  ToolDescriptor
	Score float64
}

// rrfCandidateCount is how many candidates each retriever contributes to
// reciprocal-rank fusion before the top `limit` is trimmed (spec.md §4.5).
const rrfCandidateCount = 30

// rrfK is the RRF constant (spec.md §4.5: score = 1/(K+rank)).
const rrfK = 60
