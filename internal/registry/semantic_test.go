package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReciprocalRankFusion_Monotone(t *testing.T) {
	// Tool "x" ranked 3rd in list A, absent from list B.
	baseA := []scoredFQN{{FQN: "a"}, {FQN: "b"}, {FQN: "x"}}
	baseB := []scoredFQN{{FQN: "c"}, {FQN: "d"}}

	before := reciprocalRankFusion(baseA, baseB)
	scoreBefore := scoreOf(before, "x")

	// Improve x's rank in list A (now 1st) without changing anything else.
	improvedA := []scoredFQN{{FQN: "x"}, {FQN: "a"}, {FQN: "b"}}
	after := reciprocalRankFusion(improvedA, baseB)
	scoreAfter := scoreOf(after, "x")

	require.True(t, scoreAfter >= scoreBefore, "improving rank in one retriever must not decrease fused score")
}

func scoreOf(results []scoredFQN, fqn string) float64 {
	for _, r := range results {
		if r.FQN == fqn {
			return r.Score
		}
	}
	return 0
}

func TestCosineSearch_SkipsEntriesWithoutEmbedding(t *testing.T) {
	entries := map[string]*Entry{
		"a.tool": {Tool: ToolDescriptor{Name: "tool", Backend: "a"}, embedding: []float32{1, 0, 0}},
		"b.tool": {Tool: ToolDescriptor{Name: "tool", Backend: "b"}}, // no embedding
	}

	results := cosineSearch(entries, []float32{1, 0, 0}, 10)
	assert.Len(t, results, 1)
	assert.Equal(t, "a.tool", results[0].FQN)
}

func TestRegistry_SemanticSearchFusesWithBM25(t *testing.T) {
	r := New(WithEmbedder(NewHashEmbedder()))
	r.UpsertBackendTools("exa", []ToolDescriptor{
		{Name: "web_search", Description: "search the web using a neural engine"},
	})
	r.UpsertBackendTools("other", []ToolDescriptor{
		{Name: "unrelated", Description: "compiles rust source code"},
	})

	results := r.Search("search the web", 5, ModeAuto)
	require.NotEmpty(t, results)
	assert.Equal(t, "web_search", results[0].Tool.Name)
}
