package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	return New()
}

func TestBM25_NameBoostOutranksDescriptionOnlyMatch(t *testing.T) {
	r := newTestRegistry(t)
	r.UpsertBackendTools("exa", []ToolDescriptor{
		{Name: "web_search", Description: "queries the exa engine"},
	})
	r.UpsertBackendTools("other", []ToolDescriptor{
		{Name: "unrelated_tool", Description: "mentions web search only in passing here"},
	})

	results := r.Search("web search", 10, ModeAuto)
	require.NotEmpty(t, results)
	assert.Equal(t, "web_search", results[0].Tool.Name,
		"a tool whose name matches the query must outrank one that only matches in its description")
}

func TestBM25_SearchIsPrefixStableUnderLargerLimit(t *testing.T) {
	r := newTestRegistry(t)
	var tools []ToolDescriptor
	for i := 0; i < 20; i++ {
		tools = append(tools, ToolDescriptor{
			Name:        "tool_search_item",
			Description: "search related tool",
		})
	}
	// Distinguish names so fqns differ.
	for i := range tools {
		tools[i].Name = tools[i].Name + string(rune('a'+i))
	}
	r.UpsertBackendTools("b", tools)

	small := r.Search("search", 5, ModeAuto)
	larger := r.Search("search", 10, ModeAuto)

	require.True(t, len(small) <= len(larger))
	for i, res := range small {
		assert.Equal(t, res.Tool.FQN(), larger[i].Tool.FQN())
	}
}

func TestBM25_NoMatchesReturnsEmpty(t *testing.T) {
	r := newTestRegistry(t)
	r.UpsertBackendTools("b", []ToolDescriptor{{Name: "alpha", Description: "beta"}})

	results := r.Search("zzzznomatch", 10, ModeAuto)
	assert.Empty(t, results)
}
