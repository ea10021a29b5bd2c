package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"web", "search", "exa"}, tokenize("web_search-exa"))
	assert.Equal(t, []string{"hello", "world"}, tokenize("Hello, World!"))
	assert.Empty(t, tokenize(""))
	assert.Empty(t, tokenize("___"))
}

func TestBuildDocument_NameBoost(t *testing.T) {
	doc := buildDocument(ToolDescriptor{Name: "search_tools", Description: "find things"})

	nameCount := 0
	for _, tok := range doc {
		if tok == "search" || tok == "tools" {
			nameCount++
		}
	}
	assert.Equal(t, 4, nameCount, "name tokens appear twice each (2x boost)")
	assert.Contains(t, doc, "find")
}
