package registry

import (
	"hash/fnv"
	"math"
)

// embedDimension is the fixed output size of the hashed-bag-of-words
// embedder. 256 is large enough to keep hash collisions rare up to about
// 10,000 tools while staying cheap to brute-force dot-product search.
const embedDimension = 256

// Embedder turns "name description" text into a fixed-dimension vector. The
// registry L2-normalises whatever it returns, so implementations need not
// normalise themselves (spec.md §4.5 "Semantic search").
//
// HashEmbedder is the only implementation in this repository: a
// dependency-free embedder that satisfies the contract without a model
// file. Config.Semantic.ModelPath only switches it on; no model-backed
// embedder exists and the path is never read.
type Embedder interface {
	Embed(text string) []float32
	Dimension() int
}

// HashEmbedder is a deterministic hashed n-gram bag-of-words embedder: each
// token's trigrams are hashed into a fixed-size accumulator, which is then
// L2-normalised. Two texts sharing more character trigrams score a higher
// cosine similarity, giving a crude but stable notion of lexical closeness
// usable as a semantic-search fallback.
type HashEmbedder struct {
	dim int
}

// NewHashEmbedder returns the default dependency-free embedder.
func NewHashEmbedder() *HashEmbedder {
	return &HashEmbedder{dim: embedDimension}
}

func (h *HashEmbedder) Dimension() int {
	return h.dim
}

func (h *HashEmbedder) Embed(text string) []float32 {
	vec := make([]float64, h.dim)
	for _, tok := range tokenize(text) {
		for _, gram := range trigrams(tok) {
			idx := hashTo(gram, h.dim)
			vec[idx]++
		}
	}
	return l2Normalize(vec, h.dim)
}

// trigrams returns the character trigrams of s, or s itself if it is
// shorter than 3 runes.
func trigrams(s string) []string {
	runes := []rune(s)
	if len(runes) < 3 {
		return []string{s}
	}
	grams := make([]string, 0, len(runes)-2)
	for i := 0; i+3 <= len(runes); i++ {
		grams = append(grams, string(runes[i:i+3]))
	}
	return grams
}

func hashTo(s string, dim int) int {
	h := fnv.New32a()
	h.Write([]byte(s))
	return int(h.Sum32()) % dim
}

func l2Normalize(vec []float64, dim int) []float32 {
	var sumSquares float64
	for _, v := range vec {
		sumSquares += v * v
	}
	out := make([]float32, dim)
	if sumSquares == 0 {
		return out
	}
	norm := math.Sqrt(sumSquares)
	for i, v := range vec {
		out[i] = float32(v / norm)
	}
	return out
}
