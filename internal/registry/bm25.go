package registry

import (
	"math"
	"sort"
)

// bm25Params are the fixed tuning constants from spec.md §4.5.
const (
	bm25K1 = 1.2
	bm25B  = 0.75
)

// bm25Index is an in-memory inverted index supporting BM25 scoring. It is
// rebuilt from scratch on every registry mutation; the registry's document
// counts are small enough (up to roughly 10,000 tools) that this is cheaper
// than incremental maintenance.
type bm25Index struct {
	// postings maps a term to the set of fqns containing it and their term
	// frequency within that document.
	postings map[string]map[string]int

	docLen    map[string]int
	totalDocs int
	avgDocLen float64
}

// buildBM25Index constructs an index over the given entries.
func buildBM25Index(entries map[string]*Entry) *bm25Index {
	idx := &bm25Index{
		postings: make(map[string]map[string]int),
		docLen:   make(map[string]int),
	}

	var totalLen int
	for fqn, e := range entries {
		idx.docLen[fqn] = len(e.tokens)
		totalLen += len(e.tokens)

		seen := make(map[string]int, len(e.tokens))
		for _, tok := range e.tokens {
			seen[tok]++
		}
		for tok, tf := range seen {
			if idx.postings[tok] == nil {
				idx.postings[tok] = make(map[string]int)
			}
			idx.postings[tok][fqn] = tf
		}
	}

	idx.totalDocs = len(entries)
	if idx.totalDocs > 0 {
		idx.avgDocLen = float64(totalLen) / float64(idx.totalDocs)
	}
	return idx
}

// search scores query against the index and returns up to limit fqns sorted
// by descending BM25 score, ties broken by fqn ascending so callers can
// apply the name-ascending tiebreak spec.md §4.5 requires.
func (idx *bm25Index) search(query string, limit int) []scoredFQN {
	terms := tokenize(query)
	if len(terms) == 0 || idx.totalDocs == 0 {
		return nil
	}

	scores := make(map[string]float64)
	for _, term := range terms {
		posting, ok := idx.postings[term]
		if !ok {
			continue
		}
		df := len(posting)
		idf := math.Log((float64(idx.totalDocs-df)+0.5)/(float64(df)+0.5) + 1)

		for fqn, tf := range posting {
			dl := float64(idx.docLen[fqn])
			norm := bm25K1 * (1 - bm25B + bm25B*dl/idx.avgDocLen)
			termScore := idf * (float64(tf) * (bm25K1 + 1)) / (float64(tf) + norm)
			scores[fqn] += termScore
		}
	}

	return topNScored(scores, limit)
}

type scoredFQN struct {
	FQN   string
	Score float64
}

func topNScored(scores map[string]float64, limit int) []scoredFQN {
	results := make([]scoredFQN, 0, len(scores))
	for fqn, score := range scores {
		if score > 0 {
			results = append(results, scoredFQN{FQN: fqn, Score: score})
		}
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].FQN < results[j].FQN
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}
