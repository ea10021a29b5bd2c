package registry

// cosineSearch brute-force dot-products the query embedding against every
// entry's embedding (already unit-normalised, so dot product is cosine
// similarity) and returns the top `limit` fqns descending by score.
//
// Brute force is adequate up to roughly 10,000 tools; beyond that an
// approximate index becomes necessary (spec.md §4.5), which this
// implementation does not attempt.
func cosineSearch(entries map[string]*Entry, queryVec []float32, limit int) []scoredFQN {
	scores := make(map[string]float64, len(entries))
	for fqn, e := range entries {
		if len(e.embedding) == 0 {
			continue
		}
		scores[fqn] = float64(dot(queryVec, e.embedding))
	}
	return topNScored(scores, limit)
}

func dot(a, b []float32) float32 {
	var sum float32
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}

// reciprocalRankFusion fuses multiple ranked candidate lists into one, using
// RRF: score(tool) = Σ 1/(K + rank) across every retriever that returned it
// (spec.md §4.5). rank is 1-based. Tools absent from a retriever's list
// contribute nothing from that retriever.
func reciprocalRankFusion(lists ...[]scoredFQN) []scoredFQN {
	fused := make(map[string]float64)
	for _, list := range lists {
		for rank, item := range list {
			fused[item.FQN] += 1.0 / float64(rrfK+rank+1)
		}
	}
	return topNScored(fused, 0)
}
