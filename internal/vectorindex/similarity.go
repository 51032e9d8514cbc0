/*-------------------------------------------------------------------------
 *
 * ETL Validation Assistant
 *
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

package vectorindex

import (
	"math"
	"sort"
)

// cosineSimilarity computes the cosine similarity between two vectors.
// Returns 0 for mismatched lengths or zero vectors.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// mmrSelect re-ranks the candidate chunks with maximal marginal
// relevance: score = lambda*relevance + (1-lambda)*diversity, where
// diversity is one minus the maximum similarity to anything already
// selected. Candidates arrive sorted by decreasing relevance.
func mmrSelect(order []int, scored []ScoredChunk, vectors [][]float32, k int, lambda float64) []int {
	if lambda < 0 {
		lambda = 0
	}
	if lambda > 1 {
		lambda = 1
	}
	if len(order) <= k {
		return order
	}

	// Normalize relevance into 0..1 against the best candidate.
	maxScore := scored[order[0]].Score
	if maxScore == 0 {
		maxScore = 1
	}

	remaining := append([]int(nil), order...)
	var selected []int

	for len(selected) < k && len(remaining) > 0 {
		bestPos := -1
		bestMMR := math.Inf(-1)

		for pos, ci := range remaining {
			relevance := scored[ci].Score / maxScore
			diversity := 1.0
			for _, si := range selected {
				sim := cosineSimilarity(vectors[ci], vectors[si])
				if d := 1.0 - sim; d < diversity {
					diversity = d
				}
			}
			mmr := lambda*relevance + (1.0-lambda)*diversity
			if mmr > bestMMR {
				bestMMR = mmr
				bestPos = pos
			}
		}

		if bestPos == -1 {
			break
		}
		selected = append(selected, remaining[bestPos])
		remaining = append(remaining[:bestPos], remaining[bestPos+1:]...)
	}

	// Final ordering is by decreasing relevance, ties kept stable.
	sort.SliceStable(selected, func(a, b int) bool {
		return scored[selected[a]].Score > scored[selected[b]].Score
	})
	return selected
}
