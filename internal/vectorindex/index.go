/*-------------------------------------------------------------------------
 *
 * ETL Validation Assistant
 *
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

// Package vectorindex stores (embedding, chunk) pairs, persists them to
// a sqlite-backed index directory, and answers similarity queries with
// optional maximal-marginal-relevance re-ranking.
package vectorindex

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"etlvalid/internal/document"
	"etlvalid/internal/embedding"
	"etlvalid/internal/errs"
	"etlvalid/internal/logging"
)

// entry is one indexed chunk with its embedding.
type entry struct {
	vector []float32
	chunk  document.Document
}

// Index holds the in-memory vector index. An Index is safe for
// concurrent searches once built; builds are serialized per path by
// Persist and Load.
type Index struct {
	provider   embedding.Provider
	model      string
	dimensions int
	entries    []entry
}

// ScoredChunk is a search hit with its similarity score.
type ScoredChunk struct {
	Chunk document.Document
	Score float64
}

// SearchOptions controls retrieval behavior.
type SearchOptions struct {
	K              int     // results to return
	FetchK         int     // candidates considered before re-ranking
	Lambda         float64 // MMR balance: 1.0 relevance only, 0.0 diversity only
	ScoreThreshold float64 // minimum cosine similarity; 0 disables the cutoff
}

// DefaultSearchOptions matches the standard retrieval configuration.
func DefaultSearchOptions() SearchOptions {
	return SearchOptions{K: 3, FetchK: 6, Lambda: 0.5, ScoreThreshold: 0.7}
}

// Build embeds every chunk and returns a ready-to-query index. The
// first embedding fixes the index dimension; any later mismatch is a
// fatal configuration error.
func Build(ctx context.Context, provider embedding.Provider, chunks []document.Document) (*Index, error) {
	idx := &Index{provider: provider, model: provider.ModelName()}

	for i, chunk := range chunks {
		if chunk.Content == "" {
			continue
		}
		vec, err := provider.Embed(ctx, chunk.Content)
		if err != nil {
			return nil, errs.Wrap(errs.KindGeneration,
				fmt.Sprintf("embedding chunk %d failed", i), err)
		}
		if idx.dimensions == 0 {
			idx.dimensions = len(vec)
		} else if len(vec) != idx.dimensions {
			return nil, errs.New(errs.KindConfig,
				fmt.Sprintf("embedding dimension mismatch: index has %d, model %q returned %d",
					idx.dimensions, idx.model, len(vec)))
		}
		idx.entries = append(idx.entries, entry{vector: toFloat32(vec), chunk: chunk})
	}

	logging.Info("vector index built",
		"chunks", len(idx.entries), "dimensions", idx.dimensions, "model", idx.model)
	return idx, nil
}

// Len reports the number of indexed chunks.
func (idx *Index) Len() int {
	return len(idx.entries)
}

// Model returns the embedding model the index was built with.
func (idx *Index) Model() string {
	return idx.model
}

// Search embeds the query and returns up to opts.K chunks ordered by
// decreasing relevance. With Lambda < 1 the top opts.FetchK candidates
// are re-ranked for diversity before the final cut.
func (idx *Index) Search(ctx context.Context, query string, opts SearchOptions) ([]ScoredChunk, error) {
	if opts.K <= 0 {
		opts.K = 3
	}
	if opts.FetchK < opts.K {
		opts.FetchK = opts.K
	}

	qvec, err := idx.provider.Embed(ctx, query)
	if err != nil {
		return nil, errs.Wrap(errs.KindGeneration, "embedding query failed", err)
	}
	if idx.dimensions != 0 && len(qvec) != idx.dimensions {
		return nil, errs.New(errs.KindConfig,
			fmt.Sprintf("embedding dimension mismatch: index has %d, query embedding has %d",
				idx.dimensions, len(qvec)))
	}
	q := toFloat32(qvec)

	scored := make([]ScoredChunk, 0, len(idx.entries))
	vectors := make([][]float32, 0, len(idx.entries))
	for _, e := range idx.entries {
		score := cosineSimilarity(q, e.vector)
		if opts.ScoreThreshold > 0 && score < opts.ScoreThreshold {
			continue
		}
		scored = append(scored, ScoredChunk{Chunk: e.chunk, Score: score})
		vectors = append(vectors, e.vector)
	}

	order := make([]int, len(scored))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scored[order[a]].Score > scored[order[b]].Score
	})

	if len(order) > opts.FetchK {
		order = order[:opts.FetchK]
	}

	if opts.Lambda < 1.0 && len(order) > opts.K {
		order = mmrSelect(order, scored, vectors, opts.K, opts.Lambda)
	}
	if len(order) > opts.K {
		order = order[:opts.K]
	}

	results := make([]ScoredChunk, len(order))
	for i, oi := range order {
		results[i] = scored[oi]
	}
	return results, nil
}

func toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}

// buildLocks serializes builds and swaps per index path.
var (
	buildLocksMu sync.Mutex
	buildLocks   = map[string]*sync.Mutex{}
)

func pathLock(path string) *sync.Mutex {
	buildLocksMu.Lock()
	defer buildLocksMu.Unlock()
	if l, ok := buildLocks[path]; ok {
		return l
	}
	l := &sync.Mutex{}
	buildLocks[path] = l
	return l
}
