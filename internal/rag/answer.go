/*-------------------------------------------------------------------------
 *
 * ETL Validation Assistant
 *
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

package rag

import (
	"context"
	"strings"
	"time"

	"etlvalid/internal/document"
	"etlvalid/internal/errs"
	"etlvalid/internal/logging"
	"etlvalid/internal/prompts"
	"etlvalid/internal/router"
	"etlvalid/internal/vectorindex"
)

const (
	// perSideChunks caps each side's context in comparison retrieval.
	perSideChunks = 3
	// comparisonFetch is how many candidates comparison retrieval pulls
	// before partitioning by provenance.
	comparisonFetch = 6
)

// AnswerQuery classifies the query, retrieves context, renders the
// intent's prompt, and invokes the LLM. The result, failed or not, is
// appended to the session's results log.
func (s *Session) AnswerQuery(ctx context.Context, query string) (QueryResult, error) {
	start := time.Now()

	result, err := s.answer(ctx, query)
	result.Question = query
	result.ProcessingTime = time.Since(start).Seconds()
	if err != nil {
		result.Error = err.Error()
	}
	s.recordResult(result)
	return result, err
}

func (s *Session) answer(ctx context.Context, query string) (QueryResult, error) {
	s.mu.Lock()
	idx := s.index
	targetConfigured := s.cfg.Target != nil
	sourceDB := s.cfg.Source.Database
	targetDB := ""
	if targetConfigured {
		targetDB = s.cfg.Target.Database
	}
	transformation := strings.Join(s.transformation, ";\n")
	modelOverride := s.cfg.LLM.DefaultModel
	s.mu.Unlock()

	if idx == nil {
		return QueryResult{}, errs.New(errs.KindIndexNotReady,
			"no vector index loaded (create embeddings first)")
	}

	intent := router.Classify(query)
	model, params := router.SelectModel(query)
	if modelOverride != "" {
		model = modelOverride
	}
	logging.Debug("query routed", "intent", string(intent), "model", model)

	data := prompts.Data{
		SourceDB:            sourceDB,
		TargetDB:            targetDB,
		TransformationLogic: transformation,
		Question:            query,
	}

	if intent == router.IntentComparison && targetConfigured {
		hits, err := idx.Search(ctx, query, vectorindex.SearchOptions{
			K:      comparisonFetch,
			FetchK: comparisonFetch * 2,
			Lambda: 1.0,
		})
		if err != nil {
			return QueryResult{}, err
		}
		data.SourceContext, data.TargetContext = partitionBySide(hits)
	} else {
		hits, err := idx.Search(ctx, query, vectorindex.DefaultSearchOptions())
		if err != nil {
			return QueryResult{}, err
		}
		data.Context = joinChunks(hits)
	}

	prompt, err := prompts.Render(intent, data)
	if err != nil {
		return QueryResult{}, err
	}

	answer, err := s.gen.Generate(ctx, model, prompt, params)
	if err != nil {
		return QueryResult{ModelUsed: model}, err
	}

	return QueryResult{Answer: answer, ModelUsed: model}, nil
}

// partitionBySide splits retrieved chunks by their provenance tag and
// joins up to perSideChunks of each side. A chunk never leaks into the
// other side's context.
func partitionBySide(hits []vectorindex.ScoredChunk) (source, target string) {
	var src, tgt []string
	for _, h := range hits {
		switch document.Side(h.Chunk.Metadata[document.MetaSource]) {
		case document.SideSource:
			if len(src) < perSideChunks {
				src = append(src, h.Chunk.Content)
			}
		case document.SideTarget:
			if len(tgt) < perSideChunks {
				tgt = append(tgt, h.Chunk.Content)
			}
		}
	}
	return strings.Join(src, "\n\n"), strings.Join(tgt, "\n\n")
}

func joinChunks(hits []vectorindex.ScoredChunk) string {
	parts := make([]string, len(hits))
	for i, h := range hits {
		parts[i] = h.Chunk.Content
	}
	return strings.Join(parts, "\n\n")
}
