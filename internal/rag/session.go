/*-------------------------------------------------------------------------
 *
 * ETL Validation Assistant
 *
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

// Package rag ties the pipeline together: profiling the configured
// databases into documents, building and loading the vector index, and
// answering questions with retrieval-augmented generation. All state
// lives on the Session; there are no package-level globals.
package rag

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"etlvalid/internal/chunker"
	"etlvalid/internal/config"
	"etlvalid/internal/database"
	"etlvalid/internal/document"
	"etlvalid/internal/embedding"
	"etlvalid/internal/errs"
	"etlvalid/internal/executor"
	"etlvalid/internal/llm"
	"etlvalid/internal/logging"
	"etlvalid/internal/profiler"
	"etlvalid/internal/scripts"
	"etlvalid/internal/sqlextract"
	"etlvalid/internal/vectorindex"
)

// Generator is the LLM contract the session needs.
type Generator interface {
	Generate(ctx context.Context, model, prompt string, params llm.ModelParams) (string, error)
}

// QueryResult is the outcome of one answered query.
type QueryResult struct {
	Question       string  `json:"question"`
	Answer         string  `json:"answer"`
	ModelUsed      string  `json:"model_used"`
	ProcessingTime float64 `json:"processing_time"`
	Error          string  `json:"error,omitempty"`
}

// Session holds one assistant's configuration, vector index, and
// results log.
type Session struct {
	mu sync.Mutex

	cfg      *config.Config
	provider embedding.Provider
	gen      Generator
	store    *scripts.Store

	index          *vectorindex.Index
	transformation []string
	results        []QueryResult
}

// NewSession wires a session from configuration.
func NewSession(cfg *config.Config) (*Session, error) {
	provider, err := embedding.NewProvider(embedding.Config{
		Provider:     cfg.Embedding.Provider,
		Model:        cfg.Embedding.Model,
		OllamaURL:    cfg.Embedding.OllamaURL,
		OpenAIAPIKey: cfg.Embedding.OpenAIAPIKey,
	})
	if err != nil {
		return nil, err
	}

	store, err := scripts.NewStore(cfg.Scripts.Dir)
	if err != nil {
		return nil, err
	}

	s := &Session{
		cfg:      cfg,
		provider: provider,
		gen:      llm.NewClient(cfg.LLM.OllamaURL, cfg.LLM.Timeout),
		store:    store,
	}

	if cfg.TransformationPath != "" {
		if err := s.LoadTransformation(cfg.TransformationPath); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Configure replaces the session's database endpoints. A nil target
// disables comparison retrieval.
func (s *Session) Configure(source config.DatabaseConfig, target *config.DatabaseConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.Source = source
	s.cfg.Target = target
}

// Scripts exposes the script store for the outer layers.
func (s *Session) Scripts() *scripts.Store {
	return s.store
}

// LoadTransformation reads a SQL file describing the ETL
// transformation and splits it into statements for indexing and prompt
// rendering.
func (s *Session) LoadTransformation(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errs.Wrap(errs.KindConfig,
			fmt.Sprintf("failed to read transformation logic from %s", path), err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transformation = sqlextract.SplitStatements(string(data))
	return nil
}

// TestConnection pings a database with the given configuration.
func (s *Session) TestConnection(ctx context.Context, cfg config.DatabaseConfig) error {
	conn, err := database.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer conn.Close()
	return conn.Ping(ctx)
}

// SaveScript extracts SQL from a generated answer and saves it under
// the given file name prefix. Returns the saved file name.
func (s *Session) SaveScript(answer, prefix string) (string, error) {
	return s.store.Save(prefix, sqlextract.ExtractSQL(answer))
}

// ExecuteScript runs a previously saved script against the source
// database, statement by statement.
func (s *Session) ExecuteScript(ctx context.Context, name string) (*executor.Report, error) {
	script, err := s.store.Read(name)
	if err != nil {
		return nil, err
	}
	conn, err := database.Open(ctx, s.cfg.Source)
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	return executor.Execute(ctx, conn, script), nil
}

// Results returns a copy of the in-memory results log.
func (s *Session) Results() []QueryResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]QueryResult, len(s.results))
	copy(out, s.results)
	return out
}

func (s *Session) recordResult(r QueryResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, r)
}

// BuildIndex profiles the configured databases, renders and chunks the
// documents, embeds them, and atomically replaces the persisted index.
// Concurrent builds against the same path are serialized; a failed
// build leaves any existing index untouched.
func (s *Session) BuildIndex(ctx context.Context) error {
	start := time.Now()

	docs, err := s.buildDocuments(ctx)
	if err != nil {
		return err
	}

	c := chunker.New(s.cfg.Index.ChunkSize, s.cfg.Index.ChunkOverlap)
	chunks := c.Chunk(docs)

	idx, err := vectorindex.Build(ctx, s.provider, chunks)
	if err != nil {
		return err
	}
	if err := idx.Persist(s.cfg.Index.Path); err != nil {
		return err
	}

	s.mu.Lock()
	s.index = idx
	s.mu.Unlock()

	logging.Info("embedding index built",
		"documents", len(docs), "chunks", len(chunks), "elapsed", time.Since(start))
	return nil
}

// LoadIndex loads a previously persisted index into the session.
func (s *Session) LoadIndex() error {
	idx, err := vectorindex.Load(s.cfg.Index.Path, s.provider)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.index = idx
	s.mu.Unlock()
	return nil
}

// buildDocuments profiles the configured databases and renders every
// indexable document. Per-table extraction failures are logged and
// skipped rather than aborting the build.
func (s *Session) buildDocuments(ctx context.Context) ([]document.Document, error) {
	var docs []document.Document

	sourceDocs, err := profileDatabase(ctx, s.cfg.Source, document.SideSource)
	if err != nil {
		return nil, err
	}
	docs = append(docs, sourceDocs...)

	if s.cfg.Target != nil {
		targetDocs, err := profileDatabase(ctx, *s.cfg.Target, document.SideTarget)
		if err != nil {
			return nil, err
		}
		docs = append(docs, targetDocs...)
	}

	docs = append(docs, document.DatabaseInfoDoc(s.cfg.Source, document.SideSource))
	if s.cfg.Target != nil {
		docs = append(docs, document.DatabaseInfoDoc(*s.cfg.Target, document.SideTarget))
	}

	if len(s.transformation) > 0 {
		docs = append(docs, document.TransformationDocs(s.transformation)...)
	}

	return docs, nil
}

func profileDatabase(ctx context.Context, cfg config.DatabaseConfig, side document.Side) ([]document.Document, error) {
	conn, err := database.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	p := profiler.New(conn)

	schema, err := p.ExtractSchema(ctx)
	if err != nil {
		return nil, err
	}
	profile, err := p.ExtractProfile(ctx)
	if err != nil {
		return nil, err
	}
	for _, te := range schema.Errors {
		logging.Warn("table skipped during schema extraction",
			"side", string(side), "table", te.Table, "error", te.Err)
	}
	for _, te := range profile.Errors {
		logging.Warn("table skipped during profiling",
			"side", string(side), "table", te.Table, "error", te.Err)
	}

	docs := document.SchemaDocs(schema, side)
	docs = append(docs, document.ProfileDocs(profile, side)...)
	return docs, nil
}
