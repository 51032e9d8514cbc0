/*-------------------------------------------------------------------------
 *
 * ETL Validation Assistant
 *
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

package embedding

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"etlvalid/internal/errs"
	"etlvalid/internal/logging"
)

// OllamaHTTPTimeout bounds one embedding request. Ollama may need time
// to load a model on first use.
const OllamaHTTPTimeout = 60 * time.Second

// knownOllamaDimensions seeds the dimension for common models; unknown
// models have their dimension discovered from the first embedding.
var knownOllamaDimensions = map[string]int{
	"nomic-embed-text":  768,
	"mxbai-embed-large": 1024,
	"all-minilm":        384,
	"all-minilm:latest": 384,
}

// OllamaProvider generates embeddings through a local Ollama server.
type OllamaProvider struct {
	baseURL string
	model   string
	client  *http.Client

	mu   sync.Mutex
	dims int
}

type ollamaEmbedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

// The embed endpoint returns one vector per input text.
type ollamaEmbedResponse struct {
	Embeddings [][]float64 `json:"embeddings"`
}

// NewOllamaProvider creates an Ollama embedding provider. Any model
// name is accepted.
func NewOllamaProvider(baseURL, model string) (*OllamaProvider, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "nomic-embed-text"
	}

	logging.Debug("embedding provider initialized",
		"provider", "ollama", "model", model, "base_url", baseURL)

	return &OllamaProvider{
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{Timeout: OllamaHTTPTimeout},
		dims:    knownOllamaDimensions[model],
	}, nil
}

func (p *OllamaProvider) Embed(ctx context.Context, text string) ([]float64, error) {
	if text == "" {
		return nil, errs.New(errs.KindGeneration, "cannot embed empty text")
	}

	var out ollamaEmbedResponse
	err := postJSON(ctx, p.client, p.baseURL+"/api/embed", "",
		ollamaEmbedRequest{Model: p.model, Input: text}, &out)
	if err != nil {
		if errs.IsConnection(err) {
			return nil, errs.Wrap(errs.KindConnection,
				fmt.Sprintf("cannot reach Ollama at %s (is it running?)", p.baseURL), err)
		}
		return nil, err
	}
	if len(out.Embeddings) == 0 || len(out.Embeddings[0]) == 0 {
		return nil, errs.New(errs.KindGeneration,
			fmt.Sprintf("Ollama returned no embedding (try 'ollama pull %s')", p.model))
	}

	vec := out.Embeddings[0]
	p.mu.Lock()
	if p.dims == 0 {
		p.dims = len(vec)
	}
	p.mu.Unlock()
	return vec, nil
}

// Dimensions reports the model's vector size, or 0 for an unknown
// model that has not embedded anything yet.
func (p *OllamaProvider) Dimensions() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dims
}

func (p *OllamaProvider) ModelName() string { return p.model }

func (p *OllamaProvider) ProviderName() string { return "ollama" }
