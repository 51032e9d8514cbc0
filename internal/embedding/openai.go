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
	"time"

	"etlvalid/internal/errs"
	"etlvalid/internal/logging"
)

// OpenAIHTTPTimeout bounds one OpenAI embedding request.
const OpenAIHTTPTimeout = 30 * time.Second

// openaiDimensions lists the supported models; unlike Ollama the set
// is fixed, so an unknown model is rejected at construction.
var openaiDimensions = map[string]int{
	"text-embedding-3-large": 3072,
	"text-embedding-3-small": 1536,
	"text-embedding-ada-002": 1536,
}

// OpenAIProvider generates embeddings through the OpenAI API.
type OpenAIProvider struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

type openaiEmbedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type openaiEmbedResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
}

// NewOpenAIProvider creates an OpenAI embedding provider.
func NewOpenAIProvider(apiKey, model string) (*OpenAIProvider, error) {
	if apiKey == "" {
		return nil, errs.New(errs.KindConfig, "OpenAI API key cannot be empty")
	}
	if model == "" {
		model = "text-embedding-3-small"
	}
	if _, ok := openaiDimensions[model]; !ok {
		return nil, errs.New(errs.KindConfig,
			fmt.Sprintf("unsupported OpenAI embedding model: %s", model))
	}

	logging.Debug("embedding provider initialized", "provider", "openai", "model", model)

	return &OpenAIProvider{
		apiKey:  apiKey,
		model:   model,
		baseURL: "https://api.openai.com/v1",
		client:  &http.Client{Timeout: OpenAIHTTPTimeout},
	}, nil
}

func (p *OpenAIProvider) Embed(ctx context.Context, text string) ([]float64, error) {
	if text == "" {
		return nil, errs.New(errs.KindGeneration, "cannot embed empty text")
	}

	var out openaiEmbedResponse
	err := postJSON(ctx, p.client, p.baseURL+"/embeddings", p.apiKey,
		openaiEmbedRequest{Model: p.model, Input: text}, &out)
	if err != nil {
		return nil, err
	}
	if len(out.Data) == 0 || len(out.Data[0].Embedding) == 0 {
		return nil, errs.New(errs.KindGeneration, "OpenAI returned no embedding")
	}
	return out.Data[0].Embedding, nil
}

func (p *OpenAIProvider) Dimensions() int { return openaiDimensions[p.model] }

func (p *OpenAIProvider) ModelName() string { return p.model }

func (p *OpenAIProvider) ProviderName() string { return "openai" }
