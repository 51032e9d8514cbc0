/*-------------------------------------------------------------------------
 *
 * ETL Validation Assistant
 *
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

// Package embedding generates fixed-dimension embedding vectors for
// chunk text. The dimension is a property of the model and must match
// between index build and query time.
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"etlvalid/internal/errs"
)

// Provider is the embedding contract the vector index builds against.
type Provider interface {
	Embed(ctx context.Context, text string) ([]float64, error)

	// Dimensions is the vector size for this model. Ollama providers
	// for unknown models report 0 until the first successful Embed.
	Dimensions() int

	ModelName() string
	ProviderName() string
}

// Config selects and parameterizes a provider.
type Config struct {
	Provider string // "ollama" (default) or "openai"
	Model    string // provider-specific model name

	OpenAIAPIKey string
	OllamaURL    string
}

// NewProvider builds the provider named by the configuration.
func NewProvider(cfg Config) (Provider, error) {
	switch cfg.Provider {
	case "ollama", "":
		return NewOllamaProvider(cfg.OllamaURL, cfg.Model)
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return nil, errs.New(errs.KindConfig,
				"OpenAI API key is required when provider is 'openai'")
		}
		return NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.Model)
	default:
		return nil, errs.New(errs.KindConfig,
			fmt.Sprintf("unsupported embedding provider: %s (supported: ollama, openai)", cfg.Provider))
	}
}

// postJSON posts the request body and decodes a 200 response into out.
// A non-empty bearer token is sent as the Authorization header.
// Transport failures map to connection errors, non-200 statuses to
// generation errors.
func postJSON(ctx context.Context, client *http.Client, url, bearer string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := client.Do(req)
	if err != nil {
		return errs.Wrap(errs.KindConnection, "embedding request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return errs.New(errs.KindGeneration,
			fmt.Sprintf("embedding request returned status %d: %s", resp.StatusCode, string(msg)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errs.Wrap(errs.KindGeneration, "failed to decode embedding response", err)
	}
	return nil
}
