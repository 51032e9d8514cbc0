/*-------------------------------------------------------------------------
 *
 * ETL Validation Assistant
 *
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

// Package llm is a thin client for Ollama's generate API.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"etlvalid/internal/errs"
	"etlvalid/internal/logging"
)

// DefaultTimeout bounds a single generation call. Local models can be
// slow to load, so this is generous.
const DefaultTimeout = 5 * time.Minute

// ModelParams are the decoding parameters passed to the model.
type ModelParams struct {
	Temperature   float64  `json:"temperature,omitempty"`
	TopK          int      `json:"top_k,omitempty"`
	TopP          float64  `json:"top_p,omitempty"`
	RepeatPenalty float64  `json:"repeat_penalty,omitempty"`
	NumPredict    int      `json:"num_predict,omitempty"`
	NumCtx        int      `json:"num_ctx,omitempty"`
	Stop          []string `json:"stop,omitempty"`
}

// Client talks to an Ollama server.
type Client struct {
	baseURL string
	client  *http.Client
}

type generateRequest struct {
	Model   string      `json:"model"`
	Prompt  string      `json:"prompt"`
	Stream  bool        `json:"stream"`
	Options ModelParams `json:"options"`
}

type generateResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// NewClient creates an Ollama client. A zero timeout falls back to
// DefaultTimeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// Generate runs one non-streaming completion and returns the generated
// text.
func (c *Client) Generate(ctx context.Context, model, prompt string, params ModelParams) (string, error) {
	start := time.Now()

	reqBytes, err := json.Marshal(generateRequest{
		Model:   model,
		Prompt:  prompt,
		Stream:  false,
		Options: params,
	})
	if err != nil {
		return "", errs.Wrap(errs.KindGeneration, "failed to marshal generate request", err)
	}

	url := c.baseURL + "/api/generate"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBytes))
	if err != nil {
		return "", errs.Wrap(errs.KindGeneration, "failed to create request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", errs.Wrap(errs.KindConnection,
			fmt.Sprintf("failed to connect to Ollama at %s (is Ollama running?)", c.baseURL), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", errs.New(errs.KindGeneration,
			fmt.Sprintf("Ollama generate failed with status %d: %s", resp.StatusCode, string(body)))
	}

	var genResp generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return "", errs.Wrap(errs.KindGeneration, "failed to decode generate response", err)
	}
	if genResp.Response == "" {
		return "", errs.New(errs.KindGeneration,
			fmt.Sprintf("received empty response from model %q (try 'ollama pull %s')", model, model))
	}

	logging.Debug("llm generation complete",
		"model", model, "prompt_chars", len(prompt),
		"response_chars", len(genResp.Response), "elapsed", time.Since(start))

	return genResp.Response, nil
}
