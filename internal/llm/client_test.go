/*-------------------------------------------------------------------------
 *
 * ETL Validation Assistant
 *
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"etlvalid/internal/errs"
)

func TestGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("bad request body: %v", err)
		}
		if req.Stream {
			t.Error("streaming should be disabled")
		}
		if req.Model != "codellama:7b" {
			t.Errorf("model = %q", req.Model)
		}
		if req.Options.Temperature != 0.1 || req.Options.TopK != 5 {
			t.Errorf("options not forwarded: %+v", req.Options)
		}
		json.NewEncoder(w).Encode(generateResponse{
			Model:    req.Model,
			Response: "SELECT 1;",
			Done:     true,
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 0)
	out, err := c.Generate(context.Background(), "codellama:7b", "write sql",
		ModelParams{Temperature: 0.1, TopK: 5, NumPredict: 1024, NumCtx: 2048})
	if err != nil {
		t.Fatal(err)
	}
	if out != "SELECT 1;" {
		t.Errorf("response = %q", out)
	}
}

func TestGenerateServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 0)
	_, err := c.Generate(context.Background(), "missing", "x", ModelParams{})
	if !errs.IsGeneration(err) {
		t.Errorf("expected generation error, got %v", err)
	}
}

func TestGenerateConnectionError(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", 0)
	_, err := c.Generate(context.Background(), "m", "x", ModelParams{})
	if !errs.IsConnection(err) {
		t.Errorf("expected connection error, got %v", err)
	}
}
