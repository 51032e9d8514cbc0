/*-------------------------------------------------------------------------
 *
 * ETL Validation Assistant
 *
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

// Package api exposes the session over a JSON HTTP interface. It is a
// thin layer: every handler validates input, calls one session
// operation, and maps the error taxonomy to a status code.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"etlvalid/internal/config"
	"etlvalid/internal/errs"
	"etlvalid/internal/logging"
	"etlvalid/internal/rag"
)

// Server wraps one session behind HTTP handlers.
type Server struct {
	session *rag.Session
}

// NewServer creates an API server over the session.
func NewServer(session *rag.Session) *Server {
	return &Server{session: session}
}

// Router builds the route table.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Post("/api/configure-databases", s.configureDatabases)
	r.Post("/api/create-embeddings", s.createEmbeddings)
	r.Post("/api/query", s.query)
	r.Post("/api/save-script", s.saveScript)
	r.Post("/api/execute-script", s.executeScript)
	r.Get("/api/list-scripts", s.listScripts)
	r.Get("/api/results", s.results)
	r.Post("/api/test-connection", s.testConnection)
	return r
}

type configureRequest struct {
	Source config.DatabaseConfig  `json:"source"`
	Target *config.DatabaseConfig `json:"target,omitempty"`
}

func (s *Server) configureDatabases(w http.ResponseWriter, r *http.Request) {
	var req configureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errs.Wrap(errs.KindConfig, "invalid request body", err))
		return
	}
	// API-supplied endpoints skip the config loader, so they take the
	// same defaulting and validation here before anything dials them.
	req.Source.ApplyDefaults()
	if err := req.Source.Validate("source"); err != nil {
		writeError(w, err)
		return
	}
	if req.Target != nil {
		req.Target.ApplyDefaults()
		if err := req.Target.Validate("target"); err != nil {
			writeError(w, err)
			return
		}
	}
	s.session.Configure(req.Source, req.Target)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Databases configured successfully"})
}

func (s *Server) createEmbeddings(w http.ResponseWriter, r *http.Request) {
	if err := s.session.BuildIndex(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Embeddings created successfully"})
}

type queryRequest struct {
	Query string `json:"query"`
}

func (s *Server) query(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errs.Wrap(errs.KindConfig, "invalid request body", err))
		return
	}
	if req.Query == "" {
		writeError(w, errs.New(errs.KindConfig, "query text is required"))
		return
	}

	result, err := s.session.AnswerQuery(r.Context(), req.Query)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type saveScriptRequest struct {
	Answer   string `json:"answer"`
	Filename string `json:"filename"`
}

func (s *Server) saveScript(w http.ResponseWriter, r *http.Request) {
	var req saveScriptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errs.Wrap(errs.KindConfig, "invalid request body", err))
		return
	}
	if req.Answer == "" {
		writeError(w, errs.New(errs.KindConfig, "answer content is required"))
		return
	}
	if req.Filename == "" {
		req.Filename = "validation"
	}

	name, err := s.session.SaveScript(req.Answer, req.Filename)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message":  "Script saved to " + name,
		"filename": name,
	})
}

type executeScriptRequest struct {
	Filename string `json:"filename"`
}

func (s *Server) executeScript(w http.ResponseWriter, r *http.Request) {
	var req executeScriptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errs.Wrap(errs.KindConfig, "invalid request body", err))
		return
	}
	if req.Filename == "" {
		writeError(w, errs.New(errs.KindConfig, "filename is required"))
		return
	}

	report, err := s.session.ExecuteScript(r.Context(), req.Filename)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) listScripts(w http.ResponseWriter, r *http.Request) {
	names, err := s.session.Scripts().List()
	if err != nil {
		writeError(w, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"scripts": names})
}

func (s *Server) results(w http.ResponseWriter, r *http.Request) {
	results := s.session.Results()
	if results == nil {
		results = []rag.QueryResult{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

type testConnectionRequest struct {
	Config config.DatabaseConfig `json:"config"`
}

func (s *Server) testConnection(w http.ResponseWriter, r *http.Request) {
	var req testConnectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errs.Wrap(errs.KindConfig, "invalid request body", err))
		return
	}
	req.Config.ApplyDefaults()
	if err := req.Config.Validate("config"); err != nil {
		writeError(w, err)
		return
	}
	if err := s.session.TestConnection(r.Context(), req.Config); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Connection successful"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("failed to encode response", "error", err)
	}
}

// writeError maps the error taxonomy to HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errs.IsConfig(err):
		status = http.StatusBadRequest
	case errs.IsNotFound(err), errs.IsIndexNotFound(err):
		status = http.StatusNotFound
	case errs.IsIndexNotReady(err):
		status = http.StatusConflict
	case errs.IsConnection(err):
		status = http.StatusBadGateway
	case errs.IsTimeout(err):
		status = http.StatusGatewayTimeout
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
