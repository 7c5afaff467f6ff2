// Package api exposes the question pipeline over HTTP. The surface is
// small: one query endpoint plus health, schema, and metrics probes.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/coinsight/coinsight/internal/agent"
	"github.com/coinsight/coinsight/internal/errors"
)

const (
	minQuestionLen = 5
	maxQuestionLen = 500
)

// Server handles HTTP requests. The agent pointer is swapped atomically
// when the schema index is rebuilt, so in-flight requests keep the agent
// they started with.
type Server struct {
	agent      atomic.Pointer[agent.Agent]
	logger     *slog.Logger
	backend    string
	tableNames func() []string
}

// NewServer creates a Server. The agent may be nil until the index is
// ready; queries return 503 in the meantime.
func NewServer(a *agent.Agent, backend string, tableNames func() []string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		logger:     logger,
		backend:    backend,
		tableNames: tableNames,
	}
	if a != nil {
		s.agent.Store(a)
	}

	return s
}

// SetAgent swaps the active agent, typically after an index rebuild.
func (s *Server) SetAgent(a *agent.Agent) {
	s.agent.Store(a)
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/query", s.handleQuery)
	mux.HandleFunc("GET /v1/health", s.handleHealth)
	mux.HandleFunc("GET /v1/schema", s.handleSchema)
	mux.Handle("GET /v1/metrics", promhttp.Handler())

	return mux
}

// ListenAndServe runs the HTTP server until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string, readTimeout, writeTimeout time.Duration) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}

	errCh := make(chan error, 1)

	go func() {
		errCh <- srv.ListenAndServe()
	}()

	s.logger.Info("http server listening", "addr", addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

type queryRequest struct {
	Question string `json:"question"`
}

type errorResponse struct {
	Error string `json:"error"`
	Type  string `json:"type"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	a := s.agent.Load()
	if a == nil {
		writeError(w, http.StatusServiceUnavailable, errors.ErrTypeIndexUnready,
			"schema index is not ready; try again shortly")
		return
	}

	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, errors.ErrTypeValidation, "request body must be JSON with a 'question' field")
		return
	}

	if n := len(req.Question); n < minQuestionLen || n > maxQuestionLen {
		writeError(w, http.StatusUnprocessableEntity, errors.ErrTypeValidation, "question must be between 5 and 500 characters")
		return
	}

	result, err := a.Ask(r.Context(), req.Question)
	if err != nil {
		s.writeAskError(w, r, req.Question, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// writeAskError maps pipeline errors onto HTTP statuses. Validation
// failures carry their message to the client; everything else gets a
// generic message so SQL and warehouse detail never leaks.
func (s *Server) writeAskError(w http.ResponseWriter, r *http.Request, question string, err error) {
	errType := errors.GetType(err)

	switch errType {
	case errors.ErrTypeValidation:
		writeError(w, http.StatusUnprocessableEntity, errType, errors.UserMessage(err))
	case errors.ErrTypeIndexUnready:
		writeError(w, http.StatusServiceUnavailable, errType, "schema index is not ready; try again shortly")
	default:
		s.logger.Error("query failed", "question", question, "error", err)
		writeError(w, http.StatusInternalServerError, errType, "the question could not be answered; see server logs")
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ready := s.agent.Load() != nil

	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, map[string]any{
		"status":      statusWord(ready),
		"index_ready": ready,
		"backend":     s.backend,
	})
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	var tables []string
	if s.tableNames != nil {
		tables = s.tableNames()
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"backend": s.backend,
		"tables":  tables,
	})
}

func statusWord(ready bool) string {
	if ready {
		return "ok"
	}

	return "unavailable"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, errType errors.ErrorType, msg string) {
	writeJSON(w, status, errorResponse{Error: msg, Type: string(errType)})
}
