package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"mercator-hq/retainer/pkg/elastic"
	"mercator-hq/retainer/pkg/history"
	"mercator-hq/retainer/pkg/runner"
	"mercator-hq/retainer/pkg/security/auth"
)

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	RunID string `json:"run_id,omitempty"`
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// ActionResponse is the body of a successful action.
type ActionResponse struct {
	RunID     string          `json:"run_id"`
	Operation string          `json:"operation"`
	Result    json.RawMessage `json:"result"`
}

func (s *Server) handleIndices(w http.ResponseWriter, r *http.Request) {
	indices, err := s.statusReader().ListIndices(r.Context())
	if err != nil {
		s.backendError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, indices)
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.statusReader().ListIndexSettings(r.Context())
	if err != nil {
		s.backendError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handleAliases(w http.ResponseWriter, r *http.Request) {
	aliases, err := s.statusReader().ListAliases(r.Context())
	if err != nil {
		s.backendError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, aliases)
}

// handleAction runs an operation now. Backend failures of any kind map to
// 500 with the run ID so the run can be found in history.
func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	op, err := runner.ParseOperation(r.PathValue("operation"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error(), Kind: "not_found"})
		return
	}

	if caller := auth.Caller(r.Context()); caller != "" {
		s.logger.InfoContext(r.Context(), "action requested", "operation", op, "caller", caller)
	}

	run, err := s.deps.Runner.Run(r.Context(), op, runner.TriggerHTTP)
	if errors.Is(err, runner.ErrAlreadyRunning) {
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: err.Error(), Kind: "conflict"})
		return
	}
	if err != nil {
		resp := ErrorResponse{Error: err.Error(), Kind: elastic.Kind(err)}
		if run != nil {
			resp.RunID = run.ID
			resp.Kind = run.ErrorKind
		}
		writeJSON(w, http.StatusInternalServerError, resp)
		return
	}

	writeJSON(w, http.StatusOK, ActionResponse{
		RunID:     run.ID,
		Operation: run.Operation,
		Result:    run.Result,
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	query := history.Query{
		Operation: params.Get("operation"),
		Status:    history.Status(params.Get("status")),
	}

	if query.Operation != "" {
		op, err := runner.ParseOperation(query.Operation)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error(), Kind: "invalid_request"})
			return
		}
		query.Operation = string(op)
	}

	switch query.Status {
	case "", history.StatusSuccess, history.StatusFailure:
	default:
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "status must be success or failure", Kind: "invalid_request"})
		return
	}

	if raw := params.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "limit must be a positive integer", Kind: "invalid_request"})
			return
		}
		query.Limit = limit
	}

	runs, err := s.deps.History.List(r.Context(), query)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "history query failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error(), Kind: "internal"})
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.deps.History.Get(r.Context(), r.PathValue("id"))
	switch {
	case errors.Is(err, history.ErrRunNotFound):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error(), Kind: "not_found"})
	case err != nil:
		s.logger.ErrorContext(r.Context(), "history lookup failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error(), Kind: "internal"})
	default:
		writeJSON(w, http.StatusOK, run)
	}
}

func (s *Server) backendError(w http.ResponseWriter, r *http.Request, err error) {
	kind := elastic.Kind(err)
	s.logger.ErrorContext(r.Context(), "status request failed", "error", err, "kind", kind)
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error(), Kind: kind})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
