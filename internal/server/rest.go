package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/copyleftdev/tspswarm/internal/errors"
	"github.com/copyleftdev/tspswarm/internal/logging"
	"github.com/copyleftdev/tspswarm/internal/optimization"
	"github.com/copyleftdev/tspswarm/internal/optimization/sweep"
)

// SweepResponse is the JSON body of a sweep.
type SweepResponse struct {
	Rows    []sweep.Row   `json:"rows"`
	Summary sweep.Summary `json:"summary"`
}

// handleSolve handles POST /api/v1/solve.
func (s *Server) handleSolve(w http.ResponseWriter, r *http.Request) {
	var req SolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, r, errors.Errorf(errors.ErrBadRequest, "invalid request body: %v", err))
		return
	}

	st, err := s.startJob(req)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusAccepted, st)
}

// handleStatus handles GET /api/v1/status/{id}.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st, err := s.jobStatus(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, st)
}

// handleCancel handles DELETE /api/v1/solve/{id}.
func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	st, err := s.cancelJob(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, st)
}

// handleSweep handles POST /api/v1/sweep. The grid runs within the request;
// clients asking for text/csv get the CSV export instead of JSON.
func (s *Server) handleSweep(w http.ResponseWriter, r *http.Request) {
	var req SweepRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, r, errors.Errorf(errors.ErrBadRequest, "invalid request body: %v", err))
		return
	}
	if err := validateRequest(req); err != nil {
		s.respondError(w, r, err)
		return
	}
	if n := req.Grid.Size(); n > maxSweepRuns {
		s.respondError(w, r, errors.Errorf(errors.ErrBadRequest,
			"grid has %d combinations, limit is %d", n, maxSweepRuns))
		return
	}
	for _, cfg := range req.Grid.Configs() {
		if err := s.checkLimits(cfg.PopulationSize, cfg.Iterations); err != nil {
			s.respondError(w, r, err)
			return
		}
	}
	g, _, err := req.Graph(s.cfg.PSO.MaxCities)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	opts := []sweep.Option{sweep.WithLogger(logging.FromContext(r.Context()))}
	if s.metrics != nil {
		opts = append(opts, sweep.WithRecorder(s.metrics))
	}
	rows, err := sweep.Run(r.Context(), g, req.Grid, opts...)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if strings.Contains(r.Header.Get("Accept"), "text/csv") {
		w.Header().Set("Content-Type", "text/csv")
		w.WriteHeader(http.StatusOK)
		if err := sweep.WriteCSV(w, rows); err != nil {
			s.logger.Error("Failed to write sweep CSV", zap.Error(err))
		}
		return
	}
	respondJSON(w, http.StatusOK, SweepResponse{Rows: rows, Summary: sweep.Summarize(rows)})
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// respondError writes {"error": ...} with the status mapped from err.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := errors.StatusCode(err)
	logger := logging.FromContext(r.Context())
	fields := append([]zap.Field{zap.Int("status", status)}, errorFields(err)...)
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed", fields...)
	} else {
		logger.Debug("Request rejected", fields...)
	}
	respondJSON(w, status, map[string]string{"error": err.Error()})
}

// errorFields describes err for the log, adding where a solver error came
// from.
func errorFields(err error) []zap.Field {
	fields := []zap.Field{zap.Error(err)}
	for cause := err; cause != nil; {
		oe, ok := optimization.IsOptimizationError(cause)
		if !ok {
			break
		}
		if oe.Component != "" {
			return append(fields,
				zap.String("component", oe.Component),
				zap.String("op", oe.Op),
			)
		}
		cause = oe.Err
	}
	return fields
}
