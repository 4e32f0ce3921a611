package server

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/me/rrsched/internal/workload"
	"github.com/me/rrsched/pkg/model"
)

// maxWorkloadBytes bounds POST /runs bodies.
const maxWorkloadBytes = 4 << 20

// handleCreateRun simulates a workload document (YAML or JSON) and returns
// the completed run.
// POST /api/v1/runs
func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWorkloadBytes))
	if err != nil {
		respondError(w, reqID, http.StatusBadRequest,
			model.NewValidationError("read body: "+err.Error()))
		return
	}

	wl, err := workload.Parse(body)
	if err != nil {
		if apiErr := model.AsValidationError(err); apiErr != nil {
			respondError(w, reqID, http.StatusBadRequest, apiErr)
			return
		}
		respondError(w, reqID, http.StatusBadRequest,
			model.NewValidationError("invalid workload: "+err.Error()))
		return
	}

	run, err := s.runner.Simulate(r.Context(), wl.Name, wl.Quantum, wl.Specs())
	if err != nil {
		s.respondErr(w, reqID, err)
		return
	}

	s.logger.Info("run created", "id", run.ID, "processes", len(run.Processes), "total_time", run.TotalTime)
	respondCreated(w, reqID, run)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	opts, apiErr := listOptions(r)
	if apiErr != nil {
		respondError(w, reqID, http.StatusBadRequest, apiErr)
		return
	}
	if state := r.URL.Query().Get("state"); state != "" {
		st, ok := model.ParseRunState(state)
		if !ok {
			respondError(w, reqID, http.StatusBadRequest,
				model.NewValidationError("invalid state filter",
					model.FieldError{Field: "state", Message: "unknown run state " + state}))
			return
		}
		opts.State = st.String()
	}

	runs, total, err := s.store.ListRuns(r.Context(), opts)
	if err != nil {
		s.respondErr(w, reqID, err)
		return
	}
	if runs == nil {
		runs = []*model.Run{}
	}
	respondList(w, reqID, runs, model.NewPagination(total, opts, len(runs)))
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	run, ok := s.lookupRun(w, r)
	if !ok {
		return
	}
	respondOK(w, reqID, run)
}

func (s *Server) handleDeleteRun(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	run, ok := s.lookupRun(w, r)
	if !ok {
		return
	}
	if err := s.store.DeleteRun(r.Context(), run.ID); err != nil {
		s.respondErr(w, reqID, err)
		return
	}
	s.logger.Info("run deleted", "id", run.ID)
	respondOK(w, reqID, map[string]any{"id": run.ID, "deleted": true})
}

// handleListRunEvents pages through a run's trace. Sequence numbers are
// contiguous from 1, so ?after= doubles as the page offset.
// GET /api/v1/runs/{id}/events
func (s *Server) handleListRunEvents(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	run, ok := s.lookupRun(w, r)
	if !ok {
		return
	}

	after, err := queryInt(r, "after", 0)
	if err != nil || after < 0 {
		respondError(w, reqID, http.StatusBadRequest,
			model.NewValidationError("invalid query parameter",
				model.FieldError{Field: "after", Message: "must be a non-negative integer"}))
		return
	}
	limit, err := queryInt(r, "limit", 100)
	if err != nil || limit <= 0 {
		respondError(w, reqID, http.StatusBadRequest,
			model.NewValidationError("invalid query parameter",
				model.FieldError{Field: "limit", Message: "must be a positive integer"}))
		return
	}
	limit = min(limit, 1000)

	events, err := s.store.ListEvents(r.Context(), run.ID, after, limit)
	if err != nil {
		s.respondErr(w, reqID, err)
		return
	}
	respondList(w, reqID, events, model.NewPagination(run.EventCount,
		model.ListOptions{Limit: limit, Offset: after}, len(events)))
}

func (s *Server) handleGetRunReport(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	run, ok := s.lookupRun(w, r)
	if !ok {
		return
	}
	if run.Report == nil {
		respondError(w, reqID, http.StatusConflict,
			model.NewConflictError(fmt.Sprintf("run '%s' has no report (state %s)", run.ID, run.State)))
		return
	}
	respondOK(w, reqID, run.Report)
}

// lookupRun loads the run named by the {id} URL parameter, writing a 404 or
// 500 response and returning false when it cannot.
func (s *Server) lookupRun(w http.ResponseWriter, r *http.Request) (*model.Run, bool) {
	reqID := RequestIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	run, err := s.store.GetRun(r.Context(), id)
	if err != nil {
		s.respondErr(w, reqID, err)
		return nil, false
	}
	if run == nil {
		respondError(w, reqID, http.StatusNotFound, model.NewNotFoundError("run", id))
		return nil, false
	}
	return run, true
}

func listOptions(r *http.Request) (model.ListOptions, *model.APIError) {
	opts := model.DefaultListOptions()
	var err error
	if opts.Limit, err = queryInt(r, "limit", opts.Limit); err != nil {
		return opts, model.NewValidationError("invalid query parameter",
			model.FieldError{Field: "limit", Message: "must be an integer"})
	}
	if opts.Offset, err = queryInt(r, "offset", opts.Offset); err != nil {
		return opts, model.NewValidationError("invalid query parameter",
			model.FieldError{Field: "offset", Message: "must be an integer"})
	}
	opts.Clamp()
	return opts, nil
}

func queryInt(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}
