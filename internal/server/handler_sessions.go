package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/me/rrsched/internal/session"
	"github.com/me/rrsched/pkg/model"
)

// handleCreateSession configures a new interactive scheduler.
// POST /api/v1/sessions  {"quantum": 2}
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	fields, err := decodeNumbers(r.Body)
	if err != nil {
		respondError(w, reqID, http.StatusBadRequest, &model.APIError{
			Code:    model.ErrValidation,
			Message: "Invalid JSON body: " + err.Error(),
		})
		return
	}
	q, ok := fields["quantum"].(json.Number)
	if !ok {
		s.respondErr(w, reqID, &model.ConfigError{Field: "quantum", Value: fmt.Sprint(fields["quantum"]), Reason: "must be an integer"})
		return
	}
	quantum, err := strconv.Atoi(q.String())
	if err != nil {
		s.respondErr(w, reqID, &model.ConfigError{Field: "quantum", Value: q.String(), Reason: "must be an integer"})
		return
	}

	sess, err := s.sessions.Create(quantum)
	if err != nil {
		s.respondErr(w, reqID, err)
		return
	}
	respondCreated(w, reqID, sess.Info())
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	infos := s.sessions.List()
	respondList(w, reqID, infos, &model.Pagination{
		Total: len(infos),
		Limit: len(infos),
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	respondOK(w, reqID, sess.Info())
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	if err := s.sessions.Delete(id); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			respondError(w, reqID, http.StatusNotFound, model.NewNotFoundError("session", id))
			return
		}
		s.respondErr(w, reqID, err)
		return
	}
	respondOK(w, reqID, map[string]any{"id": id, "deleted": true})
}

// handleAddProcess queues one process.
// POST /api/v1/sessions/{id}/processes
// {"pid": 1, "arrival_time": 0, "burst_time": 5, "priority": 1}
func (s *Server) handleAddProcess(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}

	spec, err := decodeProcessSpec(r.Body)
	if err != nil {
		if apiErr := model.AsValidationError(err); apiErr != nil {
			respondError(w, reqID, http.StatusBadRequest, apiErr)
			return
		}
		respondError(w, reqID, http.StatusBadRequest, &model.APIError{
			Code:    model.ErrValidation,
			Message: "Invalid JSON body: " + err.Error(),
		})
		return
	}

	if err := sess.Add(spec); err != nil {
		s.respondErr(w, reqID, err)
		return
	}
	respondCreated(w, reqID, sess.Info())
}

// handleExecuteSession starts background execution and returns at once.
// POST /api/v1/sessions/{id}/execute?step_delay=250ms
func (s *Server) handleExecuteSession(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}

	var delay time.Duration
	if v := r.URL.Query().Get("step_delay"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			respondError(w, reqID, http.StatusBadRequest,
				model.NewValidationError("invalid query parameter",
					model.FieldError{Field: "step_delay", Message: "must be a non-negative duration"}))
			return
		}
		if s.config.MaxDelay > 0 {
			d = min(d, s.config.MaxDelay)
		}
		delay = d
	}

	// Execution outlives the request; it ends when the scheduler drains or
	// the session is deleted.
	if err := sess.Execute(context.WithoutCancel(r.Context()), delay); err != nil {
		s.respondErr(w, reqID, err)
		return
	}
	respondAccepted(w, reqID, sess.Info())
}

func (s *Server) lookupSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	reqID := RequestIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	sess, err := s.sessions.Get(id)
	if err != nil {
		respondError(w, reqID, http.StatusNotFound, model.NewNotFoundError("session", id))
		return nil, false
	}
	return sess, true
}

// decodeNumbers decodes a JSON object keeping numbers as json.Number so
// that integer checks see the literal text.
func decodeNumbers(body io.Reader) (map[string]any, error) {
	dec := json.NewDecoder(body)
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil, err
	}
	if fields == nil {
		return nil, errors.New("expected a JSON object")
	}
	return fields, nil
}

// decodeProcessSpec requires every process field to be present as an
// integer literal. Failures are *model.ProcessError.
func decodeProcessSpec(body io.Reader) (model.ProcessSpec, error) {
	fields, err := decodeNumbers(body)
	if err != nil {
		return model.ProcessSpec{}, err
	}
	names := []string{"pid", "arrival_time", "burst_time", "priority"}
	text := make([]string, len(names))
	for i, name := range names {
		v, present := fields[name]
		if !present {
			return model.ProcessSpec{}, &model.ProcessError{Field: name, Reason: "is required"}
		}
		n, ok := v.(json.Number)
		if !ok {
			return model.ProcessSpec{}, &model.ProcessError{Field: name, Value: fmt.Sprint(v), Reason: "must be an integer"}
		}
		text[i] = n.String()
	}
	return model.ParseProcessFields(text...)
}
