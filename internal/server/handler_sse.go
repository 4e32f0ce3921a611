package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// handleSSESession streams scheduler snapshots for a session via
// Server-Sent Events. A final "complete" event carries the session info once
// execution has finished.
// GET /api/v1/sse/sessions/{id}
func (s *Server) handleSSESession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}

	// Set headers for SSE.
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	updates, cancel := sess.Watch(16)
	defer cancel()

	ticker := time.NewTicker(s.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case sn, ok := <-updates:
			if !ok {
				return
			}
			if err := sendSSEEvent(w, flusher, "snapshot", sn); err != nil {
				s.logger.Debug("sse client disconnected", "id", sess.ID(), "error", err)
				return
			}
		case <-sess.Done():
			if err := sendSSEEvent(w, flusher, "complete", sess.Info()); err != nil {
				s.logger.Debug("sse client disconnected", "id", sess.ID(), "error", err)
			}
			return
		case <-ticker.C:
			fmt.Fprintf(w, ": heartbeat\n\n")
			flusher.Flush()
		}
	}
}

func sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, event string, data any) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, jsonData)
	if err != nil {
		return err
	}

	flusher.Flush()
	return nil
}
