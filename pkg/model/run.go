package model

import "time"

// Run is a persisted simulation: its inputs, final report and lifecycle.
type Run struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Quantum     int           `json:"quantum"`
	State       RunState      `json:"state"`
	Processes   []ProcessSpec `json:"processes"`
	Report      *Report       `json:"report,omitempty"`
	TotalTime   int           `json:"total_time"`
	EventCount  int           `json:"event_count"`
	Error       string        `json:"error,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	CompletedAt *time.Time    `json:"completed_at"`
}

// Transition moves the run to next, or returns an InvalidTransitionError.
func (r *Run) Transition(next RunState) error {
	if !r.State.CanTransitionTo(next) {
		return &InvalidTransitionError{
			Entity: "Run",
			ID:     r.ID,
			From:   r.State.String(),
			To:     next.String(),
		}
	}
	r.State = next
	if next.IsTerminal() {
		now := time.Now().UTC()
		r.CompletedAt = &now
	}
	return nil
}
