package model

import "fmt"

// EventKind identifies the scheduling action an Event records.
type EventKind string

const (
	EventProcessAdded EventKind = "PROCESS_ADDED"
	EventLevelStarted EventKind = "LEVEL_STARTED"
	EventRan          EventKind = "RAN"
	EventRequeued     EventKind = "REQUEUED"
	EventCompleted    EventKind = "COMPLETED"
)

// String returns the string representation of the event kind.
func (k EventKind) String() string {
	return string(k)
}

// Event is one entry of a scheduler trace. Seq numbers start at 1 and are
// dense within one scheduler. Time is the simulation clock after the action.
type Event struct {
	Seq       int       `json:"seq"`
	Kind      EventKind `json:"kind"`
	PID       int       `json:"pid"`
	Priority  int       `json:"priority"`
	Slice     int       `json:"slice,omitempty"`
	Remaining int       `json:"remaining"`
	Time      int       `json:"time"`
}

// String renders the event as a single log line.
func (e Event) String() string {
	switch e.Kind {
	case EventProcessAdded:
		return fmt.Sprintf("Process %d with priority %d added to queue.", e.PID, e.Priority)
	case EventLevelStarted:
		return fmt.Sprintf("-- Executing processes in priority level %d --", e.Priority)
	case EventRan:
		return fmt.Sprintf("Process %d ran %d at time %d, %d remaining.", e.PID, e.Slice, e.Time, e.Remaining)
	case EventRequeued:
		return fmt.Sprintf("Process %d will continue later, returning to queue.", e.PID)
	case EventCompleted:
		return fmt.Sprintf("Process %d completed at time %d.", e.PID, e.Time)
	}
	return fmt.Sprintf("%s pid=%d", e.Kind, e.PID)
}
