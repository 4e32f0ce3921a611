package scheduler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/me/rrsched/pkg/model"
)

// Sink receives trace events in emission order. Emit is called outside the
// scheduler lock, from the goroutine that called AddProcess or Step.
type Sink interface {
	Emit(ev model.Event)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ev model.Event)

// Emit calls f(ev).
func (f SinkFunc) Emit(ev model.Event) { f(ev) }

// Recorder captures events for later replay. Safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	events []model.Event
}

// Emit appends ev.
func (r *Recorder) Emit(ev model.Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

// Events returns a copy of the captured events.
func (r *Recorder) Events() []model.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Event, len(r.events))
	copy(out, r.events)
	return out
}

// NewLogSink returns a Sink that logs every event at DEBUG, except
// completions which are logged at INFO.
func NewLogSink(logger *slog.Logger) Sink {
	return SinkFunc(func(ev model.Event) {
		level := slog.LevelDebug
		if ev.Kind == model.EventCompleted {
			level = slog.LevelInfo
		}
		logger.Log(context.Background(), level, "trace",
			"seq", ev.Seq,
			"kind", ev.Kind.String(),
			"pid", ev.PID,
			"priority", ev.Priority,
			"slice", ev.Slice,
			"remaining", ev.Remaining,
			"time", ev.Time,
		)
	})
}

// NewWriterSink returns a Sink that writes one human-readable line per event.
// Write errors are dropped; the trace stays available through Trace.
func NewWriterSink(w io.Writer) Sink {
	return SinkFunc(func(ev model.Event) {
		fmt.Fprintln(w, ev.String())
	})
}
