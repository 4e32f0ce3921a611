// Package scheduler simulates a priority-leveled round-robin CPU scheduler.
//
// Processes are grouped into FIFO queues by priority level. Levels run in
// ascending numeric order; within a level every process receives at most one
// time quantum per turn and returns to the tail of its queue until its burst
// is exhausted. A level drains completely before the next one starts, even
// if a lower-numbered level gains processes in the meantime.
//
// The simulation is deterministic and performs no I/O. All exported methods
// are safe to call from multiple goroutines, but the intended use is one
// driver goroutine plus any number of observers reading snapshots.
package scheduler

import (
	"iter"
	"log/slog"
	"maps"
	"slices"
	"strconv"
	"sync"

	"github.com/me/rrsched/pkg/model"
)

// Scheduler owns the process records, the per-level queues and the clock.
type Scheduler struct {
	mu        sync.Mutex
	quantum   int
	procs     []*model.Process // owned records; queues hold indices into procs
	levels    map[int]*fifo    // only non-empty queues are present
	current   int
	draining  bool
	clock     int
	completed []int
	trace     []model.Event
	sinks     []Sink
	logger    *slog.Logger

	subMu   sync.Mutex
	subs    map[int]chan Snapshot
	nextSub int
}

// Option configures optional Scheduler dependencies.
type Option func(*Scheduler)

// WithSink registers a trace sink. Sinks receive events in emission order.
func WithSink(sink Sink) Option {
	return func(s *Scheduler) {
		if sink != nil {
			s.sinks = append(s.sinks, sink)
		}
	}
}

// WithLogger sets the logger used for lifecycle messages.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a scheduler bound to a fixed time quantum. A quantum that is
// not positive yields a *model.ConfigError and no scheduler.
func New(quantum int, opts ...Option) (*Scheduler, error) {
	if err := ValidateQuantum(quantum); err != nil {
		return nil, err
	}
	s := &Scheduler{
		quantum: quantum,
		levels:  make(map[int]*fifo),
		logger:  slog.New(slog.DiscardHandler),
		subs:    make(map[int]chan Snapshot),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "scheduler")
	s.logger.Debug("scheduler configured", "quantum", quantum)
	return s, nil
}

// ValidateQuantum returns a *model.ConfigError unless quantum is positive.
func ValidateQuantum(quantum int) error {
	if quantum <= 0 {
		return &model.ConfigError{
			Field:  "quantum",
			Value:  strconv.Itoa(quantum),
			Reason: "must be a positive integer",
		}
	}
	return nil
}

// Quantum returns the configured time quantum.
func (s *Scheduler) Quantum() int {
	return s.quantum
}

// Clock returns the current simulation time.
func (s *Scheduler) Clock() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clock
}

// Pending returns the number of processes still queued.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pendingLocked()
}

func (s *Scheduler) pendingLocked() int {
	return len(s.procs) - len(s.completed)
}

// AddProcess appends a process to the tail of its priority level's queue,
// creating the level if needed, and emits PROCESS_ADDED. ArrivalTime is
// recorded but does not affect ordering.
func (s *Scheduler) AddProcess(spec model.ProcessSpec) error {
	if err := spec.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	h := len(s.procs)
	s.procs = append(s.procs, model.NewProcess(spec))
	q, ok := s.levels[spec.Priority]
	if !ok {
		q = &fifo{}
		s.levels[spec.Priority] = q
	}
	q.Push(h)
	ev := s.record(model.Event{
		Kind:      model.EventProcessAdded,
		PID:       spec.PID,
		Priority:  spec.Priority,
		Remaining: spec.BurstTime,
	})
	snap := s.snapshotIfWatched()
	s.mu.Unlock()

	s.logger.Debug("process added", "pid", spec.PID, "priority", spec.Priority, "burst", spec.BurstTime)
	s.deliver([]model.Event{ev}, snap)
	return nil
}

// Step dispatches the head of the current level's queue for one slice and
// returns the events produced. It returns ok=false, and no events, once every
// queue is empty.
func (s *Scheduler) Step() (events []model.Event, ok bool) {
	s.mu.Lock()
	q, started := s.selectLevel()
	if q == nil {
		s.mu.Unlock()
		return nil, false
	}
	if started {
		events = append(events, s.record(model.Event{
			Kind:     model.EventLevelStarted,
			Priority: s.current,
		}))
	}

	h := q.Pop()
	p := s.procs[h]
	if slice := min(s.quantum, p.RemainingTime); slice > 0 {
		p.RemainingTime -= slice
		s.clock += slice
		events = append(events, s.record(model.Event{
			Kind:      model.EventRan,
			PID:       p.PID,
			Priority:  p.Priority,
			Slice:     slice,
			Remaining: p.RemainingTime,
		}))
	}

	if p.RemainingTime == 0 {
		done := s.clock
		p.CompletionTime = &done
		s.completed = append(s.completed, h)
		events = append(events, s.record(model.Event{
			Kind:     model.EventCompleted,
			PID:      p.PID,
			Priority: p.Priority,
		}))
	} else {
		q.Push(h)
		events = append(events, s.record(model.Event{
			Kind:      model.EventRequeued,
			PID:       p.PID,
			Priority:  p.Priority,
			Remaining: p.RemainingTime,
		}))
	}

	if q.Len() == 0 {
		delete(s.levels, s.current)
		s.draining = false
	}
	snap := s.snapshotIfWatched()
	s.mu.Unlock()

	s.deliver(events, snap)
	return events, true
}

// selectLevel returns the queue to dispatch from. The level being drained
// keeps the CPU until it is empty; only then is the lowest remaining level
// chosen. started reports whether a new level was just chosen.
// Must be called with s.mu held.
func (s *Scheduler) selectLevel() (q *fifo, started bool) {
	if s.draining {
		return s.levels[s.current], false
	}
	if len(s.levels) == 0 {
		return nil, false
	}
	s.current = slices.Min(slices.Collect(maps.Keys(s.levels)))
	s.draining = true
	return s.levels[s.current], true
}

// record stamps ev with the next sequence number and the current clock and
// appends it to the trace. Must be called with s.mu held.
func (s *Scheduler) record(ev model.Event) model.Event {
	ev.Seq = len(s.trace) + 1
	ev.Time = s.clock
	s.trace = append(s.trace, ev)
	return ev
}

// Run returns the lazy event sequence of the remaining simulation. Each
// iteration step performs one dispatch. The sequence is not restartable:
// iterating again continues from the current state, and yields nothing once
// every queue is empty.
func (s *Scheduler) Run() iter.Seq[model.Event] {
	return func(yield func(model.Event) bool) {
		for {
			events, ok := s.Step()
			if !ok {
				return
			}
			for _, ev := range events {
				if !yield(ev) {
					return
				}
			}
		}
	}
}

// Execute runs the simulation to completion and returns the complete trace,
// including PROCESS_ADDED events and any events produced before the call.
func (s *Scheduler) Execute() []model.Event {
	var dispatched int
	for range s.Run() {
		dispatched++
	}
	s.mu.Lock()
	trace := slices.Clone(s.trace)
	clock, completed := s.clock, len(s.completed)
	s.mu.Unlock()
	s.logger.Info("execution finished", "events", dispatched, "clock", clock, "completed", completed)
	return trace
}

// CompletionReport lists completed processes in completion order with the
// completion time captured when each one finished.
func (s *Scheduler) CompletionReport() model.Report {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := model.Report{
		Quantum:   s.quantum,
		TotalTime: s.clock,
		Pending:   s.pendingLocked(),
		Entries:   s.completedEntries(),
	}
	r.Summarize()
	return r
}

// completedEntries must be called with s.mu held.
func (s *Scheduler) completedEntries() []model.CompletionEntry {
	entries := make([]model.CompletionEntry, 0, len(s.completed))
	for _, h := range s.completed {
		entries = append(entries, model.NewCompletionEntry(s.procs[h]))
	}
	return entries
}

// Trace returns a copy of every event emitted so far.
func (s *Scheduler) Trace() []model.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.trace)
}

// Processes returns copies of all process records in the order they were
// added.
func (s *Scheduler) Processes() []model.Process {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Process, len(s.procs))
	for i, p := range s.procs {
		out[i] = *p
		if p.CompletionTime != nil {
			t := *p.CompletionTime
			out[i].CompletionTime = &t
		}
	}
	return out
}

// deliver hands events to sinks and the snapshot, if any, to subscribers.
// Must be called without s.mu held.
func (s *Scheduler) deliver(events []model.Event, snap *Snapshot) {
	for _, ev := range events {
		for _, sink := range s.sinks {
			sink.Emit(ev)
		}
	}
	if snap != nil {
		s.publish(*snap)
	}
}
