// Package session holds interactive schedulers that are built up one process
// at a time and then executed in the background while observers watch.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/me/rrsched/internal/scheduler"
	"github.com/me/rrsched/pkg/model"
)

var (
	ErrNotFound        = errors.New("session not found")
	ErrAlreadyExecuted = errors.New("session already executed")
	ErrTooManySessions = errors.New("session limit reached")
)

// Recorder persists an executed scheduler. *runner.Runner satisfies it.
type Recorder interface {
	Record(ctx context.Context, name string, sched *scheduler.Scheduler) (*model.Run, error)
}

// State is the lifecycle phase of a session.
type State string

const (
	StateOpen      State = "OPEN"
	StateExecuting State = "EXECUTING"
	StateDone      State = "DONE"
)

// Info is the API view of a session.
type Info struct {
	ID        string             `json:"id"`
	State     State              `json:"state"`
	RunID     string             `json:"run_id,omitempty"`
	Error     string             `json:"error,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
	Snapshot  scheduler.Snapshot `json:"snapshot"`
}

// Session wraps one scheduler. Processes can be added until Execute is
// called; a session executes at most once.
type Session struct {
	id        string
	createdAt time.Time
	sched     *scheduler.Scheduler
	recorder  Recorder
	logger    *slog.Logger

	mu    sync.Mutex
	state State
	runID string
	err   error
	stop  context.CancelFunc
	done  chan struct{}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Add queues a process. It fails with ErrAlreadyExecuted once Execute has
// been called.
func (s *Session) Add(spec model.ProcessSpec) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateOpen {
		return ErrAlreadyExecuted
	}
	return s.sched.AddProcess(spec)
}

// Execute starts stepping the scheduler in a background goroutine and
// returns immediately. stepDelay paces successive dispatches. Execution
// stops early when ctx is canceled or the session is deleted; the run is
// recorded either way.
func (s *Session) Execute(ctx context.Context, stepDelay time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateOpen {
		return ErrAlreadyExecuted
	}
	ctx, s.stop = context.WithCancel(ctx)
	s.state = StateExecuting
	s.logger.Info("session executing", "processes", s.sched.Pending(), "step_delay", stepDelay)
	go s.execute(ctx, stepDelay)
	return nil
}

func (s *Session) execute(ctx context.Context, stepDelay time.Duration) {
	defer close(s.done)

	err := s.drive(ctx, stepDelay)
	var runID string
	if s.recorder != nil {
		run, rerr := s.recorder.Record(context.WithoutCancel(ctx), "session "+s.id, s.sched)
		if run != nil {
			runID = run.ID
		}
		if err == nil {
			err = rerr
		}
	}

	s.mu.Lock()
	s.state = StateDone
	s.runID = runID
	s.err = err
	s.stop()
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn("session stopped", "error", err, "run_id", runID)
		return
	}
	s.logger.Info("session finished", "clock", s.sched.Clock(), "run_id", runID)
}

// drive steps the scheduler until it drains or ctx ends.
func (s *Session) drive(ctx context.Context, stepDelay time.Duration) error {
	for first := true; ; first = false {
		if !first && stepDelay > 0 {
			timer := time.NewTimer(stepDelay)
			select {
			case <-ctx.Done():
				timer.Stop()
			case <-timer.C:
			}
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, ok := s.sched.Step(); !ok {
			return nil
		}
	}
}

// Snapshot returns the scheduler's current state.
func (s *Session) Snapshot() scheduler.Snapshot {
	return s.sched.Snapshot()
}

// Info returns the session's lifecycle state together with a snapshot.
func (s *Session) Info() Info {
	s.mu.Lock()
	info := Info{
		ID:        s.id,
		State:     s.state,
		RunID:     s.runID,
		CreatedAt: s.createdAt,
	}
	if s.err != nil {
		info.Error = s.err.Error()
	}
	s.mu.Unlock()
	info.Snapshot = s.sched.Snapshot()
	return info
}

// Watch subscribes to scheduler snapshots. The first value is the current
// state. Call cancel to unsubscribe.
func (s *Session) Watch(buffer int) (<-chan scheduler.Snapshot, func()) {
	return s.sched.Subscribe(buffer)
}

// Done is closed once execution has finished and the run is recorded.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// RunID returns the persisted run ID, or "" before execution finishes or
// when no recorder is configured.
func (s *Session) RunID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runID
}

// Err returns the error that ended execution, if any.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// cancel stops a running execution and reports whether one was running.
func (s *Session) cancel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateExecuting {
		return false
	}
	s.stop()
	return true
}
