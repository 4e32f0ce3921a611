package session

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/me/rrsched/internal/runner"
	"github.com/me/rrsched/internal/scheduler"
	"github.com/me/rrsched/internal/store"
	"github.com/me/rrsched/pkg/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelError}))
}

type fakeRecorder struct {
	mu      sync.Mutex
	pending []int
}

func (f *fakeRecorder) Record(_ context.Context, _ string, sched *scheduler.Scheduler) (*model.Run, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending = append(f.pending, sched.Pending())
	return &model.Run{ID: "run_fake"}, nil
}

func (f *fakeRecorder) calls() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.pending...)
}

func addTwo(t *testing.T, s *Session) {
	t.Helper()
	for _, spec := range []model.ProcessSpec{
		{PID: 1, BurstTime: 5, Priority: 1},
		{PID: 2, BurstTime: 3, Priority: 1},
	} {
		if err := s.Add(spec); err != nil {
			t.Fatalf("add %d: %v", spec.PID, err)
		}
	}
}

func waitDone(t *testing.T, s *Session) {
	t.Helper()
	select {
	case <-s.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("session did not finish")
	}
}

func TestManager_CreateInvalidQuantum(t *testing.T) {
	m := NewManager(nil, 0, testLogger())
	if _, err := m.Create(0); !errors.Is(err, model.ErrInvalidConfiguration) {
		t.Fatalf("err = %v, want ErrInvalidConfiguration", err)
	}
	if len(m.List()) != 0 {
		t.Error("invalid session was registered")
	}
}

func TestManager_Limit(t *testing.T) {
	m := NewManager(nil, 2, testLogger())
	for i := 0; i < 2; i++ {
		if _, err := m.Create(1); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}
	if _, err := m.Create(1); !errors.Is(err, ErrTooManySessions) {
		t.Fatalf("err = %v, want ErrTooManySessions", err)
	}
}

func TestManager_GetListDelete(t *testing.T) {
	m := NewManager(nil, 0, testLogger())
	a, _ := m.Create(1)
	b, _ := m.Create(2)

	got, err := m.Get(a.ID())
	if err != nil || got != a {
		t.Fatalf("get = %v, %v", got, err)
	}
	infos := m.List()
	if len(infos) != 2 || infos[0].ID != a.ID() || infos[1].ID != b.ID() {
		t.Errorf("list = %+v, want [a b]", infos)
	}
	if infos[1].Snapshot.Quantum != 2 {
		t.Errorf("quantum = %d, want 2", infos[1].Snapshot.Quantum)
	}

	if err := m.Delete(a.ID()); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := m.Get(a.ID()); !errors.Is(err, ErrNotFound) {
		t.Errorf("get after delete err = %v", err)
	}
	if err := m.Delete(a.ID()); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete err = %v", err)
	}
}

func TestSession_ExecuteRecordsRun(t *testing.T) {
	rec := &fakeRecorder{}
	m := NewManager(rec, 0, testLogger())
	s, _ := m.Create(2)
	addTwo(t, s)

	if err := s.Execute(context.Background(), 0); err != nil {
		t.Fatalf("execute: %v", err)
	}
	waitDone(t, s)

	if s.RunID() != "run_fake" {
		t.Errorf("run id = %q", s.RunID())
	}
	if calls := rec.calls(); len(calls) != 1 || calls[0] != 0 {
		t.Errorf("recorder calls = %v, want [0]", calls)
	}
	info := s.Info()
	if info.State != StateDone || info.Error != "" {
		t.Errorf("info = %+v", info)
	}
	if !info.Snapshot.Drained() || info.Snapshot.Clock != 8 {
		t.Errorf("snapshot = %+v, want drained at clock 8", info.Snapshot)
	}
}

func TestSession_ExecutesOnce(t *testing.T) {
	m := NewManager(nil, 0, testLogger())
	s, _ := m.Create(2)
	addTwo(t, s)
	if err := s.Execute(context.Background(), 0); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if err := s.Execute(context.Background(), 0); !errors.Is(err, ErrAlreadyExecuted) {
		t.Errorf("second execute err = %v", err)
	}
	if err := s.Add(model.ProcessSpec{PID: 3, BurstTime: 1}); !errors.Is(err, ErrAlreadyExecuted) {
		t.Errorf("add after execute err = %v", err)
	}
	waitDone(t, s)
	if s.RunID() != "" {
		t.Errorf("run id = %q without recorder", s.RunID())
	}
}

func TestSession_AddInvalidProcess(t *testing.T) {
	m := NewManager(nil, 0, testLogger())
	s, _ := m.Create(2)
	if err := s.Add(model.ProcessSpec{PID: 1, BurstTime: -4}); !errors.Is(err, model.ErrInvalidProcess) {
		t.Fatalf("err = %v, want ErrInvalidProcess", err)
	}
	if s.Snapshot().Total != 0 {
		t.Error("invalid process was queued")
	}
}

func TestSession_DeleteStopsExecution(t *testing.T) {
	rec := &fakeRecorder{}
	m := NewManager(rec, 0, testLogger())
	s, _ := m.Create(2)
	addTwo(t, s)

	if err := s.Execute(context.Background(), time.Hour); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if err := m.Delete(s.ID()); err != nil {
		t.Fatalf("delete: %v", err)
	}
	waitDone(t, s)

	if !errors.Is(s.Err(), context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", s.Err())
	}
	calls := rec.calls()
	if len(calls) != 1 || calls[0] == 0 {
		t.Errorf("recorder calls = %v, want one call with pending processes", calls)
	}
}

func TestSession_WatchSeesFinalSnapshot(t *testing.T) {
	m := NewManager(nil, 0, testLogger())
	s, _ := m.Create(3)
	addTwo(t, s)

	updates, cancel := s.Watch(4)
	defer cancel()
	if err := s.Execute(context.Background(), time.Millisecond); err != nil {
		t.Fatalf("execute: %v", err)
	}

	timeout := time.After(5 * time.Second)
	for {
		select {
		case sn := <-updates:
			if sn.Drained() {
				if len(sn.Completed) != 2 {
					t.Errorf("completed = %d, want 2", len(sn.Completed))
				}
				return
			}
		case <-timeout:
			t.Fatal("no drained snapshot observed")
		}
	}
}

func TestSession_PersistsThroughRunner(t *testing.T) {
	st, err := store.NewSQLiteStore(":memory:", testLogger())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer st.Close()
	ctx := context.Background()
	if err := st.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	m := NewManager(runner.New(st, testLogger()), 0, testLogger())
	s, _ := m.Create(2)
	addTwo(t, s)
	if err := s.Execute(ctx, 0); err != nil {
		t.Fatalf("execute: %v", err)
	}
	waitDone(t, s)

	run, err := st.GetRun(ctx, s.RunID())
	if err != nil || run == nil {
		t.Fatalf("get run %q: %v %v", s.RunID(), run, err)
	}
	if run.State != model.RunStateCompleted || run.TotalTime != 8 {
		t.Errorf("run = %s total=%d", run.State, run.TotalTime)
	}
}

func TestManager_CloseStopsExecuting(t *testing.T) {
	m := NewManager(nil, 0, testLogger())
	s, _ := m.Create(1)
	addTwo(t, s)
	if err := s.Execute(context.Background(), time.Hour); err != nil {
		t.Fatalf("execute: %v", err)
	}
	m.Close()
	select {
	case <-s.Done():
	default:
		t.Fatal("Close returned before session finished")
	}
}
