// Package runner executes scheduler workloads and persists the resulting
// runs, traces and completion reports.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/me/rrsched/internal/scheduler"
	"github.com/me/rrsched/internal/store"
	"github.com/me/rrsched/internal/tracing"
	"github.com/me/rrsched/internal/workload"
	"github.com/me/rrsched/pkg/model"
)

// BatchSize is the number of trace events written per store transaction.
const BatchSize = 256

// Runner creates runs in the store and drives schedulers to completion.
type Runner struct {
	store  store.Store
	logger *slog.Logger
}

// New creates a Runner backed by st.
func New(st store.Store, logger *slog.Logger) *Runner {
	return &Runner{
		store:  st,
		logger: logger.With("component", "runner"),
	}
}

// Simulate configures a scheduler with quantum and specs, executes it and
// records the run. Invalid input returns a *model.ConfigError or
// *model.ProcessError and persists nothing. Once the run exists, execution
// failures (including ctx cancellation) leave it FAILED.
func (r *Runner) Simulate(ctx context.Context, name string, quantum int, specs []model.ProcessSpec) (run *model.Run, err error) {
	ctx, span := tracing.StartSpan(ctx, "rrsched.simulate")
	span.SetString("rrsched.name", name).
		SetInt("rrsched.quantum", quantum).
		SetInt("rrsched.processes", len(specs))
	defer func() { tracing.EndSpan(span, err) }()

	if err := workload.Validate(quantum, specs); err != nil {
		return nil, err
	}

	run = newRun(name, quantum, specs)
	if err := r.store.CreateRun(ctx, run); err != nil {
		return nil, fmt.Errorf("create run: %w", err)
	}
	if err := r.advance(ctx, run, model.RunStateRunning); err != nil {
		return nil, err
	}

	sink := newBatchSink(ctx, r.store, run.ID)
	sched, err := workload.Build(quantum, specs,
		scheduler.WithSink(sink),
		scheduler.WithLogger(r.logger.With("run_id", run.ID)),
	)
	if err != nil {
		return nil, r.fail(ctx, run, err)
	}

	for range sched.Run() {
		if err := ctx.Err(); err != nil {
			return nil, r.fail(ctx, run, err)
		}
		if sink.err != nil {
			return nil, r.fail(ctx, run, sink.err)
		}
	}
	if err := sink.flush(); err != nil {
		return nil, r.fail(ctx, run, err)
	}

	report := sched.CompletionReport()
	span.SetInt("rrsched.total_time", report.TotalTime)
	if err := r.complete(ctx, run, report, sink.count); err != nil {
		return nil, err
	}
	return run, nil
}

// Record persists a scheduler that was executed elsewhere, along with its
// full trace. A scheduler that still has pending processes is recorded as
// FAILED with its partial report.
func (r *Runner) Record(ctx context.Context, name string, sched *scheduler.Scheduler) (run *model.Run, err error) {
	ctx, span := tracing.StartSpan(ctx, "rrsched.record")
	defer func() { tracing.EndSpan(span, err) }()

	procs := sched.Processes()
	specs := make([]model.ProcessSpec, len(procs))
	for i, p := range procs {
		specs[i] = p.ProcessSpec
	}
	span.SetInt("rrsched.quantum", sched.Quantum()).SetInt("rrsched.processes", len(specs))

	run = newRun(name, sched.Quantum(), specs)
	if err := run.Transition(model.RunStateRunning); err != nil {
		return nil, err
	}
	if err := r.store.CreateRun(ctx, run); err != nil {
		return nil, fmt.Errorf("create run: %w", err)
	}

	trace := sched.Trace()
	for start := 0; start < len(trace); start += BatchSize {
		end := min(start+BatchSize, len(trace))
		if err := r.store.AppendEvents(ctx, run.ID, trace[start:end]); err != nil {
			return nil, r.fail(ctx, run, fmt.Errorf("append events: %w", err))
		}
	}

	report := sched.CompletionReport()
	span.SetInt("rrsched.total_time", report.TotalTime)
	if report.Pending > 0 {
		run.Report = &report
		run.TotalTime = report.TotalTime
		run.EventCount = len(trace)
		return run, r.fail(ctx, run, fmt.Errorf("execution stopped with %d processes pending", report.Pending))
	}
	if err := r.complete(ctx, run, report, len(trace)); err != nil {
		return nil, err
	}
	return run, nil
}

func newRun(name string, quantum int, specs []model.ProcessSpec) *model.Run {
	return &model.Run{
		ID:        "run_" + uuid.New().String(),
		Name:      name,
		Quantum:   quantum,
		State:     model.RunStatePending,
		Processes: specs,
		CreatedAt: time.Now().UTC(),
	}
}

// advance transitions run to next and persists it.
func (r *Runner) advance(ctx context.Context, run *model.Run, next model.RunState) error {
	if err := run.Transition(next); err != nil {
		return err
	}
	if err := r.store.UpdateRun(ctx, run); err != nil {
		return fmt.Errorf("update run %s: %w", run.ID, err)
	}
	return nil
}

func (r *Runner) complete(ctx context.Context, run *model.Run, report model.Report, events int) error {
	run.Report = &report
	run.TotalTime = report.TotalTime
	run.EventCount = events
	if err := r.advance(ctx, run, model.RunStateCompleted); err != nil {
		return err
	}
	r.logger.Info("run completed",
		"run_id", run.ID,
		"name", run.Name,
		"processes", len(run.Processes),
		"total_time", run.TotalTime,
		"events", run.EventCount,
	)
	return nil
}

// fail marks run FAILED with cause and returns cause. The update is written
// even when ctx has been canceled.
func (r *Runner) fail(ctx context.Context, run *model.Run, cause error) error {
	run.Error = cause.Error()
	if err := r.advance(context.WithoutCancel(ctx), run, model.RunStateFailed); err != nil {
		r.logger.Error("mark run failed", "run_id", run.ID, "error", err)
	}
	r.logger.Warn("run failed", "run_id", run.ID, "error", cause)
	return cause
}
