package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/me/rrsched/internal/runner"
	"github.com/me/rrsched/internal/scheduler"
	"github.com/me/rrsched/internal/store"
	"github.com/me/rrsched/internal/workload"
	"github.com/me/rrsched/pkg/model"
)

type simulateResult struct {
	Name   string        `json:"name"`
	RunID  string        `json:"run_id,omitempty"`
	Trace  []model.Event `json:"trace,omitempty"`
	Report model.Report  `json:"report"`
}

func newSimulateCmd() *cobra.Command {
	var showTrace bool
	var output string
	var dbPath string

	cmd := &cobra.Command{
		Use:   "simulate <workload.yaml>",
		Short: "Simulate a workload locally",
		Long: "Load a workload file, run it to completion and print the trace and\n" +
			"completion report. With --db the run is also stored in a local database.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output != "text" && output != "json" {
				return fmt.Errorf("unknown output format %q (want text or json)", output)
			}
			out := cmd.OutOrStdout()

			wl, err := workload.Load(args[0])
			if err != nil {
				return fmt.Errorf("load workload: %w", err)
			}
			logger.Debug("workload loaded", "name", wl.Name, "quantum", wl.Quantum, "processes", len(wl.Specs()))

			opts := []scheduler.Option{scheduler.WithLogger(logger)}
			if showTrace && output == "text" {
				opts = append(opts, scheduler.WithSink(scheduler.NewWriterSink(out)))
			}
			sched, err := wl.NewScheduler(opts...)
			if err != nil {
				return err
			}
			trace := sched.Execute()

			result := simulateResult{Name: wl.Name, Report: sched.CompletionReport()}
			if showTrace {
				result.Trace = trace
			}

			if dbPath != "" {
				run, err := recordLocal(cmd.Context(), dbPath, wl.Name, sched)
				if err != nil {
					return err
				}
				result.RunID = run.ID
			}

			if output == "json" {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}
			printSimulation(out, result)
			return nil
		},
	}

	cmd.Flags().BoolVar(&showTrace, "trace", true, "Print the execution trace")
	cmd.Flags().StringVarP(&output, "output", "o", "text", "Output format (text, json)")
	cmd.Flags().StringVar(&dbPath, "db", "", "Also record the run in this SQLite database")
	return cmd
}

func printSimulation(w io.Writer, r simulateResult) {
	if len(r.Trace) > 0 {
		fmt.Fprintln(w)
	}
	printReport(w, r.Report)
	if r.RunID != "" {
		fmt.Fprintf(w, "Recorded as %s\n", r.RunID)
	}
}

// recordLocal stores an executed scheduler in the SQLite database at dbPath.
func recordLocal(ctx context.Context, dbPath, name string, sched *scheduler.Scheduler) (*model.Run, error) {
	st, err := store.NewSQLiteStore(dbPath, logger)
	if err != nil {
		return nil, err
	}
	defer st.Close()
	if err := st.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("migrate %s: %w", dbPath, err)
	}
	run, err := runner.New(st, logger).Record(ctx, name, sched)
	if err != nil {
		return nil, fmt.Errorf("record run: %w", err)
	}
	return run, nil
}
