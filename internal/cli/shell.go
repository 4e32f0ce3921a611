package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/me/rrsched/internal/scheduler"
	"github.com/me/rrsched/pkg/model"
)

const shellHelp = `Commands:
  quantum N                          configure a new scheduler with time quantum N
  add PID ARRIVAL BURST PRIORITY     queue a process
  run                                execute until every queue is empty (once per table)
  report                             show completed processes
  status                             show queues and clock
  reset                              start a new table with the same quantum
  help                               show this help
  quit                               leave the shell`

func newShellCmd() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Interactive scheduler shell",
		Long:  "Build a process table one line at a time and execute it.\n\n" + shellHelp,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sh := &shell{
				ctx:    cmd.Context(),
				out:    cmd.OutOrStdout(),
				dbPath: dbPath,
			}
			return sh.serve(cmd.InOrStdin())
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "", "Record each executed process table in this SQLite database")
	return cmd
}

// shell is the line-oriented REPL behind the shell command.
type shell struct {
	ctx    context.Context
	out    io.Writer
	dbPath string

	quantum  int
	sched    *scheduler.Scheduler
	executed bool
}

var errExecuted = errors.New("process table already executed; use reset or quantum to start a new one")

var errQuit = errors.New("quit")

func (sh *shell) serve(in io.Reader) error {
	fmt.Fprintln(sh.out, `rrsched shell. Type "help" for commands.`)
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(sh.out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(sh.out)
			return scanner.Err()
		}
		err := sh.exec(strings.Fields(scanner.Text()))
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			fmt.Fprintf(sh.out, "error: %v\n", err)
		}
	}
}

func (sh *shell) exec(fields []string) error {
	if len(fields) == 0 {
		return nil
	}
	switch cmd, args := strings.ToLower(fields[0]), fields[1:]; cmd {
	case "quantum":
		if len(args) != 1 {
			return errors.New("usage: quantum N")
		}
		q, err := strconv.Atoi(args[0])
		if err != nil {
			return &model.ConfigError{Field: "quantum", Value: strconv.Quote(args[0]), Reason: "must be an integer"}
		}
		return sh.configure(q)
	case "add":
		if sh.sched == nil {
			return errors.New("set a quantum first")
		}
		if sh.executed {
			return errExecuted
		}
		spec, err := model.ParseProcessFields(args...)
		if err != nil {
			return err
		}
		return sh.sched.AddProcess(spec)
	case "run":
		return sh.run()
	case "report":
		if sh.sched == nil {
			return errors.New("set a quantum first")
		}
		printReport(sh.out, sh.sched.CompletionReport())
	case "status":
		if sh.sched == nil {
			fmt.Fprintln(sh.out, "No scheduler configured.")
			return nil
		}
		printSnapshot(sh.out, sh.sched.Snapshot())
	case "reset":
		if sh.sched == nil {
			return errors.New("set a quantum first")
		}
		return sh.configure(sh.quantum)
	case "help", "?":
		fmt.Fprintln(sh.out, shellHelp)
	case "quit", "exit":
		return errQuit
	default:
		return fmt.Errorf("unknown command %q (try help)", cmd)
	}
	return nil
}

// configure replaces the scheduler; queued processes are discarded.
func (sh *shell) configure(quantum int) error {
	sched, err := scheduler.New(quantum,
		scheduler.WithSink(scheduler.NewWriterSink(sh.out)),
		scheduler.WithLogger(logger),
	)
	if err != nil {
		return err
	}
	if sh.sched != nil {
		if n := sh.sched.Pending(); n > 0 {
			fmt.Fprintf(sh.out, "Discarded %d queued processes.\n", n)
		}
	}
	sh.quantum, sh.sched, sh.executed = quantum, sched, false
	fmt.Fprintf(sh.out, "Quantum set to %d.\n", quantum)
	return nil
}

func (sh *shell) run() error {
	if sh.sched == nil {
		return errors.New("set a quantum first")
	}
	if sh.executed {
		return errExecuted
	}
	if sh.sched.Pending() == 0 {
		fmt.Fprintln(sh.out, "Nothing to run.")
		return nil
	}
	sh.sched.Execute()
	sh.executed = true
	fmt.Fprintf(sh.out, "Execution finished at time %d.\n", sh.sched.Clock())

	if sh.dbPath != "" {
		run, err := recordLocal(sh.ctx, sh.dbPath, "shell", sh.sched)
		if err != nil {
			return err
		}
		fmt.Fprintf(sh.out, "Recorded as %s\n", run.ID)
	}
	return nil
}
