package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/me/rrsched/internal/config"
	"github.com/me/rrsched/internal/server"
	"github.com/me/rrsched/internal/store"
	"github.com/me/rrsched/pkg/model"
)

const pairWorkload = `name: pair
quantum: 2
processes:
  - {pid: 1, arrival_time: 0, burst_time: 5, priority: 1}
  - {pid: 2, arrival_time: 0, burst_time: 3, priority: 1}
`

// startTestServer starts a server with an in-memory SQLite store and returns the URL.
func startTestServer(t *testing.T) string {
	t.Helper()
	srvLogger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelError}))
	st, err := store.NewSQLiteStore(":memory:", srvLogger)
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	if err := st.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate test store: %v", err)
	}

	srv := server.New(config.DefaultServerConfig(), st, srvLogger)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		srv.Close()
		st.Close()
	})
	return ts.URL
}

func writeWorkload(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pair.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write workload: %v", err)
	}
	return path
}

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()

	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--log-level", "error"}, args...))

	err := root.Execute()
	return buf.String(), err
}

// --- simulate ---

func TestSimulateCommand_Text(t *testing.T) {
	out, err := runCLI(t, "", "simulate", writeWorkload(t, pairWorkload))
	if err != nil {
		t.Fatalf("simulate: %v\n%s", err, out)
	}
	for _, want := range []string{
		"Process 1 with priority 1 added to queue.",
		"-- Executing processes in priority level 1 --",
		"Process 1 ran 2 at time 2, 3 remaining.",
		"Process 2 completed at time 7.",
		"Process 1 completed at time 8.",
		"Completed processes (quantum 2, total time 8):",
		"Average waiting:    3.50",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestSimulateCommand_NoTrace(t *testing.T) {
	out, err := runCLI(t, "", "simulate", "--trace=false", writeWorkload(t, pairWorkload))
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	if strings.Contains(out, "added to queue") {
		t.Errorf("trace printed with --trace=false:\n%s", out)
	}
	if !strings.Contains(out, "Completed processes") {
		t.Errorf("report missing:\n%s", out)
	}
}

func TestSimulateCommand_JSON(t *testing.T) {
	out, err := runCLI(t, "", "simulate", "-o", "json", writeWorkload(t, pairWorkload))
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	var result struct {
		Name   string        `json:"name"`
		Trace  []model.Event `json:"trace"`
		Report model.Report  `json:"report"`
	}
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if result.Name != "pair" || len(result.Report.Entries) != 2 || len(result.Trace) != 13 {
		t.Errorf("result = %+v", result)
	}
}

func TestSimulateCommand_InvalidWorkload(t *testing.T) {
	_, err := runCLI(t, "", "simulate", writeWorkload(t, "quantum: 0\n"))
	if err == nil || !strings.Contains(err.Error(), "quantum") {
		t.Fatalf("err = %v, want quantum error", err)
	}
	if _, err := runCLI(t, "", "simulate", "-o", "xml", writeWorkload(t, pairWorkload)); err == nil {
		t.Error("expected error for unknown output format")
	}
}

func TestSimulateCommand_RecordsToDB(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs.db")
	out, err := runCLI(t, "", "simulate", "--trace=false", "--db", dbPath, writeWorkload(t, pairWorkload))
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	if !strings.Contains(out, "Recorded as run_") {
		t.Errorf("output missing run id:\n%s", out)
	}

	st, err := store.NewSQLiteStore(dbPath, slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer st.Close()
	runs, total, err := st.ListRuns(context.Background(), model.DefaultListOptions())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 1 || runs[0].Name != "pair" || runs[0].State != model.RunStateCompleted {
		t.Errorf("runs = %+v", runs)
	}
}

// --- shell ---

func TestShellCommand_Session(t *testing.T) {
	script := strings.Join([]string{
		"add 1 0 5 1",
		"quantum 0",
		"quantum two",
		"quantum 2",
		"add 1 0 5 1",
		"add 2 0 3 x",
		"add 2 0 -3 1",
		"add 2 0 3 1",
		"status",
		"run",
		"report",
		"bogus",
		"quit",
		"add 9 9 9 9",
	}, "\n")

	out, err := runCLI(t, script, "shell")
	if err != nil {
		t.Fatalf("shell: %v\n%s", err, out)
	}
	for _, want := range []string{
		"error: set a quantum first",
		"error: invalid configuration: quantum=0",
		`error: invalid configuration: quantum="two"`,
		"Quantum set to 2.",
		`error: invalid process: priority="x": must be an integer`,
		"error: invalid process: burst_time=-3",
		"Process 2 with priority 1 added to queue.",
		"level 1: [1 2]",
		"Process 2 completed at time 7.",
		"Execution finished at time 8.",
		"Average turnaround: 7.50",
		`error: unknown command "bogus"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Process 9") {
		t.Error("shell kept reading after quit")
	}
}

func TestShellCommand_ResetAndEOF(t *testing.T) {
	out, err := runCLI(t, "quantum 3\nadd 1 0 4 0\nreset\nrun\nstatus\n", "shell")
	if err != nil {
		t.Fatalf("shell: %v", err)
	}
	if !strings.Contains(out, "Discarded 1 queued processes.") {
		t.Errorf("reset did not discard:\n%s", out)
	}
	if !strings.Contains(out, "Nothing to run.") {
		t.Errorf("run after reset:\n%s", out)
	}
	if !strings.Contains(out, "Quantum 3, time 0, 0 of 0 processes pending") {
		t.Errorf("status after reset:\n%s", out)
	}
}

func TestShellCommand_RecordsEachTableOnce(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "shell.db")
	script := strings.Join([]string{
		"quantum 2",
		"add 1 0 2 0",
		"run",
		"add 2 0 1 0",
		"run",
		"reset",
		"add 3 0 2 0",
		"run",
	}, "\n")

	out, err := runCLI(t, script, "shell", "--db", dbPath)
	if err != nil {
		t.Fatalf("shell: %v\n%s", err, out)
	}
	if n := strings.Count(out, "error: process table already executed"); n != 2 {
		t.Errorf("got %d already-executed errors, want 2:\n%s", n, out)
	}
	if strings.Contains(out, "Process 2 with priority 0 added") {
		t.Errorf("process added after run:\n%s", out)
	}

	st, err := store.NewSQLiteStore(dbPath, slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer st.Close()
	runs, total, err := st.ListRuns(context.Background(), model.DefaultListOptions())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 2 {
		t.Fatalf("recorded %d runs, want 2", total)
	}
	for _, run := range runs {
		if len(run.Processes) != 1 || run.EventCount != 4 {
			t.Errorf("run %s: %d processes, %d events, want 1 and 4", run.ID, len(run.Processes), run.EventCount)
		}
	}
}

// --- remote commands ---

var runIDPattern = regexp.MustCompile(`run_[0-9a-f-]{36}`)

func submitPair(t *testing.T, url string) string {
	t.Helper()
	out, err := runCLI(t, "", "--server", url, "submit", writeWorkload(t, pairWorkload))
	if err != nil {
		t.Fatalf("submit: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Run created:") || !strings.Contains(out, "COMPLETED") {
		t.Errorf("submit output:\n%s", out)
	}
	id := runIDPattern.FindString(out)
	if id == "" {
		t.Fatalf("no run id in output:\n%s", out)
	}
	return id
}

func TestSubmitCommand_InvalidWorkloadNotSent(t *testing.T) {
	url := startTestServer(t)
	if _, err := runCLI(t, "", "--server", url, "submit", writeWorkload(t, "quantum: -1\n")); err == nil {
		t.Fatal("expected validation error")
	}
	out, err := runCLI(t, "", "--server", url, "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "No runs found.") {
		t.Errorf("invalid workload was submitted:\n%s", out)
	}
}

func TestRemoteCommands(t *testing.T) {
	url := startTestServer(t)
	id := submitPair(t, url)

	out, err := runCLI(t, "", "--server", url, "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, id) || !strings.Contains(out, "pair") {
		t.Errorf("list output:\n%s", out)
	}

	out, err = runCLI(t, "", "--server", url, "show", id)
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	if !strings.Contains(out, "Total time: 8") || !strings.Contains(out, "Events:     13") {
		t.Errorf("show output:\n%s", out)
	}

	out, err = runCLI(t, "", "--server", url, "events", "--limit", "5", "--all", id)
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if got := strings.Count(out, "\n"); got != 13 {
		t.Errorf("event lines = %d, want 13:\n%s", got, out)
	}
	if !strings.Contains(out, "Process 1 completed at time 8.") {
		t.Errorf("events output:\n%s", out)
	}

	out, err = runCLI(t, "", "--server", url, "report", id)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if !strings.Contains(out, "Average waiting:    3.50") {
		t.Errorf("report output:\n%s", out)
	}

	if _, err := runCLI(t, "", "--server", url, "delete", id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	_, err = runCLI(t, "", "--server", url, "show", id)
	if err == nil || !strings.Contains(err.Error(), "NOT_FOUND") {
		t.Errorf("show after delete err = %v", err)
	}
}
