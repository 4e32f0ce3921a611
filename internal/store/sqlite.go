package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/me/rrsched/pkg/model"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and returns a Store.
// Use ":memory:" for an in-memory database (useful in tests).
func NewSQLiteStore(dbPath string, logger *slog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}

	// Each connection to ":memory:" is a separate database.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma wal: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		logger: logger.With("component", "store"),
	}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Migrate creates all required tables and indexes.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	s.logger.Debug("sql", "op", "migrate")
	return migrate(ctx, s.db)
}

// --- Run CRUD ---

func (s *SQLiteStore) CreateRun(ctx context.Context, run *model.Run) error {
	s.logger.Debug("sql", "op", "insert", "table", "runs", "id", run.ID)

	processesJSON, reportJSON, err := marshalRun(run)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, name, quantum, state, processes, report, total_time, event_count, error, created_at, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Name, run.Quantum, string(run.State), processesJSON, reportJSON,
		run.TotalTime, run.EventCount, run.Error,
		run.CreatedAt.Format(time.RFC3339Nano), formatTimePtr(run.CompletedAt),
	)
	return err
}

func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*model.Run, error) {
	s.logger.Debug("sql", "op", "select", "table", "runs", "id", id)

	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, quantum, state, processes, report, total_time, event_count, error, created_at, completed_at
		 FROM runs WHERE id = ?`, id,
	)
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, opts model.ListOptions) ([]*model.Run, int, error) {
	s.logger.Debug("sql", "op", "list", "table", "runs", "limit", opts.Limit, "offset", opts.Offset, "state", opts.State)
	opts.Clamp()

	where, args := "", []any{}
	if opts.State != "" {
		where = " WHERE state = ?"
		args = append(args, opts.State)
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, quantum, state, processes, report, total_time, event_count, error, created_at, completed_at
		 FROM runs`+where+` ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		append(args, opts.Limit, opts.Offset)...,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var runs []*model.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, 0, err
		}
		runs = append(runs, run)
	}
	return runs, total, rows.Err()
}

func (s *SQLiteStore) UpdateRun(ctx context.Context, run *model.Run) error {
	s.logger.Debug("sql", "op", "update", "table", "runs", "id", run.ID, "state", run.State)

	processesJSON, reportJSON, err := marshalRun(run)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET name = ?, state = ?, processes = ?, report = ?, total_time = ?, event_count = ?, error = ?, completed_at = ?
		 WHERE id = ?`,
		run.Name, string(run.State), processesJSON, reportJSON, run.TotalTime, run.EventCount, run.Error,
		formatTimePtr(run.CompletedAt), run.ID,
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("run %s not found", run.ID)
	}
	return nil
}

func (s *SQLiteStore) DeleteRun(ctx context.Context, id string) error {
	s.logger.Debug("sql", "op", "delete", "table", "runs", "id", id)

	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("run %s not found", id)
	}
	return nil
}

// --- Trace events ---

// AppendEvents inserts events for a run in one transaction.
func (s *SQLiteStore) AppendEvents(ctx context.Context, runID string, events []model.Event) error {
	if len(events) == 0 {
		return nil
	}
	s.logger.Debug("sql", "op", "insert", "table", "run_events", "run_id", runID, "count", len(events))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO run_events (run_id, seq, kind, pid, priority, slice, remaining, time)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, ev := range events {
		if _, err := stmt.ExecContext(ctx, runID, ev.Seq, string(ev.Kind), ev.PID, ev.Priority, ev.Slice, ev.Remaining, ev.Time); err != nil {
			return fmt.Errorf("insert event %d: %w", ev.Seq, err)
		}
	}
	return tx.Commit()
}

// ListEvents returns up to limit events with seq > afterSeq in seq order.
// A limit <= 0 returns all remaining events.
func (s *SQLiteStore) ListEvents(ctx context.Context, runID string, afterSeq, limit int) ([]model.Event, error) {
	s.logger.Debug("sql", "op", "list", "table", "run_events", "run_id", runID, "after", afterSeq, "limit", limit)

	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT seq, kind, pid, priority, slice, remaining, time
		 FROM run_events WHERE run_id = ? AND seq > ? ORDER BY seq LIMIT ?`,
		runID, afterSeq, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []model.Event{}
	for rows.Next() {
		var ev model.Event
		var kind string
		if err := rows.Scan(&ev.Seq, &kind, &ev.PID, &ev.Priority, &ev.Slice, &ev.Remaining, &ev.Time); err != nil {
			return nil, err
		}
		ev.Kind = model.EventKind(kind)
		events = append(events, ev)
	}
	return events, rows.Err()
}

// --- helpers ---

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*model.Run, error) {
	var run model.Run
	var state, processesJSON, reportJSON, createdAt string
	var completedAt sql.NullString

	if err := row.Scan(&run.ID, &run.Name, &run.Quantum, &state, &processesJSON, &reportJSON,
		&run.TotalTime, &run.EventCount, &run.Error, &createdAt, &completedAt); err != nil {
		return nil, err
	}
	run.State = model.RunState(state)

	if err := json.Unmarshal([]byte(processesJSON), &run.Processes); err != nil {
		return nil, fmt.Errorf("unmarshal processes: %w", err)
	}
	if reportJSON != "" {
		run.Report = &model.Report{}
		if err := json.Unmarshal([]byte(reportJSON), run.Report); err != nil {
			return nil, fmt.Errorf("unmarshal report: %w", err)
		}
	}
	run.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	if completedAt.Valid {
		t, _ := time.Parse(time.RFC3339Nano, completedAt.String)
		run.CompletedAt = &t
	}
	return &run, nil
}

func marshalRun(run *model.Run) (processesJSON, reportJSON string, err error) {
	processes := run.Processes
	if processes == nil {
		processes = []model.ProcessSpec{}
	}
	p, err := json.Marshal(processes)
	if err != nil {
		return "", "", fmt.Errorf("marshal processes: %w", err)
	}
	if run.Report != nil {
		r, err := json.Marshal(run.Report)
		if err != nil {
			return "", "", fmt.Errorf("marshal report: %w", err)
		}
		reportJSON = string(r)
	}
	return string(p), reportJSON, nil
}

func formatTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(time.RFC3339Nano)
}
