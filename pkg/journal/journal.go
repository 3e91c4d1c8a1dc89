// Package journal keeps a local sqlite record of pipeline runs and every
// action they took, so `xpurge history` can show what was removed and when.
package journal

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"xpurge/pkg/logger"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Run states
const (
	StateRunning = "running"
	StateDone    = "done"
	StateAborted = "aborted"
)

// Counts are the per-run counters stored with a run
type Counts struct {
	Batches int
	Fetched int
	Acted   int
	Skipped int
}

// Run is one row of the runs table
type Run struct {
	ID         string
	Kind       string
	Username   string
	Window     string
	State      string
	Counts     Counts
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Action is one row of the actions table
type Action struct {
	RunID     string
	TargetID  string
	Kind      string
	Outcome   string
	Error     string
	CreatedAt time.Time
}

// Journal is a sqlite backed run log
type Journal struct {
	db     *sql.DB
	logger logger.Logger
	now    func() time.Time
}

// Open opens (creating if needed) the journal at path and applies migrations
func Open(path string, log logger.Logger) (*Journal, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, fmt.Errorf("failed to create journal directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	// a single connection keeps :memory: databases alive and serialises writers
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping journal: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	log.DebugWithFields("Journal opened", map[string]interface{}{"path": path})
	return &Journal{db: db, logger: log, now: time.Now}, nil
}

func runMigrations(db *sql.DB) error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// Close releases the database
func (j *Journal) Close() error {
	return j.db.Close()
}

// StartRun inserts a running row and returns its id
func (j *Journal) StartRun(ctx context.Context, kind, username, window string) (string, error) {
	id := uuid.NewString()
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO runs (id, kind, username, time_window, state, started_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, kind, username, window, StateRunning, formatTime(j.now()))
	if err != nil {
		return "", fmt.Errorf("failed to record run start: %w", err)
	}
	return id, nil
}

// RecordAction appends one action to a run
func (j *Journal) RecordAction(ctx context.Context, a Action) error {
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO actions (run_id, target_id, kind, outcome, error, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		a.RunID, a.TargetID, a.Kind, a.Outcome, a.Error, formatTime(j.now()))
	if err != nil {
		return fmt.Errorf("failed to record action on %s: %w", a.TargetID, err)
	}
	return nil
}

// FinishRun stores the final state and counters of a run
func (j *Journal) FinishRun(ctx context.Context, runID, state string, counts Counts, errMsg string) error {
	res, err := j.db.ExecContext(ctx,
		`UPDATE runs SET state = ?, batches = ?, fetched = ?, acted = ?, skipped = ?, error = ?, finished_at = ? WHERE id = ?`,
		state, counts.Batches, counts.Fetched, counts.Acted, counts.Skipped, errMsg, formatTime(j.now()), runID)
	if err != nil {
		return fmt.Errorf("failed to record run end: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %s not found", runID)
	}
	return nil
}

// RecentRuns returns up to limit runs, newest first
func (j *Journal) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := j.db.QueryContext(ctx,
		`SELECT id, kind, username, time_window, state, batches, fetched, acted, skipped, error, started_at, finished_at
		 FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var started, finished string
		if err := rows.Scan(&r.ID, &r.Kind, &r.Username, &r.Window, &r.State,
			&r.Counts.Batches, &r.Counts.Fetched, &r.Counts.Acted, &r.Counts.Skipped,
			&r.Error, &started, &finished); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.StartedAt = parseTime(started)
		r.FinishedAt = parseTime(finished)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Actions returns the actions of a run in the order they were taken
func (j *Journal) Actions(ctx context.Context, runID string) ([]Action, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT run_id, target_id, kind, outcome, error, created_at FROM actions WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query actions: %w", err)
	}
	defer rows.Close()

	var actions []Action
	for rows.Next() {
		var a Action
		var created string
		if err := rows.Scan(&a.RunID, &a.TargetID, &a.Kind, &a.Outcome, &a.Error, &created); err != nil {
			return nil, fmt.Errorf("failed to scan action: %w", err)
		}
		a.CreatedAt = parseTime(created)
		actions = append(actions, a)
	}
	return actions, rows.Err()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}
