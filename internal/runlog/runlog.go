// Package runlog records sync runs in a local SQLite database so past
// outcomes stay inspectable after the process exits.
package runlog

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// Entry is one recorded sync run.
type Entry struct {
	ID            string     `json:"id"`
	Status        string     `json:"status"`
	StartedAt     time.Time  `json:"started_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	PageURL       string     `json:"page_url,omitempty"`
	RowsStaged    int        `json:"rows_staged"`
	RowsAppended  int        `json:"rows_appended"`
	SkippedRates  int        `json:"skipped_rates"`
	MissingDates  int        `json:"missing_dates"`
	UnmappedFuels int        `json:"unmapped_fuels"`
	Error         string     `json:"error,omitempty"`
}

// Summary holds the outcome of a successful run, passed to Complete.
type Summary struct {
	PageURL       string
	RowsStaged    int
	RowsAppended  int
	SkippedRates  int
	MissingDates  int
	UnmappedFuels int
}

// Run statuses.
const (
	StatusRunning  = "running"
	StatusComplete = "complete"
	StatusFailed   = "failed"
)

// Log provides read/write access to the sync_runs table.
type Log struct {
	db *sql.DB
}

// Open opens (or creates) the run log database at path and configures
// WAL mode.
func Open(path string) (*Log, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "runlog: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "runlog: exec %s", pragma)
		}
	}
	return &Log{db: db}, nil
}

const migration = `
CREATE TABLE IF NOT EXISTS sync_runs (
	id             TEXT PRIMARY KEY,
	status         TEXT NOT NULL DEFAULT 'running',
	started_at     DATETIME NOT NULL,
	completed_at   DATETIME,
	page_url       TEXT NOT NULL DEFAULT '',
	rows_staged    INTEGER NOT NULL DEFAULT 0,
	rows_appended  INTEGER NOT NULL DEFAULT 0,
	skipped_rates  INTEGER NOT NULL DEFAULT 0,
	missing_dates  INTEGER NOT NULL DEFAULT 0,
	unmapped_fuels INTEGER NOT NULL DEFAULT 0,
	error          TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_sync_runs_started_at ON sync_runs(started_at);
`

// Migrate creates the schema if it does not exist.
func (l *Log) Migrate(ctx context.Context) error {
	_, err := l.db.ExecContext(ctx, migration)
	return eris.Wrap(err, "runlog: migrate")
}

// Close closes the database.
func (l *Log) Close() error {
	return l.db.Close()
}

// Start records the beginning of a run and returns its ID.
func (l *Log) Start(ctx context.Context) (string, error) {
	id := uuid.New().String()
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO sync_runs (id, status, started_at) VALUES (?, ?, ?)`,
		id, StatusRunning, time.Now().UTC(),
	)
	if err != nil {
		return "", eris.Wrap(err, "runlog: start run")
	}
	return id, nil
}

// Complete marks a run as successfully completed with its summary counts.
func (l *Log) Complete(ctx context.Context, runID string, s Summary) error {
	_, err := l.db.ExecContext(ctx,
		`UPDATE sync_runs
		 SET status = ?, completed_at = ?, page_url = ?, rows_staged = ?,
		     rows_appended = ?, skipped_rates = ?, missing_dates = ?, unmapped_fuels = ?
		 WHERE id = ?`,
		StatusComplete, time.Now().UTC(), s.PageURL, s.RowsStaged,
		s.RowsAppended, s.SkippedRates, s.MissingDates, s.UnmappedFuels,
		runID,
	)
	if err != nil {
		return eris.Wrapf(err, "runlog: complete run %s", runID)
	}
	return nil
}

// Fail marks a run as failed with an error message.
func (l *Log) Fail(ctx context.Context, runID, errMsg string) error {
	_, err := l.db.ExecContext(ctx,
		`UPDATE sync_runs SET status = ?, completed_at = ?, error = ? WHERE id = ?`,
		StatusFailed, time.Now().UTC(), errMsg, runID,
	)
	if err != nil {
		return eris.Wrapf(err, "runlog: fail run %s", runID)
	}
	return nil
}

// List returns runs ordered most recent first. A limit <= 0 returns all.
func (l *Log) List(ctx context.Context, limit int) ([]Entry, error) {
	query := `SELECT id, status, started_at, completed_at, page_url, rows_staged,
	                 rows_appended, skipped_rates, missing_dates, unmapped_fuels, error
	          FROM sync_runs ORDER BY started_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "runlog: list runs")
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var completed sql.NullTime
		if err := rows.Scan(
			&e.ID, &e.Status, &e.StartedAt, &completed, &e.PageURL, &e.RowsStaged,
			&e.RowsAppended, &e.SkippedRates, &e.MissingDates, &e.UnmappedFuels, &e.Error,
		); err != nil {
			return nil, eris.Wrap(err, "runlog: scan run")
		}
		if completed.Valid {
			t := completed.Time
			e.CompletedAt = &t
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "runlog: iterate runs")
	}

	return entries, nil
}
