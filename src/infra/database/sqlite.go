package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/contre95/dropzone/src/features/history"
	"github.com/contre95/dropzone/src/features/watching"
	_ "github.com/mattn/go-sqlite3"
)

// fixed width so that timestamps sort as text
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

var _ history.Store = (*SqliteHistory)(nil)

// SqliteHistory is a SQLite implementation of the history Store.
type SqliteHistory struct {
	db *sql.DB
}

// NewSqliteHistory opens (or creates) the database at path.
func NewSqliteHistory(path string) (*SqliteHistory, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, err
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return &SqliteHistory{db: db}, nil
}

func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS outcomes (
			id TEXT PRIMARY KEY,
			watcher TEXT NOT NULL,
			processor TEXT,
			path TEXT NOT NULL,
			event TEXT,
			status TEXT NOT NULL,
			size INTEGER,
			summary TEXT,
			output_path TEXT,
			error TEXT,
			detected_at TEXT NOT NULL,
			stable_after_ns INTEGER,
			processing_ns INTEGER,
			finished_at TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_outcomes_watcher ON outcomes(watcher, finished_at);
		CREATE INDEX IF NOT EXISTS idx_outcomes_status ON outcomes(status);
	`)
	return err
}

// Close closes the database.
func (d *SqliteHistory) Close() error {
	return d.db.Close()
}

// Record stores an outcome.
func (d *SqliteHistory) Record(ctx context.Context, o watching.Outcome) error {
	_, err := d.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO outcomes (
			id, watcher, processor, path, event, status, size, summary, output_path, error,
			detected_at, stable_after_ns, processing_ns, finished_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		o.ID, o.Watcher, o.Processor, o.Path, string(o.Event), string(o.Status), o.Size,
		o.Summary, o.OutputPath, o.Error,
		o.DetectedAt.UTC().Format(timeLayout), int64(o.StableAfter), int64(o.ProcessingTime),
		o.FinishedAt.UTC().Format(timeLayout),
	)
	return err
}

// List returns the latest outcomes matching q, most recent first.
func (d *SqliteHistory) List(ctx context.Context, q history.Query) ([]watching.Outcome, error) {
	where, args := whereClause(q.Watcher, q.Status)
	query := `
		SELECT id, watcher, processor, path, event, status, size, summary, output_path, error,
			detected_at, stable_after_ns, processing_ns, finished_at
		FROM outcomes` + where + `
		ORDER BY finished_at DESC`
	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	outcomes := []watching.Outcome{}
	for rows.Next() {
		o, err := scanOutcome(rows)
		if err != nil {
			return nil, err
		}
		outcomes = append(outcomes, o)
	}
	return outcomes, rows.Err()
}

// Summary counts outcomes per status, for one watcher or all of them.
func (d *SqliteHistory) Summary(ctx context.Context, watcher string) (map[watching.Status]int, error) {
	where, args := whereClause(watcher, "")
	rows, err := d.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM outcomes`+where+` GROUP BY status`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[watching.Status]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[watching.Status(status)] = count
	}
	return counts, rows.Err()
}

func whereClause(watcher string, status watching.Status) (string, []any) {
	var conditions []string
	var args []any
	if watcher != "" {
		conditions = append(conditions, "watcher = ?")
		args = append(args, watcher)
	}
	if status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, string(status))
	}
	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

func scanOutcome(rows *sql.Rows) (watching.Outcome, error) {
	var o watching.Outcome
	var processor, event, summary, outputPath, errMsg sql.NullString
	var size, stableNs, processingNs sql.NullInt64
	var detectedAt, finishedAt, status string

	err := rows.Scan(
		&o.ID, &o.Watcher, &processor, &o.Path, &event, &status, &size, &summary, &outputPath, &errMsg,
		&detectedAt, &stableNs, &processingNs, &finishedAt,
	)
	if err != nil {
		return o, err
	}

	o.Processor = processor.String
	o.Event = watching.EventKind(event.String)
	o.Status = watching.Status(status)
	o.Size = size.Int64
	o.Summary = summary.String
	o.OutputPath = outputPath.String
	o.Error = errMsg.String
	if o.Error != "" {
		o.Err = errors.New(o.Error)
	}
	o.StableAfter = time.Duration(stableNs.Int64)
	o.ProcessingTime = time.Duration(processingNs.Int64)
	if o.DetectedAt, err = time.Parse(timeLayout, detectedAt); err != nil {
		return o, fmt.Errorf("invalid detected_at %q: %w", detectedAt, err)
	}
	if o.FinishedAt, err = time.Parse(timeLayout, finishedAt); err != nil {
		return o, fmt.Errorf("invalid finished_at %q: %w", finishedAt, err)
	}
	return o, nil
}
