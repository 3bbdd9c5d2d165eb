// Package history persists finished diagnostic sessions to a local sqlite
// database so past runs can be listed and compared. The store is best-effort
// infrastructure: it never influences a session's outcome.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/supporttools/wifi-doctor/pkg/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	started_at INTEGER NOT NULL,
	finished_at INTEGER NOT NULL,
	platform TEXT NOT NULL,
	dry_run INTEGER NOT NULL,
	rounds INTEGER NOT NULL,
	classification TEXT NOT NULL,
	outcome TEXT NOT NULL,
	report TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sessions_started ON sessions(started_at);
`

// Entry is one stored session summary. The full report is loaded on demand.
type Entry struct {
	ID             int64
	StartedAt      time.Time
	FinishedAt     time.Time
	Platform       string
	DryRun         bool
	Rounds         int
	Classification types.Classification
	Outcome        types.Outcome
}

// Store is a sqlite-backed session history.
type Store struct {
	db   *sql.DB
	keep int
}

// Open opens (and if needed creates) the history database at path. keep
// bounds how many sessions are retained; older sessions are pruned on save.
func Open(path string, keep int) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to reach history database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize history schema: %w", err)
	}
	return &Store{db: db, keep: keep}, nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// Save persists one finished session and prunes entries beyond the retention
// limit.
func (s *Store) Save(ctx context.Context, report *types.SessionReport) error {
	raw, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to encode session report: %w", err)
	}
	classification, err := json.Marshal(report.FinalClassification)
	if err != nil {
		return fmt.Errorf("failed to encode classification: %w", err)
	}

	dryRun := 0
	if report.DryRun {
		dryRun = 1
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sessions(started_at, finished_at, platform, dry_run, rounds, classification, outcome, report)
		 VALUES(?,?,?,?,?,?,?,?)`,
		report.StartedAt.Unix(), report.FinishedAt.Unix(), report.Platform, dryRun,
		len(report.Rounds), string(classification), string(report.Outcome), string(raw))
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE id NOT IN (
			SELECT id FROM sessions ORDER BY started_at DESC, id DESC LIMIT ?)`, s.keep)
	if err != nil {
		return fmt.Errorf("failed to prune history: %w", err)
	}
	return nil
}

// List returns up to limit most recent sessions, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, finished_at, platform, dry_run, rounds, classification, outcome
		 FROM sessions ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e              Entry
			started, done  int64
			dryRun         int
			classification string
		)
		if err := rows.Scan(&e.ID, &started, &done, &e.Platform, &dryRun,
			&e.Rounds, &classification, &e.Outcome); err != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		e.StartedAt = time.Unix(started, 0)
		e.FinishedAt = time.Unix(done, 0)
		e.DryRun = dryRun != 0
		if err := json.Unmarshal([]byte(classification), &e.Classification); err != nil {
			return nil, fmt.Errorf("failed to decode classification: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Load returns the full report for one stored session.
func (s *Store) Load(ctx context.Context, id int64) (*types.SessionReport, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT report FROM sessions WHERE id = ?`, id).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("no session with id %d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session %d: %w", id, err)
	}

	var report types.SessionReport
	if err := json.Unmarshal([]byte(raw), &report); err != nil {
		return nil, fmt.Errorf("failed to decode session %d: %w", id, err)
	}
	return &report, nil
}
