// Package history records screening runs in a local SQLite database.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/brightisle/cv-screener/internal/ai"
	"github.com/brightisle/cv-screener/internal/ranking"
)

// timeLayout sorts lexically in chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ErrRunNotFound is returned when no run has the requested ID.
var ErrRunNotFound = errors.New("history: run not found")

// Run is one recorded screening batch.
type Run struct {
	ID         string    `json:"id"`
	Criteria   string    `json:"criteria"`
	Strength   int       `json:"strength"`
	Applicants int       `json:"applicants"`
	Failure    string    `json:"failure,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Store is a SQLite backed run history.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (or creates) the history database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("history: mkdir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history: open db: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite: single writer

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: init schema: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS runs (
		id         TEXT PRIMARY KEY,
		criteria   TEXT NOT NULL,
		strength   INTEGER NOT NULL,
		applicants INTEGER NOT NULL,
		failure    TEXT,
		created_at TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS results (
		run_id            TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		position          INTEGER NOT NULL,
		applicant         TEXT NOT NULL,
		score             INTEGER NOT NULL,
		approval          TEXT NOT NULL,
		rationale         TEXT NOT NULL,
		resume_path       TEXT,
		cover_letter_path TEXT,
		PRIMARY KEY (run_id, position)
	)`)
	return err
}

// SaveRun stores a run and its ranked results in one transaction. failure is
// the classified failure name for aborted runs, empty otherwise.
func (s *Store) SaveRun(ctx context.Context, run Run, results []ranking.Result) error {
	if strings.TrimSpace(run.ID) == "" {
		return errors.New("history: run id is required")
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = s.now()
	}
	run.Applicants = len(results)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("history: begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, criteria, strength, applicants, failure, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.Criteria, run.Strength, run.Applicants, nullable(run.Failure), run.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("history: insert run: %w", err)
	}

	for i, r := range results {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO results (run_id, position, applicant, score, approval, rationale, resume_path, cover_letter_path)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID, i, r.Applicant, r.Score, string(r.Approval), r.Rationale, nullable(r.ResumePath), nullable(r.CoverLetterPath),
		)
		if err != nil {
			return fmt.Errorf("history: insert result %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("history: commit: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs first. limit <= 0 means 20.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, criteria, strength, applicants, failure, created_at FROM runs ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("history: list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRun returns a single run by ID.
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, criteria, strength, applicants, failure, created_at FROM runs WHERE id = ?`, id)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, ErrRunNotFound
	}
	return run, err
}

// Results returns the ranked results of a run in their stored order.
func (s *Store) Results(ctx context.Context, runID string) ([]ranking.Result, error) {
	if _, err := s.GetRun(ctx, runID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT applicant, score, approval, rationale, resume_path, cover_letter_path
		 FROM results WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("history: results: %w", err)
	}
	defer rows.Close()

	results := make([]ranking.Result, 0)
	for rows.Next() {
		var (
			r                 ranking.Result
			approval          string
			resumePath, cover sql.NullString
		)
		if err := rows.Scan(&r.Applicant, &r.Score, &approval, &r.Rationale, &resumePath, &cover); err != nil {
			return nil, fmt.Errorf("history: scan result: %w", err)
		}
		r.Approval = ai.Approval(approval)
		r.ResumePath = resumePath.String
		r.CoverLetterPath = cover.String
		results = append(results, r)
	}
	return results, rows.Err()
}

// ScreenedPaths returns the set of document paths evaluated by any earlier run.
func (s *Store) ScreenedPaths(ctx context.Context) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT resume_path FROM results WHERE resume_path IS NOT NULL
		 UNION SELECT cover_letter_path FROM results WHERE cover_letter_path IS NOT NULL`)
	if err != nil {
		return nil, fmt.Errorf("history: screened paths: %w", err)
	}
	defer rows.Close()

	paths := make(map[string]bool)
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, fmt.Errorf("history: scan path: %w", err)
		}
		paths[path] = true
	}
	return paths, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var (
		run       Run
		failure   sql.NullString
		createdAt string
	)
	if err := row.Scan(&run.ID, &run.Criteria, &run.Strength, &run.Applicants, &failure, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("history: scan run: %w", err)
	}

	run.Failure = failure.String
	parsed, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		return Run{}, fmt.Errorf("history: parse created_at %q: %w", createdAt, err)
	}
	run.CreatedAt = parsed
	return run, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
