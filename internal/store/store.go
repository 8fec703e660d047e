package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
	_ "modernc.org/sqlite"

	"github.com/valpere/corpclean/internal"
)

var ErrRunNotFound = errors.New("run not found")

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS cleaning_runs (
		id TEXT PRIMARY KEY,
		input_dir TEXT NOT NULL,
		output_dir TEXT NOT NULL,
		source_lang TEXT NOT NULL,
		target_lang TEXT NOT NULL,
		concurrency INTEGER NOT NULL,
		corpora INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'running',
		error TEXT NOT NULL DEFAULT '',
		started_at TIMESTAMP NOT NULL,
		finished_at TIMESTAMP
	);

	-- corpus_results holds one row per corpus that finished cleaning
	CREATE TABLE IF NOT EXISTS corpus_results (
		run_id TEXT NOT NULL,
		corpus TEXT NOT NULL,
		read_pairs INTEGER NOT NULL,
		written_pairs INTEGER NOT NULL,
		dropped_pairs INTEGER NOT NULL,
		digest TEXT NOT NULL DEFAULT '',
		duration_ms INTEGER NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (run_id, corpus),
		FOREIGN KEY (run_id) REFERENCES cleaning_runs(id)
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON cleaning_runs(started_at);
	CREATE INDEX IF NOT EXISTS idx_results_run ON corpus_results(run_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// SaveRun inserts a run in the running state and returns its ID. A new UUID
// is assigned when run.ID is empty.
func (s *Store) SaveRun(ctx context.Context, run internal.CleaningRun) (string, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	if run.Status == "" {
		run.Status = internal.RunRunning
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO cleaning_runs (id, input_dir, output_dir, source_lang, target_lang, concurrency, corpora, status, started_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, normalizeText(run.InputDir), normalizeText(run.OutputDir), run.SourceLang, run.TargetLang,
		run.Concurrency, run.Corpora, run.Status, run.StartedAt)
	if err != nil {
		return "", err
	}
	return run.ID, nil
}

// CompleteRun records the final status of a run.
func (s *Store) CompleteRun(ctx context.Context, runID, status, errMsg string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE cleaning_runs SET status = ?, error = ?, finished_at = ? WHERE id = ?`,
		status, errMsg, time.Now(), runID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}

func (s *Store) SaveCorpusResult(ctx context.Context, r internal.CorpusResult) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO corpus_results (run_id, corpus, read_pairs, written_pairs, dropped_pairs, digest, duration_ms) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, normalizeText(r.Corpus), r.Read, r.Written, r.Dropped, r.Digest, r.Duration.Milliseconds())
	return err
}

const runColumns = `id, input_dir, output_dir, source_lang, target_lang, concurrency, corpora, status, error, started_at, finished_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (internal.CleaningRun, error) {
	var r internal.CleaningRun
	var finished sql.NullTime
	err := row.Scan(&r.ID, &r.InputDir, &r.OutputDir, &r.SourceLang, &r.TargetLang,
		&r.Concurrency, &r.Corpora, &r.Status, &r.Error, &r.StartedAt, &finished)
	if finished.Valid {
		r.FinishedAt = finished.Time
	}
	return r, err
}

// ListRuns returns the most recent runs first. A limit of zero or less
// returns every run.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]internal.CleaningRun, error) {
	query := `SELECT ` + runColumns + ` FROM cleaning_runs ORDER BY started_at DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []internal.CleaningRun
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetRun returns a run and its per-corpus results ordered by corpus name.
func (s *Store) GetRun(ctx context.Context, runID string) (*internal.CleaningRun, []internal.CorpusResult, error) {
	run, err := scanRun(s.db.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM cleaning_runs WHERE id = ?`, runID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, corpus, read_pairs, written_pairs, dropped_pairs, digest, duration_ms FROM corpus_results WHERE run_id = ? ORDER BY corpus`,
		runID)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var results []internal.CorpusResult
	for rows.Next() {
		var r internal.CorpusResult
		var ms int64
		if err := rows.Scan(&r.RunID, &r.Corpus, &r.Read, &r.Written, &r.Dropped, &r.Digest, &ms); err != nil {
			return nil, nil, err
		}
		r.Duration = time.Duration(ms) * time.Millisecond
		results = append(results, r)
	}
	return &run, results, rows.Err()
}

// HistoryStats summarises every recorded run.
type HistoryStats struct {
	TotalRuns     int
	CompletedRuns int
	FailedRuns    int
	Corpora       int
	PairsRead     int
	PairsWritten  int
	PairsDropped  int
}

func (s *Store) Stats(ctx context.Context) (*HistoryStats, error) {
	stats := &HistoryStats{}

	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN status = 'completed' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status IN ('failed', 'interrupted') THEN 1 ELSE 0 END), 0)
		FROM cleaning_runs`).Scan(
		&stats.TotalRuns,
		&stats.CompletedRuns,
		&stats.FailedRuns,
	)
	if err != nil {
		return nil, err
	}

	err = s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(read_pairs), 0),
			COALESCE(SUM(written_pairs), 0),
			COALESCE(SUM(dropped_pairs), 0)
		FROM corpus_results`).Scan(
		&stats.Corpora,
		&stats.PairsRead,
		&stats.PairsWritten,
		&stats.PairsDropped,
	)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// ClearRuns removes every run and its results.
func (s *Store) ClearRuns(ctx context.Context) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM corpus_results`); err != nil {
		return 0, err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM cleaning_runs`)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return n, tx.Commit()
}

func (s *Store) Close() error {
	return s.db.Close()
}

// normalizeText trims whitespace and applies Unicode NFC normalization so
// paths and corpus names compare consistently across platforms.
func normalizeText(text string) string {
	return norm.NFC.String(strings.TrimSpace(text))
}
