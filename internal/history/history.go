// CLAUDE:SUMMARY Optional SQLite archive of runs and verdict statuses, feeding the changes-since-previous-run section.
// Package history archives completed runs so a report can show which
// checks changed status since the previous run.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hazyhaar/flipcheck/internal/verdict"
)

// Run is one archived run.
type Run struct {
	ID        string
	StartedAt time.Time
	URL       string
	Mode      string
	Aborted   string
	Counts    verdict.Counts
	Verdicts  []verdict.Verdict
}

// Store is the run archive.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens or creates the archive at path.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}
	return &Store{db: db, logger: logger}, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// Save archives run and its verdicts in one transaction.
func (s *Store) Save(ctx context.Context, run Run) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("history: begin: %w", err)
	}
	defer tx.Rollback()

	c := run.Counts
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, url, mode, aborted, total, passed, failed, skipped)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.StartedAt.UnixMilli(), run.URL, run.Mode, run.Aborted,
		c.Total, c.Passed, c.Failed, c.Skipped,
	); err != nil {
		return fmt.Errorf("history: insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO verdicts (run_id, seq, vid, name, status, detail) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("history: prepare: %w", err)
	}
	defer stmt.Close()
	for i, v := range run.Verdicts {
		if _, err := stmt.ExecContext(ctx, run.ID, i, v.ID.String(), v.Name, v.Status.String(), v.Detail); err != nil {
			return fmt.Errorf("history: insert verdict %s: %w", v.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("history: commit: %w", err)
	}
	s.logger.Info("history: run saved", "run_id", run.ID, "verdicts", len(run.Verdicts))
	return nil
}

// Previous returns the verdict statuses of the most recent archived run,
// keyed by verdict id, and that run's id. Both are empty when nothing is
// archived. A repeated id keeps its last status.
func (s *Store) Previous(ctx context.Context) (map[string]verdict.Status, string, error) {
	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM runs ORDER BY started_at DESC, id DESC LIMIT 1`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return map[string]verdict.Status{}, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("history: latest run: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT vid, status FROM verdicts WHERE run_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, "", fmt.Errorf("history: verdicts: %w", err)
	}
	defer rows.Close()

	out := make(map[string]verdict.Status)
	for rows.Next() {
		var vid, status string
		if err := rows.Scan(&vid, &status); err != nil {
			return nil, "", fmt.Errorf("history: scan: %w", err)
		}
		st, ok := verdict.ParseStatus(status)
		if !ok {
			s.logger.Warn("history: unknown status", "run_id", id, "vid", vid, "status", status)
			continue
		}
		out[vid] = st
	}
	return out, id, rows.Err()
}

// Count returns the number of archived runs.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("history: count: %w", err)
	}
	return n, nil
}
