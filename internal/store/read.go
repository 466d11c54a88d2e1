package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/migsmoke/internal/harness"
)

// ErrRunNotFound is returned when a run ID is not in the store.
var ErrRunNotFound = errors.New("run not found")

// RunRecord is a stored run summary.
type RunRecord struct {
	ID        string        `json:"id" yaml:"id"`
	Title     string        `json:"title" yaml:"title"`
	StartedAt time.Time     `json:"started_at" yaml:"started_at"`
	Duration  time.Duration `json:"duration_ns" yaml:"duration_ns"`
	Passed    int           `json:"passed" yaml:"passed"`
	Failed    int           `json:"failed" yaml:"failed"`
	Pass      bool          `json:"pass" yaml:"pass"`
}

// CheckRecord is a stored check outcome together with the run it belongs to.
type CheckRecord struct {
	RunID     string    `json:"run_id" yaml:"run_id"`
	StartedAt time.Time `json:"started_at" yaml:"started_at"`
	harness.CheckResult `yaml:",inline"`
}

// ListRuns returns stored runs, newest first. limit <= 0 returns all runs.
//
// Returns an empty slice (not nil) when the store is empty.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	query := `
		SELECT id, title, started_at, duration_ns, passed, failed, pass
		FROM runs
		ORDER BY started_at DESC, id DESC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []RunRecord{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	return runs, nil
}

// GetRun returns a single run summary, or ErrRunNotFound.
func (s *Store) GetRun(ctx context.Context, runID string) (RunRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, started_at, duration_ns, passed, failed, pass
		FROM runs
		WHERE id = ?
	`, runID)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return RunRecord{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return run, err
}

// CheckResults returns the check outcomes of a run in execution order.
func (s *Store) CheckResults(ctx context.Context, runID string) ([]harness.CheckResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, name, pass, note, error, duration_ns
		FROM check_results
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query check results: %w", err)
	}
	defer rows.Close()

	results := []harness.CheckResult{}
	for rows.Next() {
		var (
			cr       harness.CheckResult
			pass     int
			duration int64
		)
		if err := rows.Scan(&cr.Seq, &cr.Name, &pass, &cr.Note, &cr.Error, &duration); err != nil {
			return nil, fmt.Errorf("scan check result: %w", err)
		}
		cr.Pass = pass == 1
		cr.Duration = time.Duration(duration)
		results = append(results, cr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate check results: %w", err)
	}

	return results, nil
}

// CheckHistory returns the recorded outcomes of one check across runs,
// newest first. limit <= 0 returns all.
func (s *Store) CheckHistory(ctx context.Context, name string, limit int) ([]CheckRecord, error) {
	query := `
		SELECT c.run_id, r.started_at, c.seq, c.name, c.pass, c.note, c.error, c.duration_ns
		FROM check_results c
		JOIN runs r ON r.id = c.run_id
		WHERE c.name = ?
		ORDER BY r.started_at DESC, r.id DESC, c.seq ASC
	`
	args := []any{norm.NFC.String(name)}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query check history: %w", err)
	}
	defer rows.Close()

	records := []CheckRecord{}
	for rows.Next() {
		var (
			rec       CheckRecord
			startedAt string
			pass      int
			duration  int64
		)
		if err := rows.Scan(&rec.RunID, &startedAt, &rec.Seq, &rec.Name, &pass, &rec.Note, &rec.Error, &duration); err != nil {
			return nil, fmt.Errorf("scan check history: %w", err)
		}
		if rec.StartedAt, err = parseTime(startedAt); err != nil {
			return nil, fmt.Errorf("parse started_at %q: %w", startedAt, err)
		}
		rec.Pass = pass == 1
		rec.Duration = time.Duration(duration)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate check history: %w", err)
	}

	return records, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (RunRecord, error) {
	var (
		run       RunRecord
		startedAt string
		duration  int64
		pass      int
	)
	if err := row.Scan(&run.ID, &run.Title, &startedAt, &duration, &run.Passed, &run.Failed, &pass); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return RunRecord{}, err
		}
		return RunRecord{}, fmt.Errorf("scan run: %w", err)
	}

	t, err := parseTime(startedAt)
	if err != nil {
		return RunRecord{}, fmt.Errorf("parse started_at %q: %w", startedAt, err)
	}
	run.StartedAt = t
	run.Duration = time.Duration(duration)
	run.Pass = pass == 1
	return run, nil
}
