package store

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/migsmoke/internal/harness"
)

// timeLayout is used for started_at so lexical order equals chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// RecordRun stores a harness result and its per-check outcomes in a single
// transaction and returns the new run ID.
func (s *Store) RecordRun(ctx context.Context, result *harness.Result) (string, error) {
	if result == nil {
		return "", fmt.Errorf("record run: nil result")
	}

	id := s.newID()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("record run: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, title, started_at, duration_ns, passed, failed, pass)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		id,
		result.Title,
		result.StartedAt.UTC().Format(timeLayout),
		int64(result.Duration),
		result.Passed,
		result.Failed,
		boolToInt(result.Pass),
	)
	if err != nil {
		return "", fmt.Errorf("record run: insert run: %w", err)
	}

	for _, cr := range result.Checks {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO check_results
			(run_id, seq, name, pass, note, error, duration_ns)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`,
			id,
			cr.Seq,
			norm.NFC.String(cr.Name),
			boolToInt(cr.Pass),
			cr.Note,
			cr.Error,
			int64(cr.Duration),
		)
		if err != nil {
			return "", fmt.Errorf("record run: insert check %d (%s): %w", cr.Seq, cr.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("record run: commit: %w", err)
	}
	return id, nil
}

// DeleteRun removes a run and (via foreign key cascade) its check results.
// Deleting an unknown ID is not an error.
func (s *Store) DeleteRun(ctx context.Context, runID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, runID); err != nil {
		return fmt.Errorf("delete run %s: %w", runID, err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}
