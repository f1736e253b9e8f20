package store

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/loom/internal/trace"
)

var _ trace.Sink = (*Store)(nil)

// BeginSession records the start of a run. Beginning an existing session is
// a no-op.
func (s *Store) BeginSession(ctx context.Context, id, platform string, startedAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, started_at, platform)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, id, formatTime(startedAt), platform)
	if err != nil {
		return fmt.Errorf("begin session: %w", err)
	}
	return nil
}

// EndSession stamps the session with its end time and overall outcome.
func (s *Store) EndSession(ctx context.Context, id, outcome string, endedAt time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE sessions SET ended_at = ?, outcome = ? WHERE id = ?
	`, formatTime(endedAt), outcome, id)
	if err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("end session %s: %w", id, ErrSessionNotFound)
	}
	return nil
}

// WriteEntries appends a batch of trace entries in one transaction.
// Entries already stored under the same (session, seq) are ignored, so a batch
// may be retried.
func (s *Store) WriteEntries(ctx context.Context, entries []trace.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write entries: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO trace_entries (session_id, seq, engine, stage, kind, detail)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id, seq) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("write entries: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, e.Session, e.Seq, e.Engine, string(e.Stage), e.Kind, e.Detail); err != nil {
			return fmt.Errorf("write entry %d: %w", e.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write entries: %w", err)
	}
	return nil
}

// WriteResult records how one engine of a session stopped. A later write for
// the same engine replaces the earlier one.
func (s *Store) WriteResult(ctx context.Context, r EngineResult) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO engine_results (session_id, engine, outcome, error)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(session_id, engine) DO UPDATE SET
			outcome = excluded.outcome,
			error = excluded.error
	`, r.Session, r.Engine, r.Outcome, r.Error)
	if err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
