package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/loom/internal/trace"
)

// ErrSessionNotFound is returned when a session id is not in the store.
var ErrSessionNotFound = errors.New("session not found")

// Session is one recorded run.
type Session struct {
	ID        string
	StartedAt time.Time
	Platform  string

	// EndedAt and Outcome are zero while the run is in progress, or if it
	// never finished.
	EndedAt time.Time
	Outcome string
}

// Finished reports whether the session was ended.
func (s Session) Finished() bool {
	return !s.EndedAt.IsZero()
}

// EngineResult is how one engine of a session stopped.
type EngineResult struct {
	Session string
	Engine  string
	Outcome string
	Error   string
}

// ReadSession returns a session and its trace entries ordered by seq.
func (s *Store) ReadSession(ctx context.Context, id string) (Session, []trace.Entry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, started_at, platform, ended_at, outcome
		FROM sessions WHERE id = ?
	`, id)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, nil, fmt.Errorf("read session %s: %w", id, ErrSessionNotFound)
	}
	if err != nil {
		return Session{}, nil, fmt.Errorf("read session %s: %w", id, err)
	}

	entries, err := s.QueryEntries(ctx, id, nil)
	if err != nil {
		return Session{}, nil, err
	}
	return sess, entries, nil
}

// ReadResults returns the engine results of a session ordered by engine name.
func (s *Store) ReadResults(ctx context.Context, id string) ([]EngineResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, engine, outcome, error
		FROM engine_results
		WHERE session_id = ?
		ORDER BY engine COLLATE BINARY ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	results := []EngineResult{}
	for rows.Next() {
		var r EngineResult
		if err := rows.Scan(&r.Session, &r.Engine, &r.Outcome, &r.Error); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate results: %w", err)
	}
	return results, nil
}

// ListSessions returns every session, most recent first.
func (s *Store) ListSessions(ctx context.Context) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, platform, ended_at, outcome
		FROM sessions
		ORDER BY started_at DESC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []Session{}
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (Session, error) {
	var (
		sess           Session
		started        string
		ended, outcome sql.NullString
	)
	if err := row.Scan(&sess.ID, &started, &sess.Platform, &ended, &outcome); err != nil {
		return Session{}, err
	}

	var err error
	if sess.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
		return Session{}, fmt.Errorf("parse started_at: %w", err)
	}
	if ended.Valid {
		if sess.EndedAt, err = time.Parse(time.RFC3339Nano, ended.String); err != nil {
			return Session{}, fmt.Errorf("parse ended_at: %w", err)
		}
	}
	sess.Outcome = outcome.String
	return sess, nil
}
