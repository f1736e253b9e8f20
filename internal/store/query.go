package store

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/loom/internal/trace"
)

// Predicate is a condition on trace entries.
//
// This is a sealed interface: Equals and And are the only predicates, and
// every value is bound as a parameter, never interpolated.
type Predicate interface {
	predicateNode()
}

// Entry columns a predicate may test.
const (
	FieldEngine = "engine"
	FieldStage  = "stage"
	FieldKind   = "kind"
)

var filterFields = []string{FieldEngine, FieldStage, FieldKind}

// Equals matches entries whose Field equals Value.
type Equals struct {
	Field string
	Value string
}

// And matches entries that satisfy every predicate. An empty And matches
// everything.
type And struct {
	Predicates []Predicate
}

func (Equals) predicateNode() {}
func (And) predicateNode()    {}

// EntryFilter builds a predicate from the non-empty arguments. With none set
// it returns nil, which matches every entry.
func EntryFilter(engine string, stage trace.Stage, kind string) Predicate {
	var preds []Predicate
	if engine != "" {
		preds = append(preds, Equals{Field: FieldEngine, Value: engine})
	}
	if stage != "" {
		preds = append(preds, Equals{Field: FieldStage, Value: string(stage)})
	}
	if kind != "" {
		preds = append(preds, Equals{Field: FieldKind, Value: kind})
	}
	if len(preds) == 0 {
		return nil
	}
	return And{Predicates: preds}
}

// QueryEntries returns the entries of a session matching p, ordered by seq.
// A nil predicate matches every entry.
func (s *Store) QueryEntries(ctx context.Context, session string, p Predicate) ([]trace.Entry, error) {
	where, params, err := compilePredicate(p)
	if err != nil {
		return nil, fmt.Errorf("compile filter: %w", err)
	}

	query := `
		SELECT session_id, seq, engine, stage, kind, detail
		FROM trace_entries
		WHERE session_id = ? AND ` + where + `
		ORDER BY seq ASC`

	rows, err := s.db.QueryContext(ctx, query, append([]any{session}, params...)...)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	entries := []trace.Entry{}
	for rows.Next() {
		var (
			e     trace.Entry
			stage string
		)
		if err := rows.Scan(&e.Session, &e.Seq, &e.Engine, &stage, &e.Kind, &e.Detail); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e.Stage = trace.Stage(stage)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return entries, nil
}

// compilePredicate converts p to a parameterized SQL condition.
func compilePredicate(p Predicate) (string, []any, error) {
	if p == nil {
		return "1 = 1", nil, nil
	}

	switch pred := p.(type) {
	case Equals:
		// Field names are checked against a fixed list before they reach SQL.
		if !slices.Contains(filterFields, pred.Field) {
			return "", nil, fmt.Errorf("unknown field %q", pred.Field)
		}
		return pred.Field + " = ?", []any{pred.Value}, nil

	case And:
		if len(pred.Predicates) == 0 {
			return "1 = 1", nil, nil
		}
		parts := make([]string, 0, len(pred.Predicates))
		var params []any
		for _, sub := range pred.Predicates {
			sql, subParams, err := compilePredicate(sub)
			if err != nil {
				return "", nil, err
			}
			parts = append(parts, "("+sql+")")
			params = append(params, subParams...)
		}
		return strings.Join(parts, " AND "), params, nil

	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}
