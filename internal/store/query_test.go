package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/loom/internal/trace"
)

func TestCompilePredicate(t *testing.T) {
	tests := []struct {
		name   string
		pred   Predicate
		sql    string
		params []any
	}{
		{"nil", nil, "1 = 1", nil},
		{"empty and", And{}, "1 = 1", nil},
		{"equals", Equals{Field: FieldEngine, Value: "io"}, "engine = ?", []any{"io"}},
		{
			"and",
			EntryFilter("gui", trace.StageSend, "RepaintNeeded"),
			"(engine = ?) AND (stage = ?) AND (kind = ?)",
			[]any{"gui", "send", "RepaintNeeded"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, params, err := compilePredicate(tt.pred)
			require.NoError(t, err)
			assert.Equal(t, tt.sql, sql)
			assert.Equal(t, tt.params, params)
		})
	}
}

func TestCompilePredicate_RejectsUnknownField(t *testing.T) {
	_, _, err := compilePredicate(And{Predicates: []Predicate{Equals{Field: "detail; DROP TABLE sessions", Value: "x"}}})
	assert.ErrorContains(t, err, "unknown field")
}

func TestEntryFilter_Empty(t *testing.T) {
	assert.Nil(t, EntryFilter("", "", ""))
}

func TestQueryEntries(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	require.NoError(t, s.BeginSession(ctx, "s", "script", t0))
	require.NoError(t, s.BeginSession(ctx, "other", "script", t0))

	require.NoError(t, s.WriteEntries(ctx, []trace.Entry{
		{Seq: 1, Session: "s", Engine: "io", Stage: trace.StageCommand, Kind: "WindowEvent"},
		{Seq: 2, Session: "s", Engine: "io", Stage: trace.StageSend, Kind: "SurfaceResized", Detail: "render"},
		{Seq: 3, Session: "s", Engine: "io", Stage: trace.StageSend, Kind: "SurfaceResized", Detail: "gui"},
		{Seq: 4, Session: "s", Engine: "gui", Stage: trace.StageCommand, Kind: "Resize"},
		{Seq: 1, Session: "other", Engine: "io", Stage: trace.StageSend, Kind: "SurfaceResized"},
	}))

	got, err := s.QueryEntries(ctx, "s", EntryFilter("io", trace.StageSend, ""))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "render", got[0].Detail)
	assert.Equal(t, "gui", got[1].Detail)

	got, err = s.QueryEntries(ctx, "s", EntryFilter("", "", "Resize"))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "gui", got[0].Engine)

	got, err = s.QueryEntries(ctx, "s", nil)
	require.NoError(t, err)
	assert.Len(t, got, 4)
}
