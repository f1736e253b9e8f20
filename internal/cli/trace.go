package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/loom/internal/store"
	"github.com/roach88/loom/internal/trace"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	Session  string
	Engine   string // optional - filter to one engine
	Stage    string // optional - filter to one stage
	Kind     string // optional - filter to one kind
}

// SessionSummary is one line of the session listing.
type SessionSummary struct {
	ID        string `json:"id"`
	Platform  string `json:"platform"`
	StartedAt string `json:"started_at"`
	EndedAt   string `json:"ended_at,omitempty"`
	Outcome   string `json:"outcome,omitempty"`
}

// TraceResult is a dumped session.
type TraceResult struct {
	Session SessionSummary       `json:"session"`
	Engines []store.EngineResult `json:"engines"`
	Entries []trace.Entry        `json:"entries"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Inspect recorded sessions",
		Long: `Inspect sessions recorded with --db.

Without --session, lists every session, most recent first. With --session,
prints the session's engine results and its trace in seq order.

Examples:
  loom trace --db ./loom.db
  loom trace --db ./loom.db --session 0190c0de-...
  loom trace --db ./loom.db --session 0190c0de-... --engine render --format json
  loom trace --db ./loom.db --session 0190c0de-... --stage fail`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (defaults to trace_db from config)")
	cmd.Flags().StringVar(&opts.Session, "session", "", "session to dump")
	cmd.Flags().StringVar(&opts.Engine, "engine", "", "only show entries from this engine")
	cmd.Flags().StringVar(&opts.Stage, "stage", "", "only show entries at this stage (command|event|send|skip|fail|stop|bridge)")
	cmd.Flags().StringVar(&opts.Kind, "kind", "", "only show entries of this kind")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	path := opts.Database
	if path == "" {
		path = opts.Config.TraceDB
	}
	if path == "" {
		return NewExitError(ExitCommandError, "no database: pass --db or set trace_db")
	}

	st, err := store.Open(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	f := newFormatter(opts.RootOptions, cmd.OutOrStdout())
	if opts.Session == "" {
		return listSessions(ctx, st, f)
	}
	filter := store.EntryFilter(opts.Engine, trace.Stage(opts.Stage), opts.Kind)
	return dumpSession(ctx, st, f, opts.Session, filter)
}

func listSessions(ctx context.Context, st *store.Store, f *OutputFormatter) error {
	sessions, err := st.ListSessions(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list sessions", err)
	}

	summaries := make([]SessionSummary, 0, len(sessions))
	for _, s := range sessions {
		summaries = append(summaries, summarize(s))
	}

	return f.Result(summaries, nil, func(w io.Writer) {
		if len(summaries) == 0 {
			fmt.Fprintln(w, "No sessions recorded.")
			return
		}
		for _, s := range summaries {
			outcome := s.Outcome
			if outcome == "" {
				outcome = "unfinished"
			}
			fmt.Fprintf(w, "%s  %-8s  %s  %s\n", s.ID, s.Platform, s.StartedAt, outcome)
		}
	})
}

func dumpSession(ctx context.Context, st *store.Store, f *OutputFormatter, id string, filter store.Predicate) error {
	sess, entries, err := st.ReadSession(ctx, id)
	if errors.Is(err, store.ErrSessionNotFound) {
		return WrapExitError(ExitCommandError, "unknown session", err)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read session", err)
	}
	results, err := st.ReadResults(ctx, id)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read results", err)
	}

	if filter != nil {
		if entries, err = st.QueryEntries(ctx, id, filter); err != nil {
			return WrapExitError(ExitCommandError, "failed to query entries", err)
		}
	}

	result := TraceResult{Session: summarize(sess), Engines: results, Entries: entries}
	return f.Result(result, nil, func(w io.Writer) {
		fmt.Fprintf(w, "session %s (%s)\n", sess.ID, sess.Platform)
		for _, r := range results {
			fmt.Fprintf(w, "  %-6s %s", r.Engine, r.Outcome)
			if r.Error != "" {
				fmt.Fprintf(w, ": %s", r.Error)
			}
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w)
		for _, e := range entries {
			fmt.Fprintf(w, "%6d  %-6s  %-7s  %s", e.Seq, e.Engine, e.Stage, e.Kind)
			if e.Detail != "" {
				fmt.Fprintf(w, "  %s", e.Detail)
			}
			fmt.Fprintln(w)
		}
	})
}

func summarize(s store.Session) SessionSummary {
	sum := SessionSummary{
		ID:        s.ID,
		Platform:  s.Platform,
		StartedAt: s.StartedAt.Format(time.RFC3339),
		Outcome:   s.Outcome,
	}
	if s.Finished() {
		sum.EndedAt = s.EndedAt.Format(time.RFC3339)
	}
	return sum
}
