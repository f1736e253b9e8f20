package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/loom/internal/app"
	"github.com/roach88/loom/internal/engine"
	"github.com/roach88/loom/internal/platform/script"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	Settle   bool
	Frame    bool

	// IDs overrides the session and frame id generator (for testing).
	IDs engine.IDGenerator
}

// EngineOutcome is one engine's line in a run summary.
type EngineOutcome struct {
	Engine  string `json:"engine"`
	Outcome string `json:"outcome"`
	Error   string `json:"error,omitempty"`
}

// ReplayResult summarises a headless run.
type ReplayResult struct {
	Script    string          `json:"script"`
	Session   string          `json:"session"`
	Forwarded int64           `json:"forwarded"`
	Title     string          `json:"title,omitempty"`
	Frames    int             `json:"frames"`
	LastFrame string          `json:"last_frame,omitempty"`
	Engines   []EngineOutcome `json:"engines"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay <script.yaml>",
		Short: "Run the engines headless over a scripted window",
		Long: `Replay a YAML script of window events against the engines without a
terminal, then print each engine's outcome and the last presented frame.

Exit codes:
  0 - Every engine stopped cleanly
  1 - An engine failed
  2 - Command error (unreadable script, database error, etc.)

Examples:
  loom replay ./session.yaml
  loom replay ./session.yaml --settle --db ./loom.db
  loom replay ./session.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "record the trace to this SQLite database")
	cmd.Flags().BoolVar(&opts.Settle, "settle", false, "wait for the engines to go idle after every step")
	cmd.Flags().BoolVar(&opts.Frame, "frame", true, "print the last presented frame")

	return cmd
}

func runReplay(opts *ReplayOptions, path string, cmd *cobra.Command) error {
	cfg := opts.Config
	logger := opts.Logger
	if cmd.Flags().Changed("db") {
		cfg.TraceDB = opts.Database
	}

	s, err := script.Load(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load script", err)
	}
	if opts.Settle {
		s.AutoSettle = true
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	ids := opts.IDs
	if ids == nil {
		ids = engine.UUIDv7Generator{}
	}
	session := ids.Generate()

	rec, err := startRecording(ctx, cfg.TraceDB, session, "script", logger)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open trace database", err)
	}

	host := script.New(s, logger)
	a, err := app.New(host, app.Options{
		Title:           cfg.Title,
		Logger:          logger,
		Recorder:        rec.recorder(),
		Session:         session,
		IDs:             ids,
		ShutdownTimeout: cfg.ShutdownTimeout(),
	})
	if err != nil {
		_ = rec.finish(context.WithoutCancel(ctx), nil)
		return WrapExitError(ExitFailure, "failed to start", err)
	}
	host.SetSettler(a.Settle)

	report, runErr := a.Run(ctx)
	if err := rec.finish(context.WithoutCancel(ctx), report); err != nil {
		return WrapExitError(ExitCommandError, "failed to save trace", err)
	}
	if runErr != nil {
		return WrapExitError(ExitFailure, "platform loop failed", runErr)
	}

	result := ReplayResult{
		Script:    path,
		Session:   report.Session,
		Forwarded: report.Forwarded,
		Title:     host.Title(),
		Frames:    len(host.Frames()),
		Engines:   engineOutcomes(report),
	}
	if f, ok := host.LastFrame(); ok && opts.Frame {
		result.LastFrame = f.Content
	}

	var failure *CLIError
	if err := report.Err(); err != nil {
		failure = &CLIError{Code: "E_ENGINE_FAILED", Message: err.Error()}
	}

	f := newFormatter(opts.RootOptions, cmd.OutOrStdout())
	if err := f.Result(result, failure, func(w io.Writer) {
		fmt.Fprint(w, report.String())
		fmt.Fprintf(w, "%d frames presented\n", result.Frames)
		if result.LastFrame != "" {
			fmt.Fprintln(w)
			fmt.Fprintln(w, result.LastFrame)
		}
	}); err != nil {
		return err
	}

	if failure != nil {
		return WrapExitError(ExitFailure, "engine failure", report.Err())
	}
	return nil
}

func engineOutcomes(report *app.Report) []EngineOutcome {
	out := make([]EngineOutcome, 0, len(report.Engines))
	for _, res := range report.Engines {
		eo := EngineOutcome{Engine: res.Engine, Outcome: string(report.Outcome(res.Engine))}
		if eo.Outcome == string(app.OutcomeFailed) {
			eo.Error = res.Err.Error()
		}
		out = append(out, eo)
	}
	return out
}
