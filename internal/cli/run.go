package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/loom/internal/app"
	"github.com/roach88/loom/internal/engine"
	"github.com/roach88/loom/internal/platform/terminal"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Title     string
	FrameRate int
	Database  string
	AltScreen bool
	Mouse     bool

	// IDs overrides the session and frame id generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	IDs engine.IDGenerator
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the engines in this terminal",
		Long: `Run the IO, GUI and render engines with the terminal as the window.

Type to edit the panel, enter to commit a line, q on an empty line or esc to
quit. ctrl+c closes the window.

Examples:
  loom run
  loom run --title demo --frame-rate 60 --db ./loom.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTerminal(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Title, "title", "", "window title")
	cmd.Flags().IntVar(&opts.FrameRate, "frame-rate", 0, "redraw rate in frames per second (0 disables)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record the trace to this SQLite database")
	cmd.Flags().BoolVar(&opts.AltScreen, "alt-screen", true, "use the terminal's alternate screen")
	cmd.Flags().BoolVar(&opts.Mouse, "mouse", false, "report mouse motion")

	return cmd
}

// applyFlags overrides the loaded configuration with flags set on cmd.
func (opts *RunOptions) applyFlags(cmd *cobra.Command) error {
	cfg := &opts.Config
	flags := cmd.Flags()
	if flags.Changed("title") {
		cfg.Title = opts.Title
	}
	if flags.Changed("frame-rate") {
		cfg.FrameRate = opts.FrameRate
	}
	if flags.Changed("db") {
		cfg.TraceDB = opts.Database
	}
	if flags.Changed("alt-screen") {
		cfg.AltScreen = opts.AltScreen
	}
	if flags.Changed("mouse") {
		cfg.Mouse = opts.Mouse
	}
	if err := cfg.Validate(); err != nil {
		return WrapExitError(ExitCommandError, "invalid flags", err)
	}
	return nil
}

func runTerminal(opts *RunOptions, cmd *cobra.Command) error {
	if err := opts.applyFlags(cmd); err != nil {
		return err
	}
	cfg := opts.Config
	logger := opts.Logger

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	ids := opts.IDs
	if ids == nil {
		ids = engine.UUIDv7Generator{}
	}
	session := ids.Generate()

	rec, err := startRecording(ctx, cfg.TraceDB, session, "terminal", logger)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open trace database", err)
	}

	host := terminal.New(terminal.Options{
		Title:     cfg.Title,
		FrameRate: cfg.FrameRate,
		AltScreen: cfg.AltScreen,
		Mouse:     cfg.Mouse,
		Input:     cmd.InOrStdin(),
		Output:    cmd.OutOrStdout(),
		Logger:    logger,
	})

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

	report, runErr := a.Run(ctx)
	if err := rec.finish(context.WithoutCancel(ctx), report); err != nil {
		logger.Error("trace not saved", "error", err)
	}
	if runErr != nil {
		return WrapExitError(ExitFailure, "platform loop failed", runErr)
	}
	if err := report.Err(); err != nil {
		return WrapExitError(ExitFailure, "engine failure", err)
	}

	logger.Info("session ended", "session", session, "forwarded", report.Forwarded)
	return nil
}
