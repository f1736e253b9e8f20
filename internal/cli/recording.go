package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/loom/internal/app"
	"github.com/roach88/loom/internal/store"
	"github.com/roach88/loom/internal/trace"
)

// recording persists one session's trace. A nil recording discards it.
type recording struct {
	store   *store.Store
	writer  *trace.Writer
	session string
	logger  *slog.Logger
}

// startRecording opens the trace database at path and begins a session. An
// empty path disables recording.
func startRecording(ctx context.Context, path, session, platform string, logger *slog.Logger) (*recording, error) {
	if path == "" {
		return nil, nil
	}

	st, err := store.Open(path)
	if err != nil {
		return nil, err
	}
	if err := st.BeginSession(ctx, session, platform, time.Now()); err != nil {
		st.Close()
		return nil, err
	}

	w := trace.NewWriter(st, logger)
	w.Start(ctx)
	logger.Debug("recording trace", "db", path, "session", session)
	return &recording{store: st, writer: w, session: session, logger: logger}, nil
}

func (r *recording) recorder() trace.Recorder {
	if r == nil {
		return trace.Nop{}
	}
	return r.writer
}

// finish flushes the trace and stores the outcome of every engine. A nil
// report marks the session failed.
func (r *recording) finish(ctx context.Context, report *app.Report) error {
	if r == nil {
		return nil
	}
	defer r.store.Close()

	var errs []error
	if err := r.writer.Close(); err != nil {
		errs = append(errs, err)
	}

	outcome := app.OutcomeFailed
	if report != nil {
		for _, res := range report.Engines {
			er := store.EngineResult{
				Session: r.session,
				Engine:  res.Engine,
				Outcome: string(report.Outcome(res.Engine)),
			}
			if res.Err != nil {
				er.Error = res.Err.Error()
			}
			if err := r.store.WriteResult(ctx, er); err != nil {
				errs = append(errs, err)
			}
		}
		if report.Err() == nil {
			outcome = app.OutcomeClean
		}
	}

	if err := r.store.EndSession(ctx, r.session, string(outcome), time.Now()); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("record session %s: %w", r.session, err)
	}
	return nil
}
