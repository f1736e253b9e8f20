package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/loom/internal/bridge"
	"github.com/roach88/loom/internal/engine"
)

// Outcome summarises one engine's result.
type Outcome string

const (
	OutcomeClean  Outcome = "clean"
	OutcomeFailed Outcome = "failed"
)

// Report is the final state of a run.
type Report struct {
	Session   string
	Forwarded int64
	Bridge    error
	Engines   []engine.Result
}

// Outcome classifies an engine's result. Cancellation during shutdown counts
// as clean.
func (r *Report) Outcome(name string) Outcome {
	for _, res := range r.Engines {
		if res.Engine == name {
			return outcomeOf(res.Err)
		}
	}
	return ""
}

func outcomeOf(err error) Outcome {
	if err == nil || errors.Is(err, context.Canceled) {
		return OutcomeClean
	}
	return OutcomeFailed
}

// Err joins every engine failure and any bridge failure other than the IO
// engine having stopped.
func (r *Report) Err() error {
	var errs []error
	if r.Bridge != nil && !bridge.IsChannelClosed(r.Bridge) {
		errs = append(errs, r.Bridge)
	}
	for _, res := range r.Engines {
		if outcomeOf(res.Err) == OutcomeFailed {
			errs = append(errs, res.Err)
		}
	}
	return errors.Join(errs...)
}

// String renders a short human-readable summary.
func (r *Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "session %s: %d events forwarded\n", r.Session, r.Forwarded)
	for _, res := range r.Engines {
		fmt.Fprintf(&b, "  %-6s %s", res.Engine, outcomeOf(res.Err))
		if outcomeOf(res.Err) == OutcomeFailed {
			fmt.Fprintf(&b, ": %v", res.Err)
		}
		b.WriteByte('\n')
	}
	return b.String()
}
