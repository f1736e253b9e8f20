package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/roach88/loom/internal/app"
	"github.com/roach88/loom/internal/engine"
	"github.com/roach88/loom/internal/platform"
	"github.com/roach88/loom/internal/platform/script"
	"github.com/roach88/loom/internal/render"
	"github.com/roach88/loom/internal/trace"
)

// Session is the trace session id of every scenario run.
const Session = "scenario"

// RunTimeout bounds a whole scenario run.
const RunTimeout = 30 * time.Second

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every expectation held.
	Pass bool

	// Trace holds every recorded entry ordered by seq.
	Trace []trace.Entry

	// Frames holds every frame the platform presented.
	Frames []platform.Frame

	// Report is the application's final report.
	Report *app.Report

	// Errors lists the failed expectations.
	Errors []string
}

// AddError records a failed expectation and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Commands returns the kinds of the commands engine applied, in order.
func (r *Result) Commands(engine string) []string {
	return kinds(r.Trace, engine, trace.StageCommand)
}

// Run executes a scenario against the full application and evaluates its
// expectations. The returned error reports a harness failure; failed
// expectations are listed in Result.Errors.
func Run(sc *Scenario) (*Result, error) {
	return RunContext(context.Background(), sc)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, sc *Scenario) (*Result, error) {
	s := sc.Script
	s.AutoSettle = true

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	host := script.New(&s, logger)
	mem := trace.NewMemory()

	opts := app.Options{
		Title:    sc.Title,
		Logger:   logger,
		Recorder: mem,
		Session:  Session,
		IDs:      engine.NewSequenceGenerator("frame"),
	}
	if sc.Faults.ComposeAfter > 0 {
		opts.Renderer = &faultyRenderer{
			Renderer: render.NewTextRenderer(true),
			after:    sc.Faults.ComposeAfter,
		}
	}

	a, err := app.New(host, opts)
	if err != nil {
		return nil, fmt.Errorf("build app: %w", err)
	}
	host.SetSettler(a.Settle)

	ctx, cancel := context.WithTimeout(ctx, RunTimeout)
	defer cancel()

	report, err := a.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("run scenario %s: %w", sc.Name, err)
	}

	result := &Result{
		Pass:   true,
		Trace:  mem.Entries(),
		Frames: host.Frames(),
		Report: report,
	}
	for _, msg := range evaluate(sc, result) {
		result.AddError(msg)
	}
	return result, nil
}

// errInjected is returned by a renderer past its fault threshold.
var errInjected = errors.New("injected compose failure")

// faultyRenderer fails every compose after a number of successes.
type faultyRenderer struct {
	render.Renderer
	after int
	calls int
}

func (f *faultyRenderer) Compose(ctx context.Context, layers []render.Layer) (string, error) {
	f.calls++
	if f.calls > f.after {
		return "", errInjected
	}
	return f.Renderer.Compose(ctx, layers)
}

func kinds(entries []trace.Entry, engine string, stage trace.Stage) []string {
	out := []string{}
	for _, e := range entries {
		if e.Engine == engine && e.Stage == stage {
			out = append(out, e.Kind)
		}
	}
	return out
}

func evaluate(sc *Scenario, r *Result) []string {
	var errs []string

	for _, name := range sortedKeys(sc.ExpectCommands) {
		want := sc.ExpectCommands[name]
		if got := r.Commands(name); !slices.Equal(got, want) {
			errs = append(errs, fmt.Sprintf("%s commands: expected %v, got %v", name, want, got))
		}
	}

	for _, name := range sortedKeys(sc.ExpectResults) {
		want := sc.ExpectResults[name]
		if got := string(r.Report.Outcome(name)); got != want {
			errs = append(errs, fmt.Sprintf("%s result: expected %s, got %q", name, want, got))
		}
	}

	for i, a := range sc.Assertions {
		if err := evaluateAssertion(r, a); err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
