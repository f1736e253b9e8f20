package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/loom/internal/trace"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
}

func (e *AssertionError) Error() string {
	return fmt.Sprintf("%s: expected %s, actual %s", e.Type, e.Expected, e.Actual)
}

func evaluateAssertion(r *Result, a Assertion) error {
	switch a.Type {
	case AssertTraceContains:
		return assertTraceContains(r.Trace, a)
	case AssertTraceOrder:
		return assertTraceOrder(r.Trace, a)
	case AssertTraceCount:
		return assertTraceCount(r.Trace, a)
	case AssertFrames:
		return assertFrames(r, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func assertTraceContains(entries []trace.Entry, a Assertion) error {
	for _, k := range kinds(entries, a.Engine, a.Stage) {
		if k == a.Kind {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: fmt.Sprintf("%s %s %s", a.Engine, a.Stage, a.Kind),
		Actual:   "not found in trace",
	}
}

// assertTraceOrder checks that kinds appear in order. Other entries may
// appear in between.
func assertTraceOrder(entries []trace.Entry, a Assertion) error {
	got := kinds(entries, a.Engine, a.Stage)
	next := 0
	for _, k := range got {
		if next < len(a.Kinds) && k == a.Kinds[next] {
			next++
		}
	}
	if next == len(a.Kinds) {
		return nil
	}
	return &AssertionError{
		Type:     AssertTraceOrder,
		Expected: fmt.Sprintf("%s %s in order %v", a.Engine, a.Stage, a.Kinds),
		Actual:   fmt.Sprintf("%v (missing %s)", got, a.Kinds[next]),
	}
}

func assertTraceCount(entries []trace.Entry, a Assertion) error {
	count := 0
	for _, k := range kinds(entries, a.Engine, a.Stage) {
		if k == a.Kind {
			count++
		}
	}
	if count == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertTraceCount,
		Expected: fmt.Sprintf("%d × %s %s %s", a.Count, a.Engine, a.Stage, a.Kind),
		Actual:   fmt.Sprintf("%d", count),
	}
}

func assertFrames(r *Result, a Assertion) error {
	if len(r.Frames) != a.Count {
		return &AssertionError{
			Type:     AssertFrames,
			Expected: fmt.Sprintf("%d frames", a.Count),
			Actual:   fmt.Sprintf("%d", len(r.Frames)),
		}
	}
	if a.Contains == "" {
		return nil
	}
	if len(r.Frames) == 0 || !strings.Contains(r.Frames[len(r.Frames)-1].Content, a.Contains) {
		return &AssertionError{
			Type:     AssertFrames,
			Expected: fmt.Sprintf("last frame containing %q", a.Contains),
			Actual:   "not found",
		}
	}
	return nil
}
