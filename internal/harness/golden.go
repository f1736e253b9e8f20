package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"gopkg.in/yaml.v3"

	"github.com/roach88/loom/internal/trace"
)

// GoldenEntry is a trace entry without its global sequence number.
type GoldenEntry struct {
	Stage  string `yaml:"stage"`
	Kind   string `yaml:"kind"`
	Detail string `yaml:"detail,omitempty"`
}

// TraceSnapshot is the golden form of a run: per-engine traces in the order
// each engine recorded them, plus the outcome of every engine.
//
// Stop entries are left out. Engines that hold senders for each other are
// cancelled together at shutdown, and whether one records a cancellation or a
// closed channel depends on which peer stopped first; Results carries the
// outcome instead.
type TraceSnapshot struct {
	Scenario string                   `yaml:"scenario"`
	Frames   int                      `yaml:"frames"`
	Results  map[string]string        `yaml:"results"`
	Engines  map[string][]GoldenEntry `yaml:"engines"`
}

// Snapshot builds the golden form of r.
func Snapshot(name string, r *Result) TraceSnapshot {
	snap := TraceSnapshot{
		Scenario: name,
		Frames:   len(r.Frames),
		Results:  map[string]string{},
		Engines:  map[string][]GoldenEntry{},
	}
	for _, res := range r.Report.Engines {
		snap.Results[res.Engine] = string(r.Report.Outcome(res.Engine))
	}
	for _, e := range r.Trace {
		if e.Stage == trace.StageStop {
			continue
		}
		snap.Engines[e.Engine] = append(snap.Engines[e.Engine], GoldenEntry{
			Stage:  string(e.Stage),
			Kind:   e.Kind,
			Detail: e.Detail,
		})
	}
	return snap
}

// Marshal renders the snapshot as YAML. Map keys are sorted, so equal
// snapshots marshal identically.
func (s TraceSnapshot) Marshal() ([]byte, error) {
	return yaml.Marshal(s)
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{name}.golden. Regenerate with:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, sc *Scenario, opts ...goldie.Option) (*Result, error) {
	t.Helper()

	result, err := Run(sc)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, sc.Name, result, opts...); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against its golden file.
func AssertGolden(t *testing.T, name string, result *Result, opts ...goldie.Option) error {
	t.Helper()

	data, err := Snapshot(name, result).Marshal()
	if err != nil {
		return err
	}
	g := newGoldie(t, opts...)
	g.Assert(t, name, data)
	return nil
}

func newGoldie(t *testing.T, opts ...goldie.Option) *goldie.Goldie {
	base := []goldie.Option{
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	}
	return goldie.New(t, append(base, opts...)...)
}
