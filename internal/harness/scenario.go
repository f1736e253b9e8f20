package harness

import (
	"bytes"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/roach88/loom/internal/gui"
	"github.com/roach88/loom/internal/platform/script"
	"github.com/roach88/loom/internal/render"
	"github.com/roach88/loom/internal/trace"
	"github.com/roach88/loom/internal/window"
)

// Scenario drives the application with a script and states what must
// happen.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Title is applied to the window at startup.
	Title string `yaml:"title,omitempty"`

	// Script is replayed on the headless platform. Steps always settle.
	Script script.Script `yaml:"script"`

	// Faults injects collaborator failures.
	Faults Faults `yaml:"faults,omitempty"`

	// ExpectCommands maps an engine name to the exact commands it applied.
	ExpectCommands map[string][]string `yaml:"expect_commands,omitempty"`

	// ExpectResults maps an engine name to "clean" or "failed".
	ExpectResults map[string]string `yaml:"expect_results,omitempty"`

	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Faults configures failures in the stand-in collaborators.
type Faults struct {
	// ComposeAfter makes the renderer fail every compose after this many
	// successful ones. Zero disables the fault.
	ComposeAfter int `yaml:"compose_after,omitempty"`
}

// Assertion validates the recorded trace or the presented frames.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Engine restricts trace assertions to one engine.
	Engine string `yaml:"engine,omitempty"`

	// Stage restricts trace assertions to one stage. Default: command.
	Stage trace.Stage `yaml:"stage,omitempty"`

	// Kind is the entry kind (trace_contains, trace_count).
	Kind string `yaml:"kind,omitempty"`

	// Kinds is the expected order (trace_order).
	Kinds []string `yaml:"kinds,omitempty"`

	// Count is the expected number of entries or frames.
	Count int `yaml:"count,omitempty"`

	// Contains must appear in the last frame (frames).
	Contains string `yaml:"contains,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertFrames        = "frames"
)

var (
	engineNames = []string{window.Name, gui.Name, render.Name}
	stageNames  = []trace.Stage{
		trace.StageCommand, trace.StageEvent, trace.StageSend, trace.StageSkip,
		trace.StageFail, trace.StageStop, trace.StageBridge,
	}
)

// ParseScenario decodes and validates a scenario. Unknown fields are
// rejected.
func ParseScenario(data []byte) (*Scenario, error) {
	var sc Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&sc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validateScenario(&sc); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &sc, nil
}

// LoadScenario reads and parses a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	sc, err := ParseScenario(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sc, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(s.Script.Steps) == 0 {
		return fmt.Errorf("script.steps is required and must be non-empty")
	}
	if err := s.Script.Validate(); err != nil {
		return fmt.Errorf("script: %w", err)
	}
	if s.Faults.ComposeAfter < 0 {
		return fmt.Errorf("faults.compose_after must be non-negative")
	}

	for name := range s.ExpectCommands {
		if !slices.Contains(engineNames, name) {
			return fmt.Errorf("expect_commands: unknown engine %q", name)
		}
	}
	for name, outcome := range s.ExpectResults {
		if !slices.Contains(engineNames, name) {
			return fmt.Errorf("expect_results: unknown engine %q", name)
		}
		if outcome != "clean" && outcome != "failed" {
			return fmt.Errorf("expect_results.%s: want clean or failed, got %q", name, outcome)
		}
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion checks a single assertion and fills in its default stage.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}
	if a.Stage == "" {
		a.Stage = trace.StageCommand
	}
	if !slices.Contains(stageNames, a.Stage) {
		return fmt.Errorf("assertions[%d]: unknown stage %q", index, a.Stage)
	}

	switch a.Type {
	case AssertTraceContains:
		if a.Engine == "" || a.Kind == "" {
			return fmt.Errorf("assertions[%d]: engine and kind are required for trace_contains", index)
		}
	case AssertTraceOrder:
		if a.Engine == "" || len(a.Kinds) == 0 {
			return fmt.Errorf("assertions[%d]: engine and kinds are required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Engine == "" || a.Kind == "" {
			return fmt.Errorf("assertions[%d]: engine and kind are required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertFrames:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for frames", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
