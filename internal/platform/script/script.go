// Package script implements a headless platform that replays a YAML script of
// window events. It backs `loom replay` and the scenario harness.
//
// Example:
//
//	name: resize then close
//	size: {width: 80, height: 24}
//	auto_settle: true
//	steps:
//	  - resize: {width: 100, height: 30}
//	  - text: "hi"
//	  - key: enter
//	  - close: true
package script

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/loom/internal/platform"
)

// Mouse is a pointer step.
type Mouse struct {
	X      int    `yaml:"x"`
	Y      int    `yaml:"y"`
	Button string `yaml:"button"`
}

// Step is one scripted action. Exactly one field is set.
type Step struct {
	Resize *platform.Size `yaml:"resize,omitempty"`
	Key    string         `yaml:"key,omitempty"`
	Text   string         `yaml:"text,omitempty"`
	Mouse  *Mouse         `yaml:"mouse,omitempty"`
	Focus  *bool          `yaml:"focus,omitempty"`
	Scale  float64        `yaml:"scale,omitempty"`
	Redraw bool           `yaml:"redraw,omitempty"`
	Close  bool           `yaml:"close,omitempty"`
	Settle bool           `yaml:"settle,omitempty"`
}

// Script is a parsed event script.
type Script struct {
	Name  string        `yaml:"name"`
	Size  platform.Size `yaml:"size"`
	Scale float64       `yaml:"scale,omitempty"`

	// AutoSettle waits for the application to go idle after every step,
	// which makes per-engine traces reproducible.
	AutoSettle bool `yaml:"auto_settle,omitempty"`

	Steps []Step `yaml:"steps"`
}

// Parse decodes and validates a script. Unknown fields are rejected.
func Parse(data []byte) (*Script, error) {
	var s Script
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse script: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Load reads and parses a script file.
func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Validate checks the window size and that every step names one action.
func (s *Script) Validate() error {
	if s.Size.Width < 0 || s.Size.Height < 0 {
		return fmt.Errorf("invalid window size %s", s.Size)
	}
	if s.Scale < 0 {
		return fmt.Errorf("invalid scale %g", s.Scale)
	}
	for i, st := range s.Steps {
		if n := st.actions(); n != 1 {
			return fmt.Errorf("step %d: want exactly one action, got %d", i+1, n)
		}
		if st.Resize != nil && st.Resize.IsZero() {
			return fmt.Errorf("step %d: resize needs a positive size", i+1)
		}
		if st.Scale < 0 {
			return fmt.Errorf("step %d: invalid scale %g", i+1, st.Scale)
		}
	}
	return nil
}

func (st Step) actions() int {
	n := 0
	for _, set := range []bool{
		st.Resize != nil,
		st.Key != "",
		st.Text != "",
		st.Mouse != nil,
		st.Focus != nil,
		st.Scale != 0,
		st.Redraw,
		st.Close,
		st.Settle,
	} {
		if set {
			n++
		}
	}
	return n
}

// Event returns the platform event for the step. Settle steps have none.
func (st Step) Event() (platform.Event, bool) {
	switch {
	case st.Resize != nil:
		return platform.Resized(st.Resize.Width, st.Resize.Height), true
	case st.Key != "":
		return platform.InputEvent(platform.KeyInput(st.Key)), true
	case st.Text != "":
		return platform.InputEvent(platform.TextInput(st.Text)), true
	case st.Mouse != nil:
		return platform.InputEvent(platform.MouseInput(st.Mouse.X, st.Mouse.Y, st.Mouse.Button)), true
	case st.Focus != nil:
		return platform.Focus(*st.Focus), true
	case st.Scale != 0:
		return platform.ScaleChanged(st.Scale), true
	case st.Redraw:
		return platform.RedrawRequested(), true
	case st.Close:
		return platform.CloseRequested(), true
	default:
		return platform.Event{}, false
	}
}
