package script

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/loom/internal/platform"
)

var _ platform.Host = (*Platform)(nil)

const sample = `
name: sample
size: {width: 80, height: 24}
steps:
  - resize: {width: 100, height: 30}
  - key: enter
  - text: "hi"
  - mouse: {x: 1, y: 2, button: left}
  - focus: false
  - scale: 2
  - redraw: true
  - settle: true
  - close: true
`

func TestParse(t *testing.T) {
	s, err := Parse([]byte(sample))
	require.NoError(t, err)

	assert.Equal(t, "sample", s.Name)
	assert.Equal(t, platform.Size{Width: 80, Height: 24}, s.Size)
	require.Len(t, s.Steps, 9)

	var kinds []platform.EventKind
	for _, st := range s.Steps {
		if ev, ok := st.Event(); ok {
			kinds = append(kinds, ev.Kind)
		}
	}
	assert.Equal(t, []platform.EventKind{
		platform.EventResized,
		platform.EventInput,
		platform.EventInput,
		platform.EventInput,
		platform.EventFocus,
		platform.EventScaleChanged,
		platform.EventRedrawRequested,
		platform.EventCloseRequested,
	}, kinds)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"unknown field", "steps:\n  - jump: true\n", "parse script"},
		{"two actions", "steps:\n  - key: a\n    text: b\n", "step 1: want exactly one action, got 2"},
		{"empty step", "steps:\n  - {}\n", "step 1: want exactly one action, got 0"},
		{"zero resize", "steps:\n  - resize: {width: 0, height: 3}\n", "resize needs a positive size"},
		{"bad size", "size: {width: -1, height: 3}\n", "invalid window size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sample", s.Name)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "read script")
}

func TestPlatform_RunDispatchesAndTracksWindow(t *testing.T) {
	s, err := Parse([]byte(sample))
	require.NoError(t, err)
	p := New(s, nil)

	settles := 0
	p.SetSettler(func(context.Context) error {
		settles++
		return nil
	})

	var got []platform.Event
	require.NoError(t, p.Run(func(ev platform.Event) error {
		got = append(got, ev)
		return nil
	}))

	assert.Len(t, got, 8)
	assert.Equal(t, 1, settles)
	assert.Equal(t, platform.Size{Width: 100, Height: 30}, p.Size())
	assert.Equal(t, 2.0, p.ScaleFactor())
}

func TestPlatform_AutoSettle(t *testing.T) {
	s := &Script{AutoSettle: true, Steps: []Step{{Redraw: true}, {Redraw: true}}}
	p := New(s, nil)

	settles := 0
	p.SetSettler(func(context.Context) error {
		settles++
		return errors.New("ignored")
	})

	require.NoError(t, p.Run(func(platform.Event) error { return nil }))
	assert.Equal(t, 2, settles, "settle errors are logged, not fatal")
}

func TestPlatform_DispatchErrorEndsRun(t *testing.T) {
	s := &Script{Steps: []Step{{Redraw: true}, {Redraw: true}}}
	boom := errors.New("closed")

	calls := 0
	err := New(s, nil).Run(func(platform.Event) error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestPlatform_Exit(t *testing.T) {
	s := &Script{Steps: []Step{{Redraw: true}, {Redraw: true}, {Redraw: true}}}
	p := New(s, nil)

	calls := 0
	require.NoError(t, p.Run(func(platform.Event) error {
		calls++
		p.Exit()
		p.Exit()
		return nil
	}))
	assert.Equal(t, 1, calls)
}

func TestPlatform_Window(t *testing.T) {
	p := New(&Script{Size: platform.Size{Width: 4, Height: 2}}, nil)
	assert.Equal(t, 1.0, p.ScaleFactor())

	require.NoError(t, p.SetTitle("t"))
	assert.Equal(t, "t", p.Title())

	_, ok := p.LastFrame()
	assert.False(t, ok)

	require.NoError(t, p.Present(platform.Frame{Seq: 1}))
	require.NoError(t, p.Present(platform.Frame{Seq: 2}))
	last, ok := p.LastFrame()
	require.True(t, ok)
	assert.Equal(t, int64(2), last.Seq)
	assert.Len(t, p.Frames(), 2)
}
