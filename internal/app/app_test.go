package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/loom/internal/bridge"
	"github.com/roach88/loom/internal/engine"
	"github.com/roach88/loom/internal/gui"
	"github.com/roach88/loom/internal/platform"
	"github.com/roach88/loom/internal/platform/script"
	"github.com/roach88/loom/internal/render"
	"github.com/roach88/loom/internal/trace"
	"github.com/roach88/loom/internal/window"
)

func loadScript(t *testing.T, src string) *script.Platform {
	t.Helper()
	s, err := script.Parse([]byte(src))
	require.NoError(t, err)
	return script.New(s, nil)
}

func runApp(t *testing.T, host *script.Platform, opts Options) *Report {
	t.Helper()
	if opts.ShutdownTimeout == 0 {
		opts.ShutdownTimeout = 2 * time.Second
	}
	if opts.IDs == nil {
		opts.IDs = engine.NewSequenceGenerator("frame")
	}
	a, err := New(host, opts)
	require.NoError(t, err)
	host.SetSettler(a.Settle)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	report, err := a.Run(ctx)
	require.NoError(t, err)
	require.NotNil(t, report)
	return report
}

func TestApp_EndToEnd(t *testing.T) {
	host := loadScript(t, `
size: {width: 40, height: 10}
auto_settle: true
steps:
  - resize: {width: 50, height: 12}
  - text: "hi"
  - redraw: true
  - close: true
`)
	mem := trace.NewMemory()
	report := runApp(t, host, Options{Title: "loom", Recorder: mem, Session: "s-1"})

	require.NoError(t, report.Err())
	assert.Equal(t, "s-1", report.Session)
	assert.Equal(t, int64(4), report.Forwarded)
	for _, name := range []string{window.Name, gui.Name, render.Name} {
		assert.Equal(t, OutcomeClean, report.Outcome(name), name)
	}

	assert.Equal(t, "loom", host.Title())

	// resize repaint, text repaint, redraw.
	frames := host.Frames()
	require.Len(t, frames, 3)
	assert.Equal(t, "frame-1", frames[0].ID)
	assert.Equal(t, platform.Size{Width: 50, Height: 12}, frames[0].Size)
	assert.Contains(t, frames[1].Content, "> hi")
	assert.Equal(t, int64(3), frames[2].Seq)

	// The IO subject feeds render before gui.
	var targets []string
	for _, e := range mem.Engine(window.Name) {
		if e.Stage == trace.StageSend && e.Kind == "SurfaceResized" {
			targets = append(targets, e.Detail)
		}
	}
	assert.Equal(t, []string{render.Name, gui.Name}, targets)
}

func TestApp_GUIRequestsClose(t *testing.T) {
	host := loadScript(t, `
size: {width: 40, height: 10}
auto_settle: true
steps:
  - text: "q"
  - redraw: true
  - redraw: true
`)
	report := runApp(t, host, Options{})

	require.NoError(t, report.Err())
	assert.Equal(t, OutcomeClean, report.Outcome(window.Name))
	if report.Bridge != nil {
		assert.True(t, bridge.IsChannelClosed(report.Bridge), "only a closed IO channel may end the loop")
	}
	assert.Empty(t, host.Frames(), "nothing is drawn after the IO engine stops")
}

type brokenRenderer struct{}

func (brokenRenderer) Configure(platform.Size, float64) error { return nil }

func (brokenRenderer) Compose(context.Context, []render.Layer) (string, error) {
	return "", errors.New("device removed")
}

func TestApp_RenderFailureIsIsolated(t *testing.T) {
	host := loadScript(t, `
size: {width: 40, height: 10}
auto_settle: true
steps:
  - text: "a"
  - text: "b"
  - close: true
`)
	panel := gui.NewPanel("t")
	report := runApp(t, host, Options{GUI: panel, Renderer: brokenRenderer{}})

	assert.Equal(t, OutcomeFailed, report.Outcome(render.Name))
	assert.Equal(t, OutcomeClean, report.Outcome(gui.Name))
	assert.Equal(t, OutcomeClean, report.Outcome(window.Name))

	err := report.Err()
	require.Error(t, err)
	assert.True(t, engine.IsFatal(err))
	assert.Contains(t, report.String(), "render failed")

	// The GUI kept applying input after render died.
	assert.Equal(t, "ab", panel.Text())
}

func TestApp_ShutdownByClosureOnceRenderIsGone(t *testing.T) {
	for i := 0; i < 20; i++ {
		host := loadScript(t, `
size: {width: 40, height: 10}
auto_settle: true
steps:
  - text: "a"
  - close: true
`)
		mem := trace.NewMemory()
		runApp(t, host, Options{Renderer: brokenRenderer{}, Recorder: mem})

		// With render stopped, the IO engine holds the GUI's last sender, so
		// the GUI sees its channel close before the engines are cancelled.
		stops := map[string]string{}
		for _, e := range mem.Entries() {
			if e.Stage == trace.StageStop {
				stops[e.Engine] = e.Kind
			}
		}
		assert.Equal(t, map[string]string{
			window.Name: "clean",
			gui.Name:    "clean",
			render.Name: "error",
		}, stops)
	}
}

type unconfigurable struct{ brokenRenderer }

func (unconfigurable) Configure(platform.Size, float64) error { return errors.New("no adapter") }

func TestApp_InitFailure(t *testing.T) {
	host := loadScript(t, "size: {width: 4, height: 2}\n")

	_, err := New(host, Options{Renderer: unconfigurable{}})
	var ie *InitError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, render.Name, ie.Stage)
	assert.ErrorContains(t, err, "init render")

	_, err = New(nil, Options{})
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, "host", ie.Stage)
}

func TestApp_RunOnce(t *testing.T) {
	host := loadScript(t, "steps:\n  - close: true\n")
	a, err := New(host, Options{ShutdownTimeout: time.Second})
	require.NoError(t, err)

	_, err = a.Run(context.Background())
	require.NoError(t, err)

	_, err = a.Run(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyRunning)
}

func TestApp_ScriptEndWithoutClose(t *testing.T) {
	host := loadScript(t, `
size: {width: 20, height: 5}
steps:
  - redraw: true
`)
	report := runApp(t, host, Options{})

	require.NoError(t, report.Err())
	assert.Nil(t, report.Bridge)
	assert.Len(t, host.Frames(), 1)
}

func TestReport_Outcome(t *testing.T) {
	r := &Report{Engines: []engine.Result{
		{Engine: "a"},
		{Engine: "b", Err: context.Canceled},
		{Engine: "c", Err: &engine.FatalError{Engine: "c", Command: "x", Err: errors.New("boom")}},
	}}

	assert.Equal(t, OutcomeClean, r.Outcome("a"))
	assert.Equal(t, OutcomeClean, r.Outcome("b"))
	assert.Equal(t, OutcomeFailed, r.Outcome("c"))
	assert.Equal(t, Outcome(""), r.Outcome("missing"))
	assert.ErrorContains(t, r.Err(), "boom")
}
