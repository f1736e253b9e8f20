package harness

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/loom/internal/app"
	"github.com/roach88/loom/internal/engine"
	"github.com/roach88/loom/internal/platform"
	"github.com/roach88/loom/internal/trace"
)

func TestScenarios(t *testing.T) {
	paths, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			sc, err := LoadScenario(path)
			require.NoError(t, err)

			result, err := RunWithGolden(t, sc)
			require.NoError(t, err)
			assert.True(t, result.Pass, strings.Join(result.Errors, "\n"))
		})
	}
}

func TestScenarios_GoldenFilesCommitted(t *testing.T) {
	paths, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)

	for _, path := range paths {
		sc, err := LoadScenario(path)
		require.NoError(t, err)
		assert.FileExists(t, filepath.Join("testdata", "golden", sc.Name+".golden"))
	}
}

func TestRun_ReportsFailedExpectations(t *testing.T) {
	sc, err := ParseScenario([]byte(`
name: wrong
script:
  size: {width: 20, height: 5}
  steps:
    - redraw: true
expect_commands:
  render: [DrawUI]
expect_results:
  render: failed
assertions:
  - type: frames
    count: 2
`))
	require.NoError(t, err)

	result, err := Run(sc)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 3)
	assert.Contains(t, result.Errors[0], "render commands: expected [DrawUI], got [Frame]")
	assert.Contains(t, result.Errors[1], "render result")
	assert.Contains(t, result.Errors[2], "frames")
}

func TestGolden_Reproducible(t *testing.T) {
	sc, err := LoadScenario("testdata/scenarios/resize_then_close.yaml")
	require.NoError(t, err)

	dir := t.TempDir()
	first, err := Run(sc)
	require.NoError(t, err)
	data, err := Snapshot(sc.Name, first).Marshal()
	require.NoError(t, err)

	g := goldie.New(t, goldie.WithFixtureDir(dir), goldie.WithNameSuffix(".golden"))
	require.NoError(t, g.Update(t, sc.Name, data))

	// A second run matches the first one's snapshot.
	_, err = RunWithGolden(t, sc, goldie.WithFixtureDir(dir))
	require.NoError(t, err)
}

func TestSnapshot_PerEngineWithoutSeq(t *testing.T) {
	r := &Result{
		Trace: []trace.Entry{
			{Seq: 1, Engine: "io", Stage: trace.StageCommand, Kind: "WindowEvent", Detail: "a"},
			{Seq: 2, Engine: "gui", Stage: trace.StageCommand, Kind: "Input"},
			{Seq: 3, Engine: "io", Stage: trace.StageStop, Kind: "clean"},
		},
		Frames: []platform.Frame{{Seq: 1}},
		Report: &app.Report{Engines: []engine.Result{{Engine: "io"}, {Engine: "gui"}}},
	}

	snap := Snapshot("x", r)
	assert.Equal(t, 1, snap.Frames)
	assert.Equal(t, map[string]string{"io": "clean", "gui": "clean"}, snap.Results)
	assert.Equal(t, []GoldenEntry{
		{Stage: "command", Kind: "WindowEvent", Detail: "a"},
	}, snap.Engines["io"], "stop entries are left to Results")

	data, err := snap.Marshal()
	require.NoError(t, err)
	assert.NotContains(t, string(data), "seq")
}

func TestFaultyRenderer(t *testing.T) {
	sc, err := LoadScenario("testdata/scenarios/render_failure.yaml")
	require.NoError(t, err)

	result, err := Run(sc)
	require.NoError(t, err)

	err = result.Report.Err()
	require.Error(t, err)
	assert.ErrorIs(t, err, errInjected)
	assert.True(t, engine.IsFatal(err))
}
