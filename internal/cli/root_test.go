package cli

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/loom/internal/config"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "loom", cmd.Use)
	assert.Contains(t, cmd.Long, "LOOM_")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"run", "replay", "test", "trace", "validate"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verbose := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verbose)
	assert.Equal(t, "v", verbose.Shorthand)
	assert.Equal(t, "false", verbose.DefValue)

	format := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, format)
	assert.Equal(t, "text", format.DefValue)

	require.NotNil(t, cmd.PersistentFlags().Lookup("config"))
}

func TestRunCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	run, _, err := cmd.Find([]string{"run"})
	require.NoError(t, err)

	for _, name := range []string{"title", "frame-rate", "db", "alt-screen", "mouse"} {
		assert.NotNil(t, run.Flags().Lookup(name), name)
	}
}

func TestInvalidFormat(t *testing.T) {
	_, err := execute(t, "trace", "--format", "xml", "--db", "x.db")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestBadConfigFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "loom.cue", `log_format: "xml"`)
	_, err := execute(t, "--config", path, "trace", "--db", "x.db")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to load config")
}

func TestRunFlagsOverrideConfig(t *testing.T) {
	cmd := NewRootCommand()
	run, _, err := cmd.Find([]string{"run"})
	require.NoError(t, err)

	cfg, err := config.Defaults()
	require.NoError(t, err)
	opts := &RunOptions{RootOptions: &RootOptions{Config: cfg}}
	opts.Title = "flag"
	require.NoError(t, run.Flags().Set("title", "flag"))
	require.NoError(t, opts.applyFlags(run))

	assert.Equal(t, "flag", opts.Config.Title)
	assert.Equal(t, 30, opts.Config.FrameRate, "unset flags keep the config value")
}

func TestNewLogger(t *testing.T) {
	cfg, err := config.Defaults()
	require.NoError(t, err)

	l := newLogger(nil, cfg, false)
	assert.False(t, l.Enabled(context.Background(), slog.LevelDebug))

	l = newLogger(nil, cfg, true)
	assert.True(t, l.Enabled(context.Background(), slog.LevelDebug))

	cfg.LogFormat = "json"
	_, ok := newLogger(nil, cfg, false).Handler().(*slog.JSONHandler)
	assert.True(t, ok)
}
