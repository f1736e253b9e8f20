package bridge

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/loom/internal/channel"
	"github.com/roach88/loom/internal/command"
	"github.com/roach88/loom/internal/platform"
	"github.com/roach88/loom/internal/testutil"
	"github.com/roach88/loom/internal/trace"
)

// listPlatform delivers a fixed list of events, stopping at the first
// dispatch error.
type listPlatform struct {
	events []platform.Event
	err    error
	exited bool
}

func (p *listPlatform) Run(dispatch platform.Dispatch) error {
	for _, ev := range p.events {
		if err := dispatch(ev); err != nil {
			return err
		}
	}
	return p.err
}

func (p *listPlatform) Exit() { p.exited = true }

func TestBridge_ForwardsInOrder(t *testing.T) {
	tx, rx := channel.New[command.IO]()
	mem := trace.NewMemory()
	b := New(tx, WithTracer(trace.New("s", mem)))

	p := &listPlatform{events: []platform.Event{
		platform.Resized(10, 5),
		platform.InputEvent(platform.KeyInput("a")),
		platform.CloseRequested(),
	}}
	require.NoError(t, b.Run(p))
	assert.Equal(t, int64(3), b.Forwarded())

	got := testutil.Drain(rx)
	require.Len(t, got, 3)
	for i, cmd := range got {
		assert.Equal(t, command.IOWindowEvent, cmd.Kind)
		assert.Equal(t, p.events[i], cmd.Window)
	}

	entries := mem.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, trace.StageBridge, entries[0].Stage)
	assert.Equal(t, "Resized", entries[0].Kind)
}

func TestBridge_RunReleasesSender(t *testing.T) {
	tx, rx := channel.New[command.IO]()
	b := New(tx)

	require.NoError(t, b.Run(&listPlatform{}))

	testutil.RequireClosed(t, rx, "IO channel should close once the bridge is done")
}

func TestBridge_ClosedChannelEndsRun(t *testing.T) {
	tx, rx := channel.New[command.IO]()
	rx.Close()
	b := New(tx)

	p := &listPlatform{events: []platform.Event{platform.Resized(1, 1), platform.Resized(2, 2)}}
	err := b.Run(p)

	require.Error(t, err)
	assert.True(t, IsChannelClosed(err))
	assert.ErrorIs(t, err, channel.ErrChannelClosed)

	var fe *FatalError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, platform.Resized(1, 1), fe.Event)
	assert.Equal(t, int64(0), b.Forwarded())
}

func TestBridge_PlatformError(t *testing.T) {
	tx, _ := channel.New[command.IO]()
	boom := errors.New("display gone")

	err := New(tx).Run(&listPlatform{err: boom})
	assert.ErrorIs(t, err, boom)
	assert.False(t, IsChannelClosed(err))
}
