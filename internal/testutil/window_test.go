package testutil

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/loom/internal/channel"
	"github.com/roach88/loom/internal/platform"
)

var _ platform.Window = (*FakeWindow)(nil)

func TestFakeWindow(t *testing.T) {
	w := NewFakeWindow(10, 5)
	assert.Equal(t, platform.Size{Width: 10, Height: 5}, w.Size())
	assert.Equal(t, 1.0, w.ScaleFactor())

	w.Resize(20, 6)
	w.SetScale(2)
	assert.Equal(t, platform.Size{Width: 20, Height: 6}, w.Size())
	assert.Equal(t, 2.0, w.ScaleFactor())

	require.NoError(t, w.SetTitle("a"))
	w.FailTitle(errors.New("denied"))
	assert.Error(t, w.SetTitle("b"))
	assert.Equal(t, "a", w.Title())

	require.NoError(t, w.Present(platform.Frame{Seq: 1}))
	w.OnPresent(func(platform.Frame) error { return errors.New("lost") })
	assert.Error(t, w.Present(platform.Frame{Seq: 2}))
	assert.Len(t, w.Frames(), 1)
}

func TestRecvAndDrain(t *testing.T) {
	tx, rx := channel.New[int]()
	require.NoError(t, tx.Send(1))
	require.NoError(t, tx.Send(2))
	require.NoError(t, tx.Send(3))

	assert.Equal(t, 1, Recv(t, rx))
	assert.Equal(t, []int{2, 3}, Drain(rx))
	assert.Empty(t, Drain(rx))
}
