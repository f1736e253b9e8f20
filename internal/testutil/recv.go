package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/loom/internal/channel"
)

// RecvTimeout bounds how long Recv waits.
const RecvTimeout = 2 * time.Second

// Recv receives one value from rx, failing the test if none arrives in time.
func Recv[T any](t testing.TB, rx *channel.Receiver[T]) T {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), RecvTimeout)
	defer cancel()

	v, err := rx.Recv(ctx)
	require.NoError(t, err, "expected a value on the channel")
	return v
}

// Drain returns every value currently queued on rx without blocking.
func Drain[T any](rx *channel.Receiver[T]) []T {
	var out []T
	for {
		v, ok := rx.TryRecv()
		if !ok {
			return out
		}
		out = append(out, v)
	}
}

// RequireClosed fails the test unless rx is closed and holds no values.
func RequireClosed[T any](t testing.TB, rx *channel.Receiver[T], msg string) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := rx.Recv(ctx)
	require.ErrorIs(t, err, channel.ErrChannelClosed, msg)
}
