package channel

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannel_SendRecv(t *testing.T) {
	tx, rx := New[string]()

	require.NoError(t, tx.Send("a"))

	got, err := rx.Recv(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "a", got)
}

func TestChannel_FIFO(t *testing.T) {
	tx, rx := New[int]()

	for i := 1; i <= 100; i++ {
		require.NoError(t, tx.Send(i))
	}

	for i := 1; i <= 100; i++ {
		got, err := rx.Recv(context.Background())
		require.NoError(t, err)
		require.Equal(t, i, got, "values must arrive in send order")
	}
}

func TestChannel_PerSenderOrderUnderConcurrency(t *testing.T) {
	type msg struct {
		sender int
		n      int
	}

	tx, rx := New[msg]()
	defer tx.Close()

	const senders = 8
	const perSender = 200

	var wg sync.WaitGroup
	for s := 0; s < senders; s++ {
		clone := tx.Clone()
		wg.Add(1)
		go func(id int, h *Sender[msg]) {
			defer wg.Done()
			defer h.Close()
			for i := 0; i < perSender; i++ {
				assert.NoError(t, h.Send(msg{sender: id, n: i}))
			}
		}(s, clone)
	}
	wg.Wait()

	last := make(map[int]int)
	for s := 0; s < senders; s++ {
		last[s] = -1
	}
	for i := 0; i < senders*perSender; i++ {
		m, ok := rx.TryRecv()
		require.True(t, ok)
		assert.Equal(t, last[m.sender]+1, m.n, "sender %d reordered", m.sender)
		last[m.sender] = m.n
	}

	_, ok := rx.TryRecv()
	assert.False(t, ok)
}

func TestChannel_TryRecv_Empty(t *testing.T) {
	_, rx := New[int]()

	_, ok := rx.TryRecv()
	assert.False(t, ok, "empty channel should not yield a value")
}

func TestChannel_Recv_BlocksUntilAvailable(t *testing.T) {
	tx, rx := New[string]()

	done := make(chan string)
	go func() {
		v, err := rx.Recv(context.Background())
		if err == nil {
			done <- v
		}
	}()

	// Give goroutine time to block
	time.Sleep(10 * time.Millisecond)

	require.NoError(t, tx.Send("late"))

	select {
	case v := <-done:
		assert.Equal(t, "late", v)
	case <-time.After(time.Second):
		t.Fatal("recv did not unblock")
	}
}

func TestChannel_Recv_ContextCancelled(t *testing.T) {
	_, rx := New[int]()

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		_, err := rx.Recv(ctx)
		errc <- err
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-errc:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("recv did not observe cancellation")
	}
}

func TestChannel_Recv_DrainsBeforeCancellation(t *testing.T) {
	tx, rx := New[int]()
	require.NoError(t, tx.Send(1))
	require.NoError(t, tx.Send(2))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	v, err := rx.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	v, err = rx.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, v)

	_, err = rx.Recv(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestChannel_ReceiverClose_FailsEveryClone(t *testing.T) {
	tx, rx := New[int]()
	clone := tx.Clone()
	require.NoError(t, tx.Send(1))

	rx.Close()

	assert.ErrorIs(t, tx.Send(2), ErrChannelClosed)
	assert.ErrorIs(t, clone.Send(3), ErrChannelClosed)
	assert.Equal(t, 0, rx.Len(), "pending values are discarded")
}

func TestChannel_ReceiverClose_SendDoesNotBlock(t *testing.T) {
	tx, rx := New[int]()
	rx.Close()

	done := make(chan error, 1)
	go func() { done <- tx.Clone().Send(1) }()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrChannelClosed)
	case <-time.After(time.Second):
		t.Fatal("send blocked on a closed channel")
	}
}

func TestChannel_LastSenderClose_DrainsThenCloses(t *testing.T) {
	tx, rx := New[int]()
	clone := tx.Clone()

	require.NoError(t, tx.Send(1))
	tx.Close()
	require.NoError(t, clone.Send(2))

	for _, want := range []int{1, 2} {
		got, err := rx.Recv(context.Background())
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	// A live sender keeps the drained channel open.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := rx.Recv(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	clone.Close()

	_, err = rx.Recv(context.Background())
	assert.ErrorIs(t, err, ErrChannelClosed)
}

func TestChannel_Recv_ClosureWinsOverCancellation(t *testing.T) {
	for i := 0; i < 100; i++ {
		tx, rx := New[int]()
		ctx, cancel := context.WithCancel(context.Background())

		errc := make(chan error, 1)
		go func() {
			_, err := rx.Recv(ctx)
			errc <- err
		}()

		// Both wake-ups are ready once the receiver looks again.
		tx.Close()
		cancel()

		assert.ErrorIs(t, <-errc, ErrChannelClosed)
	}
}

func TestChannel_LastSenderClose_WakesBlockedRecv(t *testing.T) {
	tx, rx := New[int]()

	errc := make(chan error, 1)
	go func() {
		_, err := rx.Recv(context.Background())
		errc <- err
	}()

	time.Sleep(10 * time.Millisecond)
	tx.Close()

	select {
	case err := <-errc:
		assert.ErrorIs(t, err, ErrChannelClosed)
	case <-time.After(time.Second):
		t.Fatal("recv did not unblock after the last sender closed")
	}
}

func TestChannel_SenderClose_Idempotent(t *testing.T) {
	tx, rx := New[int]()
	clone := tx.Clone()

	tx.Close()
	tx.Close()

	assert.ErrorIs(t, tx.Send(1), ErrChannelClosed)
	require.NoError(t, clone.Send(1), "double close must not release another handle")
	assert.Equal(t, 1, rx.Len())
}

func TestChannel_CloneOfReleasedHandle(t *testing.T) {
	tx, _ := New[int]()
	tx.Close()

	c := tx.Clone()
	assert.ErrorIs(t, c.Send(1), ErrChannelClosed)
	c.Close()
}

func TestChannel_Claim(t *testing.T) {
	_, rx := New[int]()

	require.NoError(t, rx.Claim())
	assert.ErrorIs(t, rx.Claim(), ErrReceiverClaimed)
}

func TestChannel_Len(t *testing.T) {
	tx, rx := New[int]()
	assert.Equal(t, 0, rx.Len())

	require.NoError(t, tx.Send(1))
	require.NoError(t, tx.Send(2))
	assert.Equal(t, 2, rx.Len())

	rx.TryRecv()
	assert.Equal(t, 1, rx.Len())
	assert.Equal(t, int64(2), rx.Sent(), "Sent counts accepted values, not pending ones")
}
