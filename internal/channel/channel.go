// Package channel implements the command channel that feeds an engine.
//
// A channel is an unbounded FIFO with any number of Sender handles and exactly
// one Receiver. Send never blocks, so the platform event loop can hand a
// command off without being suspended. The Receiver is the only suspension
// point of an engine loop.
//
// Closure:
//   - Receiver.Close drops the receiver. Pending values are discarded and
//     every later Send, on any clone, fails with ErrChannelClosed.
//   - Sender.Close releases one handle. When the last handle is released the
//     channel is closed for receiving: pending values are still delivered,
//     then Recv returns ErrChannelClosed.
//
// Ordering: a single mutex serialises producers, so values sent by one
// goroutine are received in the order they were sent.
package channel

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// ErrChannelClosed is returned by Send when the receiver is gone and by Recv
// once the channel is closed and drained.
var ErrChannelClosed = errors.New("channel closed")

// ErrReceiverClaimed is returned by Claim when a second consumer tries to take
// ownership of a receiver.
var ErrReceiverClaimed = errors.New("channel receiver already claimed")

// queue is the shared state behind one channel.
type queue[T any] struct {
	mu          sync.Mutex
	items       []T
	sent        int64
	senders     int
	sendersGone bool
	recvGone    bool
	claimed     bool
	finished    bool
	signal      chan struct{} // buffered, size 1
	done        chan struct{} // closed when no further values can arrive
}

// finish closes done exactly once. Caller holds mu.
func (q *queue[T]) finish() {
	if q.finished {
		return
	}
	q.finished = true
	close(q.done)
}

// Sender is one owning handle on a channel's sending side.
// A Sender is safe for concurrent use.
type Sender[T any] struct {
	q        *queue[T]
	released atomic.Bool
}

// Receiver is the unique receiving side of a channel.
type Receiver[T any] struct {
	q *queue[T]
}

// New creates a channel and returns its first sender handle and its receiver.
func New[T any]() (*Sender[T], *Receiver[T]) {
	q := &queue[T]{
		items:   make([]T, 0, 16),
		senders: 1,
		signal:  make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	return &Sender[T]{q: q}, &Receiver[T]{q: q}
}

// Send enqueues v. It never blocks.
// Returns ErrChannelClosed if the receiver has been dropped or this handle
// has been released.
func (s *Sender[T]) Send(v T) error {
	if s.released.Load() {
		return ErrChannelClosed
	}

	q := s.q
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.recvGone {
		return ErrChannelClosed
	}

	q.items = append(q.items, v)
	q.sent++

	// Non-blocking: the buffer of 1 coalesces wake-ups.
	select {
	case q.signal <- struct{}{}:
	default:
	}

	return nil
}

// Clone returns a new owning handle on the same channel.
// Cloning a released handle, or a channel whose senders are all gone, yields a
// handle whose Send always fails.
func (s *Sender[T]) Clone() *Sender[T] {
	q := s.q
	q.mu.Lock()
	defer q.mu.Unlock()

	c := &Sender[T]{q: q}
	if s.released.Load() || q.sendersGone {
		c.released.Store(true)
		return c
	}
	q.senders++
	return c
}

// Close releases this handle. Safe to call more than once.
func (s *Sender[T]) Close() {
	if !s.released.CompareAndSwap(false, true) {
		return
	}

	q := s.q
	q.mu.Lock()
	defer q.mu.Unlock()

	q.senders--
	if q.senders == 0 {
		q.sendersGone = true
		q.finish()
	}
}

// Claim marks the receiver as owned by a consumer. A receiver can be claimed
// once; later calls return ErrReceiverClaimed.
func (r *Receiver[T]) Claim() error {
	r.q.mu.Lock()
	defer r.q.mu.Unlock()

	if r.q.claimed {
		return ErrReceiverClaimed
	}
	r.q.claimed = true
	return nil
}

// TryRecv removes and returns the front value without blocking.
// Returns false if the queue is empty.
func (r *Receiver[T]) TryRecv() (T, bool) {
	q := r.q
	q.mu.Lock()
	defer q.mu.Unlock()

	var zero T
	if len(q.items) == 0 {
		return zero, false
	}

	v := q.items[0]

	// Clear the slot so the backing array does not pin the value.
	q.items[0] = zero
	if len(q.items) == 1 {
		q.items = q.items[:0]
	} else {
		q.items = q.items[1:]
	}

	return v, true
}

// Recv removes and returns the front value, suspending until one is
// available. Pending values are always delivered before closure or
// cancellation is reported.
//
// Returns ErrChannelClosed once the channel is closed and drained, or
// ctx.Err() if ctx is cancelled while the queue is empty and still open. A
// channel that is closed when cancellation arrives reports closure.
func (r *Receiver[T]) Recv(ctx context.Context) (T, error) {
	var zero T
	for {
		if v, ok := r.TryRecv(); ok {
			return v, nil
		}
		if r.drained() {
			return zero, ErrChannelClosed
		}

		select {
		case <-ctx.Done():
			if v, ok := r.TryRecv(); ok {
				return v, nil
			}
			if r.drained() {
				return zero, ErrChannelClosed
			}
			return zero, ctx.Err()
		case <-r.q.signal:
		case <-r.q.done:
		}
	}
}

// drained reports whether the channel is closed and holds no values.
func (r *Receiver[T]) drained() bool {
	r.q.mu.Lock()
	defer r.q.mu.Unlock()
	return (r.q.sendersGone || r.q.recvGone) && len(r.q.items) == 0
}

// Len returns the number of pending values.
func (r *Receiver[T]) Len() int {
	r.q.mu.Lock()
	defer r.q.mu.Unlock()
	return len(r.q.items)
}

// Sent returns the number of values ever accepted by Send.
func (r *Receiver[T]) Sent() int64 {
	r.q.mu.Lock()
	defer r.q.mu.Unlock()
	return r.q.sent
}

// Close drops the receiver. Pending values are discarded and every later
// Send fails with ErrChannelClosed. Safe to call more than once.
func (r *Receiver[T]) Close() {
	q := r.q
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.recvGone {
		return
	}

	q.recvGone = true
	clear(q.items)
	q.items = q.items[:0]
	q.finish()
}
