package trace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/roach88/loom/internal/channel"
)

// maxBatch bounds how many entries one Sink write carries.
const maxBatch = 256

// Sink persists batches of entries.
type Sink interface {
	WriteEntries(ctx context.Context, entries []Entry) error
}

// Writer is a Recorder that persists entries off the hot path.
//
// Record only enqueues; a single drain goroutine batches pending entries into
// the Sink. Engines therefore never wait on disk.
type Writer struct {
	tx     *channel.Sender[Entry]
	rx     *channel.Receiver[Entry]
	sink    Sink
	logger  *slog.Logger
	started atomic.Bool
	done    chan struct{}
	err     error
}

// NewWriter creates a writer draining into sink. Call Start to write in the
// background and Close to flush.
func NewWriter(sink Sink, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	tx, rx := channel.New[Entry]()
	return &Writer{
		tx:     tx,
		rx:     rx,
		sink:   sink,
		logger: logger,
		done:   make(chan struct{}),
	}
}

// Record enqueues e. Entries recorded after Close are dropped.
func (w *Writer) Record(e Entry) {
	if err := w.tx.Send(e); err != nil {
		w.logger.Debug("trace entry dropped", "stage", e.Stage, "kind", e.Kind)
	}
}

// Start launches the drain goroutine. Later calls do nothing.
func (w *Writer) Start(ctx context.Context) {
	if !w.started.CompareAndSwap(false, true) {
		return
	}
	go w.drain(ctx)
}

func (w *Writer) drain(ctx context.Context) {
	defer close(w.done)
	defer w.rx.Close()

	// The sink must see entries recorded before Close even if ctx ends.
	writeCtx := context.WithoutCancel(ctx)

	for {
		first, err := w.rx.Recv(ctx)
		if err != nil {
			if !errors.Is(err, channel.ErrChannelClosed) {
				w.err = err
			}
			return
		}

		batch := []Entry{first}
		for len(batch) < maxBatch {
			e, ok := w.rx.TryRecv()
			if !ok {
				break
			}
			batch = append(batch, e)
		}

		if err := w.sink.WriteEntries(writeCtx, batch); err != nil {
			w.err = fmt.Errorf("write trace batch: %w", err)
			w.logger.Error("trace writer stopped", "error", err)
			return
		}
	}
}

// Close stops accepting entries, waits for pending ones to be written and
// returns the first write error. A writer that was never started writes its
// pending entries on the calling goroutine.
func (w *Writer) Close() error {
	w.tx.Close()
	if w.started.CompareAndSwap(false, true) {
		w.drain(context.Background())
	}
	<-w.done
	return w.err
}
