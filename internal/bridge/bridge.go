// Package bridge connects the host platform's event loop to the IO engine.
//
// The platform loop is host-controlled and blocks its goroutine; it cannot be
// made cooperative. The bridge therefore runs on the caller's goroutine,
// normally the main goroutine, while every engine runs on its own. Each
// platform event is wrapped as an IO command and handed off with a send that
// never blocks, so the platform loop is never suspended by the engines.
package bridge

import (
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/roach88/loom/internal/channel"
	"github.com/roach88/loom/internal/command"
	"github.com/roach88/loom/internal/platform"
	"github.com/roach88/loom/internal/trace"
)

// Name identifies the bridge in traces.
const Name = "bridge"

// FatalError ends the platform run: the IO engine is gone, so no later event
// can be delivered.
type FatalError struct {
	Event platform.Event
	Err   error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("bridge: dispatch %s: %v", e.Event, e.Err)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// IsChannelClosed reports whether err ended a run because the IO engine had
// stopped.
func IsChannelClosed(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe) && errors.Is(fe.Err, channel.ErrChannelClosed)
}

type config struct {
	logger *slog.Logger
	tracer *trace.Tracer
}

// Option configures a Bridge.
type Option func(*config)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// WithTracer records every forwarded event.
func WithTracer(t *trace.Tracer) Option {
	return func(c *config) {
		c.tracer = t
	}
}

// Bridge forwards platform events to the IO engine.
type Bridge struct {
	tx        *channel.Sender[command.IO]
	logger    *slog.Logger
	tracer    *trace.Tracer
	forwarded atomic.Int64
}

// New creates a bridge. It takes ownership of tx and releases it when Run
// returns.
func New(tx *channel.Sender[command.IO], opts ...Option) *Bridge {
	cfg := config{logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	return &Bridge{tx: tx, logger: cfg.logger, tracer: cfg.tracer}
}

// Dispatch wraps ev as an IO command and enqueues it. It never blocks. A
// closed IO channel yields a *FatalError.
func (b *Bridge) Dispatch(ev platform.Event) error {
	if err := b.tx.Send(command.WindowEvent(ev)); err != nil {
		return &FatalError{Event: ev, Err: err}
	}
	b.forwarded.Add(1)
	b.tracer.Record(Name, trace.StageBridge, ev.Kind.String(), ev.String())
	return nil
}

// Run drives p on the calling goroutine until its loop ends. A loop ended by
// a failed dispatch returns that *FatalError.
func (b *Bridge) Run(p platform.Platform) error {
	defer b.tx.Close()

	b.logger.Info("event loop starting")
	err := p.Run(b.Dispatch)

	switch {
	case err == nil:
		b.logger.Info("event loop ended", "forwarded", b.Forwarded())
	case IsChannelClosed(err):
		b.logger.Info("event loop ended: IO engine stopped", "forwarded", b.Forwarded())
	default:
		b.logger.Error("event loop failed", "error", err)
	}
	return err
}

// Forwarded returns the number of events delivered to the IO channel.
func (b *Bridge) Forwarded() int64 {
	return b.forwarded.Load()
}
