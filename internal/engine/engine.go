package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/roach88/loom/internal/channel"
	"github.com/roach88/loom/internal/event"
	"github.com/roach88/loom/internal/observer"
	"github.com/roach88/loom/internal/trace"
)

// State is an engine's lifecycle state.
type State int32

const (
	Constructed State = iota
	Running
	Stopped
)

func (s State) String() string {
	switch s {
	case Constructed:
		return "constructed"
	case Running:
		return "running"
	case Stopped:
		return "stopped"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Step tells the loop whether to keep going after a command.
type Step int

const (
	// Continue waits for the next command.
	Continue Step = iota
	// Halt stops the loop cleanly.
	Halt
)

// Command is the constraint on command types.
type Command interface {
	fmt.Stringer
	// Name returns the command's kind, used as the trace kind.
	Name() string
}

// Emitter publishes an event through the engine's Subject. It returns once
// every observer has run.
type Emitter func(event.Event)

// Handler applies commands to the state an engine owns.
//
// Apply runs on the engine goroutine only, so the state it touches needs no
// locking. A non-nil error is fatal to the engine.
type Handler[C Command] interface {
	Apply(ctx context.Context, cmd C, emit Emitter) (Step, error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc[C Command] func(ctx context.Context, cmd C, emit Emitter) (Step, error)

func (f HandlerFunc[C]) Apply(ctx context.Context, cmd C, emit Emitter) (Step, error) {
	return f(ctx, cmd, emit)
}

type config struct {
	logger *slog.Logger
	tracer *trace.Tracer
}

// Option configures a Loop.
type Option func(*config)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// WithTracer records applied commands, emitted events and the stop outcome.
func WithTracer(t *trace.Tracer) Option {
	return func(c *config) {
		c.tracer = t
	}
}

// Loop is the engine state machine.
//
// Thread-safety model:
//   - Run: exactly once, from one goroutine
//   - State, Done, Err, Enqueued, Busy, Applied: safe from any goroutine
type Loop[C Command] struct {
	name    string
	rx      *channel.Receiver[C]
	subject *observer.Subject
	handler Handler[C]
	logger  *slog.Logger
	tracer  *trace.Tracer

	state   atomic.Int32
	busy    atomic.Bool
	applied atomic.Int64
	done    chan struct{}
	err     error
}

// New constructs an engine. The loop takes ownership of rx and subject; a nil
// subject gets an empty one.
func New[C Command](name string, rx *channel.Receiver[C], subject *observer.Subject, h Handler[C], opts ...Option) *Loop[C] {
	cfg := config{logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	if subject == nil {
		subject = observer.NewSubject(name)
	}

	return &Loop[C]{
		name:    name,
		rx:      rx,
		subject: subject,
		handler: h,
		logger:  cfg.logger.With("engine", name),
		tracer:  cfg.tracer,
		done:    make(chan struct{}),
	}
}

// Name returns the engine name.
func (l *Loop[C]) Name() string { return l.name }

// State returns the current lifecycle state.
func (l *Loop[C]) State() State { return State(l.state.Load()) }

// Done is closed once the engine has stopped.
func (l *Loop[C]) Done() <-chan struct{} { return l.done }

// Err returns the stop result. Valid once Done is closed.
func (l *Loop[C]) Err() error {
	select {
	case <-l.done:
		return l.err
	default:
		return nil
	}
}

// Enqueued returns the number of commands ever accepted by the channel. The
// engine is idle when Enqueued equals Applied.
func (l *Loop[C]) Enqueued() int64 { return l.rx.Sent() }

// Busy reports whether a command is being applied. A command that stops the
// loop keeps it busy until the loop has released its channels and stopped.
func (l *Loop[C]) Busy() bool { return l.busy.Load() }

// Applied returns the number of commands applied so far.
func (l *Loop[C]) Applied() int64 { return l.applied.Load() }

// Start runs the engine on a new goroutine.
func (l *Loop[C]) Start(ctx context.Context) {
	go func() {
		_ = l.Run(ctx)
	}()
}

// Run drives the engine until it stops and returns its result:
//   - nil when the channel is closed and drained, or the handler halts
//   - *FatalError when the handler fails or panics
//   - ctx.Err() when ctx is cancelled while the queue is empty
//
// Returns ErrAlreadyStarted, without affecting the running engine, if Run was
// called before.
func (l *Loop[C]) Run(ctx context.Context) error {
	if !l.state.CompareAndSwap(int32(Constructed), int32(Running)) {
		return ErrAlreadyStarted
	}

	if err := l.rx.Claim(); err != nil {
		// The receiver belongs to someone else; leave it alone.
		err = fmt.Errorf("engine %s: %w", l.name, err)
		l.subject.Close()
		l.stop(err)
		return err
	}

	l.logger.Info("engine starting")
	err := l.loop(ctx)

	l.rx.Close()
	l.subject.Close()
	l.stop(err)
	return err
}

func (l *Loop[C]) loop(ctx context.Context) error {
	for {
		cmd, err := l.rx.Recv(ctx)
		if err != nil {
			if errors.Is(err, channel.ErrChannelClosed) {
				return nil
			}
			return err
		}

		l.busy.Store(true)
		step, err := l.apply(ctx, cmd)
		if err != nil || step == Halt {
			// Refuse new commands before this one counts as applied, so an
			// idle engine is never one that still accepts sends.
			l.rx.Close()
		}
		l.applied.Add(1)

		if err != nil {
			return err
		}
		if step == Halt {
			l.logger.Debug("engine halted", "command", cmd.String())
			return nil
		}
		l.busy.Store(false)
	}
}

// apply runs the handler, turning errors and panics into FatalError.
func (l *Loop[C]) apply(ctx context.Context, cmd C) (step Step, err error) {
	defer func() {
		if r := recover(); r != nil {
			step, err = Halt, &FatalError{Engine: l.name, Command: cmd.String(), Panic: r}
		}
	}()

	l.tracer.Record(l.name, trace.StageCommand, cmd.Name(), cmd.String())

	step, err = l.handler.Apply(ctx, cmd, l.emit)
	if err != nil {
		return Halt, &FatalError{Engine: l.name, Command: cmd.String(), Err: err}
	}
	return step, nil
}

func (l *Loop[C]) emit(ev event.Event) {
	ev.Source = l.name
	l.tracer.Record(l.name, trace.StageEvent, ev.Kind.String(), ev.String())

	if err := l.subject.Notify(ev); err != nil {
		l.logger.Warn("event not delivered", "event", ev.Kind.String(), "error", err)
	}
}

func (l *Loop[C]) stop(err error) {
	l.err = err
	l.state.Store(int32(Stopped))
	l.busy.Store(false)

	switch {
	case err == nil:
		l.tracer.Record(l.name, trace.StageStop, "clean", "")
		l.logger.Info("engine stopped")
	case errors.Is(err, context.Canceled):
		l.tracer.Record(l.name, trace.StageStop, "cancelled", "")
		l.logger.Info("engine stopped", "reason", err)
	default:
		l.tracer.Record(l.name, trace.StageStop, "error", err.Error())
		l.logger.Error("engine failed", "error", err)
	}

	close(l.done)
}
