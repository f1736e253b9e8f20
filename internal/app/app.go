// Package app wires the channels, subjects, engines and bridge into one
// running application.
//
// Topology:
//
//	platform --bridge--> io --(render, gui)
//	gui --(render, io)
//	render --(gui)
//
// Every Subject is populated before its engine is constructed. The IO subject
// feeds render before gui so that a resize reaches the render engine before
// any paint the GUI produces for the new size.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync/atomic"
	"time"

	"github.com/roach88/loom/internal/bridge"
	"github.com/roach88/loom/internal/channel"
	"github.com/roach88/loom/internal/command"
	"github.com/roach88/loom/internal/engine"
	"github.com/roach88/loom/internal/gui"
	"github.com/roach88/loom/internal/observer"
	"github.com/roach88/loom/internal/platform"
	"github.com/roach88/loom/internal/render"
	"github.com/roach88/loom/internal/trace"
	"github.com/roach88/loom/internal/window"
)

// DefaultShutdownTimeout bounds how long Run waits for the engines once the
// platform loop has ended.
const DefaultShutdownTimeout = 2 * time.Second

// settlePoll is the interval between quiescence checks.
const settlePoll = time.Millisecond

// ErrAlreadyRunning is returned by a second call to Run.
var ErrAlreadyRunning = errors.New("app already running")

// InitError reports a construction failure. Nothing is started when it is
// returned.
type InitError struct {
	Stage string
	Err   error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("init %s: %v", e.Stage, e.Err)
}

func (e *InitError) Unwrap() error {
	return e.Err
}

// Options configures an App. The zero value is usable.
type Options struct {
	// Title is applied to the window by the IO engine at startup.
	Title string

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// Recorder receives the trace. Default: discard.
	Recorder trace.Recorder

	// Session identifies this run in the trace. Default: a new UUIDv7.
	Session string

	// IDs generates frame ids. Default: UUIDv7.
	IDs engine.IDGenerator

	// ShutdownTimeout defaults to DefaultShutdownTimeout.
	ShutdownTimeout time.Duration

	// GUI defaults to a gui.Panel titled Title.
	GUI gui.Context

	// Renderer defaults to a render.TextRenderer with a status line.
	Renderer render.Renderer
}

// App is one wired application instance. It runs once.
type App struct {
	host    platform.Host
	logger  *slog.Logger
	tracer  *trace.Tracer
	timeout time.Duration

	io     *engine.Loop[command.IO]
	gui    *engine.Loop[command.GUI]
	render *engine.Loop[command.Render]
	bridge *bridge.Bridge
	topo   Topology

	running atomic.Bool
}

// New builds the application on host. On error nothing has been started.
func New(host platform.Host, opts Options) (*App, error) {
	if host == nil {
		return nil, &InitError{Stage: "host", Err: errors.New("no platform host")}
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	session := opts.Session
	if session == "" {
		session = engine.UUIDv7Generator{}.Generate()
	}
	timeout := opts.ShutdownTimeout
	if timeout <= 0 {
		timeout = DefaultShutdownTimeout
	}
	ui := opts.GUI
	if ui == nil {
		ui = gui.NewPanel(opts.Title)
	}
	renderer := opts.Renderer
	if renderer == nil {
		renderer = render.NewTextRenderer(true)
	}
	tracer := trace.New(session, opts.Recorder)

	renderHandler := render.New(renderer, host, opts.IDs)
	if err := renderHandler.Init(); err != nil {
		return nil, &InitError{Stage: render.Name, Err: err}
	}

	ioTx, ioRx := channel.New[command.IO]()
	guiTx, guiRx := channel.New[command.GUI]()
	renderTx, renderRx := channel.New[command.Render]()

	if opts.Title != "" {
		// Applied by the IO engine before any platform event.
		if err := ioTx.Send(command.SetTitle(opts.Title)); err != nil {
			return nil, &InitError{Stage: window.Name, Err: err}
		}
	}

	ioSubject := observer.NewSubject(window.Name, observer.WithTracer(tracer))
	ioSubject.Attach(observer.NewRenderTranslator(renderTx))
	ioSubject.Attach(observer.NewGUITranslator(guiTx))

	guiSubject := observer.NewSubject(gui.Name, observer.WithTracer(tracer))
	guiSubject.Attach(observer.NewRenderTranslator(renderTx.Clone()))
	guiSubject.Attach(observer.NewIOTranslator(ioTx.Clone()))

	renderSubject := observer.NewSubject(render.Name, observer.WithTracer(tracer))
	renderSubject.Attach(observer.NewGUITranslator(guiTx.Clone()))

	engineOpts := []engine.Option{engine.WithLogger(logger), engine.WithTracer(tracer)}

	a := &App{
		host:    host,
		logger:  logger,
		tracer:  tracer,
		timeout: timeout,
		io:      engine.New(window.Name, ioRx, ioSubject, window.New(host), engineOpts...),
		gui:     engine.New(gui.Name, guiRx, guiSubject, gui.New(ui, host), engineOpts...),
		render:  engine.New(render.Name, renderRx, renderSubject, renderHandler, engineOpts...),
		bridge:  bridge.New(ioTx, bridge.WithLogger(logger), bridge.WithTracer(tracer)),
		topo:    Topology{},
	}
	for _, s := range []*observer.Subject{ioSubject, guiSubject, renderSubject} {
		a.topo[s.Name()] = s.Targets()
	}
	return a, nil
}

// Session returns the trace session id.
func (a *App) Session() string {
	return a.tracer.Session()
}

// Topology returns the command routes between engines.
func (a *App) Topology() Topology {
	out := make(Topology, len(a.topo))
	for name, targets := range a.topo {
		out[name] = slices.Clone(targets)
	}
	return out
}

// Run starts the engines, drives the platform loop on the calling goroutine
// and returns once every engine has stopped.
//
// The platform is asked to exit when the IO engine stops. After the loop
// returns, Run waits for the remaining work to settle, bounded by the
// shutdown timeout, then cancels the engine context; each engine drains the
// commands already queued before stopping.
//
// Engine failures are reported in the Report, not as Run's error. Run fails
// only when the platform loop itself fails.
func (a *App) Run(ctx context.Context) (*Report, error) {
	if !a.running.CompareAndSwap(false, true) {
		return nil, ErrAlreadyRunning
	}

	engineCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	group := engine.NewGroup()
	group.Go(engineCtx, a.io)
	group.Go(engineCtx, a.gui)
	group.Go(engineCtx, a.render)

	loopDone := make(chan struct{})
	go func() {
		select {
		case <-a.io.Done():
			a.logger.Debug("IO engine stopped, exiting platform loop")
			a.host.Exit()
		case <-ctx.Done():
			a.host.Exit()
		case <-loopDone:
		}
	}()

	bridgeErr := a.bridge.Run(a.host)
	close(loopDone)

	// Engines in a sender cycle never see their channels close; they are
	// cancelled once the work in flight has drained.
	for _, c := range a.topo.Cycles() {
		a.logger.Debug("engines in sender cycle stop by cancellation", "cycle", c.String())
	}
	shutdownCtx, stop := context.WithTimeout(context.WithoutCancel(ctx), a.timeout)
	if err := a.Settle(shutdownCtx); err != nil {
		a.logger.Warn("engines did not settle before shutdown", "error", err)
	}
	stop()
	cancel()

	report := &Report{
		Session:   a.Session(),
		Forwarded: a.bridge.Forwarded(),
		Bridge:    bridgeErr,
		Engines:   group.Wait(),
	}

	if bridgeErr != nil && !bridge.IsChannelClosed(bridgeErr) {
		return report, bridgeErr
	}
	return report, nil
}

// Settle blocks until no engine has queued or in-flight work. Stopped
// engines count as idle. Safe to call while Run is in progress.
func (a *App) Settle(ctx context.Context) error {
	var prev []int64
	for {
		snap, idle := a.snapshot()
		if idle && slices.Equal(snap, prev) {
			return nil
		}
		prev = snap

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(settlePoll):
		}
	}
}

type counters interface {
	State() engine.State
	Busy() bool
	Enqueued() int64
	Applied() int64
}

// snapshot reads every engine's counters. Two equal idle snapshots in a row
// mean nothing ran in between. An engine that is stopping stays busy until it
// has released its senders, so its targets see the closure before Settle
// returns.
func (a *App) snapshot() ([]int64, bool) {
	idle := true
	snap := make([]int64, 0, 6)
	for _, e := range []counters{a.io, a.gui, a.render} {
		if e.State() == engine.Stopped {
			snap = append(snap, -1, -1)
			continue
		}
		enq, applied := e.Enqueued(), e.Applied()
		if enq != applied || e.Busy() {
			idle = false
		}
		snap = append(snap, enq, applied)
	}
	return snap, idle
}
