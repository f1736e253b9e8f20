package script

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/loom/internal/platform"
)

// SettleTimeout bounds each wait for the application to go idle.
const SettleTimeout = 5 * time.Second

// Settler waits for the application to go idle.
type Settler func(ctx context.Context) error

// Platform replays a Script. It implements platform.Host.
type Platform struct {
	script *Script
	logger *slog.Logger

	mu      sync.Mutex
	size    platform.Size
	scale   float64
	title   string
	frames  []platform.Frame
	settler Settler

	exit     chan struct{}
	exitOnce sync.Once
}

// New creates a platform for s. A nil logger uses slog.Default().
func New(s *Script, logger *slog.Logger) *Platform {
	if logger == nil {
		logger = slog.Default()
	}
	scale := s.Scale
	if scale <= 0 {
		scale = 1
	}
	return &Platform{
		script: s,
		logger: logger,
		size:   s.Size,
		scale:  scale,
		exit:   make(chan struct{}),
	}
}

// SetSettler installs the idle wait used by settle steps and AutoSettle.
func (p *Platform) SetSettler(fn Settler) {
	p.mu.Lock()
	p.settler = fn
	p.mu.Unlock()
}

// Run dispatches every step in order. It returns nil when the script ends or
// Exit is called, and the dispatch error if one fails.
func (p *Platform) Run(dispatch platform.Dispatch) error {
	for i, st := range p.script.Steps {
		select {
		case <-p.exit:
			p.logger.Debug("script exited early", "step", i+1)
			return nil
		default:
		}

		if ev, ok := st.Event(); ok {
			p.apply(ev)
			if err := dispatch(ev); err != nil {
				return err
			}
		}

		if st.Settle || p.script.AutoSettle {
			p.settle(i + 1)
		}
	}
	return nil
}

// apply updates window state the way a real platform does before it reports
// the change.
func (p *Platform) apply(ev platform.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch ev.Kind {
	case platform.EventResized:
		p.size = ev.Size
	case platform.EventScaleChanged:
		p.scale = ev.Scale
	}
}

func (p *Platform) settle(step int) {
	p.mu.Lock()
	fn := p.settler
	p.mu.Unlock()
	if fn == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), SettleTimeout)
	defer cancel()
	if err := fn(ctx); err != nil {
		p.logger.Warn("settle failed", "step", step, "error", err)
	}
}

// Exit stops Run before its next step. Safe to call more than once and before
// Run.
func (p *Platform) Exit() {
	p.exitOnce.Do(func() { close(p.exit) })
}

func (p *Platform) Size() platform.Size {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.size
}

func (p *Platform) ScaleFactor() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.scale
}

func (p *Platform) SetTitle(title string) error {
	p.mu.Lock()
	p.title = title
	p.mu.Unlock()
	return nil
}

func (p *Platform) Present(f platform.Frame) error {
	p.mu.Lock()
	p.frames = append(p.frames, f)
	p.mu.Unlock()
	return nil
}

// Title returns the window title.
func (p *Platform) Title() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.title
}

// Frames returns every presented frame in order.
func (p *Platform) Frames() []platform.Frame {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]platform.Frame(nil), p.frames...)
}

// LastFrame returns the most recent frame, if any.
func (p *Platform) LastFrame() (platform.Frame, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.frames) == 0 {
		return platform.Frame{}, false
	}
	return p.frames[len(p.frames)-1], true
}
