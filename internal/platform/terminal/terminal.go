// Package terminal implements the host platform on a terminal, using a
// bubbletea program as the blocking event loop.
//
// Terminal messages become platform events: WindowSizeMsg is a resize, key
// and mouse messages are input, focus reports are focus changes, ctrl+c is a
// close request and a ticker at the configured frame rate asks for redraws.
// Presented frames are shown by the program's View.
package terminal

import (
	"io"
	"log/slog"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/roach88/loom/internal/platform"
)

// Options configures a Terminal.
type Options struct {
	// Title is set when the program starts, unless the IO engine sets one
	// first.
	Title string

	// FrameRate is the redraw rate in frames per second. Zero disables the
	// redraw ticker.
	FrameRate int

	AltScreen bool
	Mouse     bool

	// Input and Output default to the process's terminal.
	Input  io.Reader
	Output io.Writer

	Logger *slog.Logger
}

// Terminal is a platform.Host backed by bubbletea.
type Terminal struct {
	opts   Options
	logger *slog.Logger

	mu      sync.Mutex
	size    platform.Size
	title   string
	frame   platform.Frame
	program *tea.Program
	exiting bool
}

// New creates a terminal platform.
func New(opts Options) *Terminal {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Terminal{opts: opts, logger: logger, title: opts.Title}
}

// Run starts the bubbletea program and blocks until it exits. A dispatch
// error quits the program and is returned.
func (t *Terminal) Run(dispatch platform.Dispatch) error {
	teaOpts := []tea.ProgramOption{tea.WithReportFocus()}
	if t.opts.AltScreen {
		teaOpts = append(teaOpts, tea.WithAltScreen())
	}
	if t.opts.Mouse {
		teaOpts = append(teaOpts, tea.WithMouseCellMotion())
	}
	if t.opts.Input != nil {
		teaOpts = append(teaOpts, tea.WithInput(t.opts.Input))
	}
	if t.opts.Output != nil {
		teaOpts = append(teaOpts, tea.WithOutput(t.opts.Output))
	}

	m := newModel(t, dispatch)

	t.mu.Lock()
	if t.exiting {
		t.mu.Unlock()
		return nil
	}
	p := tea.NewProgram(m, teaOpts...)
	t.program = p
	m.title = t.title
	t.mu.Unlock()

	defer func() {
		t.mu.Lock()
		t.program = nil
		t.mu.Unlock()
	}()

	final, err := p.Run()
	if fm, ok := final.(*model); ok && fm.err != nil {
		return fm.err
	}
	return err
}

// Exit quits the program. Safe from any goroutine and before Run.
func (t *Terminal) Exit() {
	t.mu.Lock()
	t.exiting = true
	p := t.program
	t.mu.Unlock()

	if p != nil {
		p.Quit()
	}
}

// send delivers msg to a running program. Blocks until the program accepts
// it or has exited.
func (t *Terminal) send(msg tea.Msg) {
	t.mu.Lock()
	p := t.program
	t.mu.Unlock()

	if p != nil {
		p.Send(msg)
	}
}

func (t *Terminal) Size() platform.Size {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.size
}

// ScaleFactor is always 1: terminals measure in cells.
func (t *Terminal) ScaleFactor() float64 { return 1 }

func (t *Terminal) SetTitle(title string) error {
	t.mu.Lock()
	t.title = title
	t.mu.Unlock()

	t.send(titleMsg(title))
	return nil
}

// Present stores the frame and wakes the program to draw it.
func (t *Terminal) Present(f platform.Frame) error {
	t.mu.Lock()
	t.frame = f
	t.mu.Unlock()

	t.send(frameMsg{})
	return nil
}

func (t *Terminal) setSize(w, h int) {
	t.mu.Lock()
	t.size = platform.Size{Width: w, Height: h}
	t.mu.Unlock()
}

func (t *Terminal) content() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.frame.Content
}

func (t *Terminal) interval() time.Duration {
	if t.opts.FrameRate <= 0 {
		return 0
	}
	return time.Second / time.Duration(t.opts.FrameRate)
}
