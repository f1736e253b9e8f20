// Package window implements the IO engine: the only engine that holds the
// full window handle and the only one allowed to mutate it.
//
// The IO engine receives raw platform events from the event loop bridge and
// publishes them as domain events for the GUI and render engines.
package window

import (
	"context"
	"fmt"

	"github.com/roach88/loom/internal/command"
	"github.com/roach88/loom/internal/engine"
	"github.com/roach88/loom/internal/event"
	"github.com/roach88/loom/internal/platform"
)

// Name is the IO engine's name in traces and reports.
const Name = "io"

// Handler owns the window state. All fields are touched only from the engine
// goroutine.
type Handler struct {
	win     platform.Window
	size    platform.Size
	scale   float64
	focused bool
	title   string
}

// New creates the IO handler, seeding its state from win.
func New(win platform.Window) *Handler {
	scale := win.ScaleFactor()
	if scale <= 0 {
		scale = 1
	}
	return &Handler{
		win:     win,
		size:    win.Size(),
		scale:   scale,
		focused: true,
	}
}

// Apply implements engine.Handler.
func (h *Handler) Apply(_ context.Context, cmd command.IO, emit engine.Emitter) (engine.Step, error) {
	switch cmd.Kind {
	case command.IOWindowEvent:
		return h.windowEvent(cmd.Window, emit)

	case command.IOSetTitle:
		if err := h.win.SetTitle(cmd.Title); err != nil {
			return engine.Halt, fmt.Errorf("set title: %w", err)
		}
		h.title = cmd.Title
		return engine.Continue, nil

	default:
		return engine.Halt, fmt.Errorf("unknown IO command kind: %d", int(cmd.Kind))
	}
}

func (h *Handler) windowEvent(ev platform.Event, emit engine.Emitter) (engine.Step, error) {
	switch ev.Kind {
	case platform.EventResized:
		h.size = ev.Size
		emit(event.Resized(h.size, h.scale))

	case platform.EventScaleChanged:
		if ev.Scale > 0 {
			h.scale = ev.Scale
		}
		emit(event.Resized(h.size, h.scale))

	case platform.EventInput:
		emit(event.Input(ev.Input))

	case platform.EventFocus:
		h.focused = ev.Focused
		emit(event.Focus(ev.Focused))

	case platform.EventRedrawRequested:
		emit(event.FrameRequest())

	case platform.EventCloseRequested:
		// Ending the loop drops the receiver; the bridge's next send fails
		// and the platform run ends.
		return engine.Halt, nil

	default:
		return engine.Halt, fmt.Errorf("unknown platform event kind: %d", int(ev.Kind))
	}
	return engine.Continue, nil
}

// Size returns the last known surface size.
func (h *Handler) Size() platform.Size { return h.size }

// Scale returns the last known scale factor.
func (h *Handler) Scale() float64 { return h.scale }

// Focused reports whether the window has focus.
func (h *Handler) Focused() bool { return h.focused }

// Title returns the last title applied.
func (h *Handler) Title() string { return h.title }
