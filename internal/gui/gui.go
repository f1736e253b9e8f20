// Package gui implements the GUI engine.
//
// The engine owns a Context, the GUI toolkit collaborator. It feeds the
// context resize, input, focus and frame notifications and publishes fresh
// paints for the render engine.
package gui

import (
	"context"
	"fmt"

	"github.com/roach88/loom/internal/command"
	"github.com/roach88/loom/internal/engine"
	"github.com/roach88/loom/internal/event"
	"github.com/roach88/loom/internal/platform"
)

// Name is the GUI engine's name in traces and reports.
const Name = "gui"

// Context is the GUI toolkit. It is called from the GUI engine goroutine
// only.
type Context interface {
	// Resize lays the UI out for a new surface.
	Resize(size platform.Size, scale float64)
	// HandleInput applies user input and reports whether the UI changed.
	HandleInput(in platform.Input) bool
	// Focus applies a focus change and reports whether the UI changed.
	Focus(focused bool) bool
	// FrameDone reports a presented frame and whether another frame is
	// wanted, for animation.
	FrameDone(frame platform.Frame) bool
	// WantsClose reports whether the UI asked the application to close.
	WantsClose() bool
	// Paint produces the UI layer. It may block while the toolkit lays out.
	Paint(ctx context.Context) (string, error)
}

// Handler applies GUI commands.
type Handler struct {
	ui        Context
	view      platform.View
	version   int64
	closeSent bool
}

// New creates the GUI handler. view is the read-only window view, used when a
// resize arrives without a size; it may be nil.
func New(ui Context, view platform.View) *Handler {
	return &Handler{ui: ui, view: view}
}

// Apply implements engine.Handler.
func (h *Handler) Apply(ctx context.Context, cmd command.GUI, emit engine.Emitter) (engine.Step, error) {
	switch cmd.Kind {
	case command.GUIResize:
		size, scale := cmd.Size, cmd.Scale
		if size.IsZero() && h.view != nil {
			size = h.view.Size()
		}
		if scale <= 0 {
			scale = 1
			if h.view != nil {
				scale = h.view.ScaleFactor()
			}
		}
		h.ui.Resize(size, scale)
		return h.repaint(ctx, emit)

	case command.GUIInput:
		changed := h.ui.HandleInput(cmd.Input)
		if h.ui.WantsClose() {
			if !h.closeSent {
				h.closeSent = true
				emit(event.Close())
			}
			return engine.Continue, nil
		}
		if changed {
			return h.repaint(ctx, emit)
		}
		return engine.Continue, nil

	case command.GUIFocus:
		if h.ui.Focus(cmd.Focused) {
			return h.repaint(ctx, emit)
		}
		return engine.Continue, nil

	case command.GUIFrameDone:
		if h.ui.FrameDone(cmd.Frame) {
			emit(event.FrameRequest())
		}
		return engine.Continue, nil

	default:
		return engine.Halt, fmt.Errorf("unknown GUI command kind: %d", int(cmd.Kind))
	}
}

func (h *Handler) repaint(ctx context.Context, emit engine.Emitter) (engine.Step, error) {
	content, err := h.ui.Paint(ctx)
	if err != nil {
		return engine.Halt, fmt.Errorf("paint: %w", err)
	}
	h.version++
	emit(event.Repaint(event.Paint{Version: h.version, Content: content}))
	return engine.Continue, nil
}

// Version returns the number of paints published.
func (h *Handler) Version() int64 { return h.version }
