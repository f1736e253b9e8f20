// Package render implements the render engine.
//
// The engine owns a Renderer, the drawing collaborator, plus the surface view
// it presents frames to. It keeps the latest UI layer from the GUI engine and
// composes, presents and announces frames.
package render

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/loom/internal/command"
	"github.com/roach88/loom/internal/engine"
	"github.com/roach88/loom/internal/event"
	"github.com/roach88/loom/internal/platform"
)

// Name is the render engine's name in traces and reports.
const Name = "render"

// ErrSurfaceLost is returned by a Renderer whose surface must be reconfigured
// before it can draw again. The engine reconfigures and retries once.
var ErrSurfaceLost = errors.New("render surface lost")

// Layer is one input to frame composition, bottom first.
type Layer struct {
	Name    string
	Content string
}

// Renderer is the drawing collaborator. It is called from the render engine
// goroutine only.
type Renderer interface {
	// Configure prepares the surface for a size and scale.
	Configure(size platform.Size, scale float64) error
	// Compose draws the layers into a frame. It may block while acquiring
	// the next surface image.
	Compose(ctx context.Context, layers []Layer) (string, error)
}

// Handler applies render commands.
type Handler struct {
	renderer Renderer
	surface  platform.Surface
	ids      engine.IDGenerator
	size     platform.Size
	scale    float64
	ui       event.Paint
	seq      int64
}

// New creates the render handler. A nil ids uses UUIDv7 frame ids.
func New(r Renderer, surface platform.Surface, ids engine.IDGenerator) *Handler {
	if ids == nil {
		ids = engine.UUIDv7Generator{}
	}
	return &Handler{renderer: r, surface: surface, ids: ids, scale: 1}
}

// Init configures the renderer for the surface's current size. Called once
// before the engine starts; a failure aborts startup.
func (h *Handler) Init() error {
	return h.configure(h.surface.Size(), h.surface.ScaleFactor())
}

// Apply implements engine.Handler.
func (h *Handler) Apply(ctx context.Context, cmd command.Render, emit engine.Emitter) (engine.Step, error) {
	switch cmd.Kind {
	case command.RenderResize:
		size, scale := cmd.Size, cmd.Scale
		if size.IsZero() {
			size = h.surface.Size()
		}
		if scale <= 0 {
			scale = h.surface.ScaleFactor()
		}
		if err := h.configure(size, scale); err != nil {
			return engine.Halt, err
		}
		return engine.Continue, nil

	case command.RenderDrawUI:
		if cmd.Paint.Version < h.ui.Version {
			return engine.Continue, nil
		}
		h.ui = cmd.Paint
		return h.present(ctx, emit)

	case command.RenderFrame:
		return h.present(ctx, emit)

	default:
		return engine.Halt, fmt.Errorf("unknown render command kind: %d", int(cmd.Kind))
	}
}

func (h *Handler) configure(size platform.Size, scale float64) error {
	if err := h.renderer.Configure(size, scale); err != nil {
		return fmt.Errorf("configure %s: %w", size, err)
	}
	h.size, h.scale = size, scale
	return nil
}

func (h *Handler) present(ctx context.Context, emit engine.Emitter) (engine.Step, error) {
	layers := []Layer{{Name: "ui", Content: h.ui.Content}}

	content, err := h.renderer.Compose(ctx, layers)
	if errors.Is(err, ErrSurfaceLost) {
		if err := h.configure(h.surface.Size(), h.surface.ScaleFactor()); err != nil {
			return engine.Halt, err
		}
		content, err = h.renderer.Compose(ctx, layers)
	}
	if err != nil {
		return engine.Halt, fmt.Errorf("compose: %w", err)
	}

	h.seq++
	frame := platform.Frame{
		ID:      h.ids.Generate(),
		Seq:     h.seq,
		Size:    h.size,
		Content: content,
	}
	if err := h.surface.Present(frame); err != nil {
		return engine.Halt, fmt.Errorf("present frame %d: %w", frame.Seq, err)
	}

	// Observers only need to know which frame landed.
	frame.Content = ""
	emit(event.Presented(frame))
	return engine.Continue, nil
}

// Presented returns the number of frames presented.
func (h *Handler) Presented() int64 { return h.seq }
