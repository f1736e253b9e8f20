// Package command defines the command sets accepted by each engine.
//
// Each engine has its own command type. Commands are values: a sender moves a
// command into a channel and the single receiving engine applies it.
package command

import (
	"fmt"

	"github.com/roach88/loom/internal/event"
	"github.com/roach88/loom/internal/platform"
)

// IOKind distinguishes IO engine commands.
type IOKind int

const (
	// IOWindowEvent carries one raw platform event.
	IOWindowEvent IOKind = iota + 1
	// IOSetTitle changes the window title.
	IOSetTitle
)

func (k IOKind) String() string {
	switch k {
	case IOWindowEvent:
		return "WindowEvent"
	case IOSetTitle:
		return "SetTitle"
	default:
		return fmt.Sprintf("IOKind(%d)", int(k))
	}
}

// IO is a command for the IO engine.
type IO struct {
	Kind   IOKind
	Window platform.Event
	Title  string
}

// Name returns the command kind.
func (c IO) Name() string { return c.Kind.String() }

func (c IO) String() string {
	switch c.Kind {
	case IOWindowEvent:
		return fmt.Sprintf("%s(%s)", c.Kind, c.Window)
	case IOSetTitle:
		return fmt.Sprintf("%s(%q)", c.Kind, c.Title)
	default:
		return c.Kind.String()
	}
}

// WindowEvent wraps a platform event for the IO engine.
func WindowEvent(ev platform.Event) IO {
	return IO{Kind: IOWindowEvent, Window: ev}
}

// SetTitle builds a title change.
func SetTitle(title string) IO {
	return IO{Kind: IOSetTitle, Title: title}
}

// GUIKind distinguishes GUI engine commands.
type GUIKind int

const (
	// GUIResize reports a new surface size and scale.
	GUIResize GUIKind = iota + 1
	// GUIInput forwards user input.
	GUIInput
	// GUIFocus forwards a focus change.
	GUIFocus
	// GUIFrameDone reports that a frame reached the surface.
	GUIFrameDone
)

func (k GUIKind) String() string {
	switch k {
	case GUIResize:
		return "Resize"
	case GUIInput:
		return "Input"
	case GUIFocus:
		return "Focus"
	case GUIFrameDone:
		return "FrameDone"
	default:
		return fmt.Sprintf("GUIKind(%d)", int(k))
	}
}

// GUI is a command for the GUI engine.
type GUI struct {
	Kind    GUIKind
	Size    platform.Size
	Scale   float64
	Input   platform.Input
	Focused bool
	Frame   platform.Frame
}

// Name returns the command kind.
func (c GUI) Name() string { return c.Kind.String() }

func (c GUI) String() string {
	switch c.Kind {
	case GUIResize:
		return fmt.Sprintf("%s(%s@%g)", c.Kind, c.Size, c.Scale)
	case GUIInput:
		return fmt.Sprintf("%s(%s)", c.Kind, c.Input)
	case GUIFocus:
		return fmt.Sprintf("%s(%t)", c.Kind, c.Focused)
	case GUIFrameDone:
		return fmt.Sprintf("%s(#%d)", c.Kind, c.Frame.Seq)
	default:
		return c.Kind.String()
	}
}

// RenderKind distinguishes render engine commands.
type RenderKind int

const (
	// RenderResize reconfigures the surface.
	RenderResize RenderKind = iota + 1
	// RenderFrame composes and presents one frame.
	RenderFrame
	// RenderDrawUI replaces the UI layer.
	RenderDrawUI
)

func (k RenderKind) String() string {
	switch k {
	case RenderResize:
		return "Resize"
	case RenderFrame:
		return "Frame"
	case RenderDrawUI:
		return "DrawUI"
	default:
		return fmt.Sprintf("RenderKind(%d)", int(k))
	}
}

// Render is a command for the render engine.
type Render struct {
	Kind  RenderKind
	Size  platform.Size
	Scale float64
	Paint event.Paint
}

// Name returns the command kind.
func (c Render) Name() string { return c.Kind.String() }

func (c Render) String() string {
	switch c.Kind {
	case RenderResize:
		return fmt.Sprintf("%s(%s@%g)", c.Kind, c.Size, c.Scale)
	case RenderDrawUI:
		return fmt.Sprintf("%s(v%d)", c.Kind, c.Paint.Version)
	default:
		return c.Kind.String()
	}
}
