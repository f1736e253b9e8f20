// Package event defines the notifications an engine publishes after applying
// a command.
//
// An Event describes what changed. Events are plain values: publication is a
// fan-out, and every observer receives its own copy.
package event

import (
	"fmt"

	"github.com/roach88/loom/internal/platform"
)

// Kind distinguishes event variants.
type Kind int

const (
	// SurfaceResized reports a new drawable size or scale.
	SurfaceResized Kind = iota + 1
	// InputReceived carries user input decoded by the IO engine.
	InputReceived
	// FocusChanged reports the window gaining or losing focus.
	FocusChanged
	// FrameRequested asks for a new frame.
	FrameRequested
	// RepaintNeeded carries fresh GUI output to draw.
	RepaintNeeded
	// FramePresented reports a frame reaching the surface.
	FramePresented
	// CloseRequested asks the application to close.
	CloseRequested
)

var kindNames = map[Kind]string{
	SurfaceResized: "SurfaceResized",
	InputReceived:  "InputReceived",
	FocusChanged:   "FocusChanged",
	FrameRequested: "FrameRequested",
	RepaintNeeded:  "RepaintNeeded",
	FramePresented: "FramePresented",
	CloseRequested: "CloseRequested",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Kinds returns every defined kind in declaration order.
func Kinds() []Kind {
	return []Kind{
		SurfaceResized,
		InputReceived,
		FocusChanged,
		FrameRequested,
		RepaintNeeded,
		FramePresented,
		CloseRequested,
	}
}

// Paint is one GUI output, versioned so that stale paints can be recognised.
type Paint struct {
	Version int64
	Content string
}

// Event is a tagged union. Only the fields for its Kind are set; Source names
// the publishing engine and is filled in by the engine loop.
type Event struct {
	Kind    Kind
	Source  string
	Size    platform.Size
	Scale   float64
	Input   platform.Input
	Focused bool
	Frame   platform.Frame
	Paint   Paint
}

func (e Event) String() string {
	switch e.Kind {
	case SurfaceResized:
		return fmt.Sprintf("%s %s@%g", e.Kind, e.Size, e.Scale)
	case InputReceived:
		return fmt.Sprintf("%s %s", e.Kind, e.Input)
	case FocusChanged:
		return fmt.Sprintf("%s %t", e.Kind, e.Focused)
	case RepaintNeeded:
		return fmt.Sprintf("%s v%d", e.Kind, e.Paint.Version)
	case FramePresented:
		return fmt.Sprintf("%s #%d", e.Kind, e.Frame.Seq)
	default:
		return e.Kind.String()
	}
}

// Resized builds a SurfaceResized event.
func Resized(size platform.Size, scale float64) Event {
	return Event{Kind: SurfaceResized, Size: size, Scale: scale}
}

// Input builds an InputReceived event.
func Input(in platform.Input) Event {
	return Event{Kind: InputReceived, Input: in}
}

// Focus builds a FocusChanged event.
func Focus(focused bool) Event {
	return Event{Kind: FocusChanged, Focused: focused}
}

// FrameRequest builds a FrameRequested event.
func FrameRequest() Event {
	return Event{Kind: FrameRequested}
}

// Repaint builds a RepaintNeeded event.
func Repaint(p Paint) Event {
	return Event{Kind: RepaintNeeded, Paint: p}
}

// Presented builds a FramePresented event.
func Presented(f platform.Frame) Event {
	return Event{Kind: FramePresented, Frame: f}
}

// Close builds a CloseRequested event.
func Close() Event {
	return Event{Kind: CloseRequested}
}
