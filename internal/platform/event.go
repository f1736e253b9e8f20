package platform

import (
	"fmt"

	"golang.org/x/text/unicode/norm"
)

// EventKind distinguishes raw platform events.
type EventKind int

const (
	// EventResized reports a new window size.
	EventResized EventKind = iota + 1
	// EventInput carries keyboard, text or pointer input.
	EventInput
	// EventFocus reports the window gaining or losing focus.
	EventFocus
	// EventScaleChanged reports a new scale factor.
	EventScaleChanged
	// EventRedrawRequested asks for a new frame.
	EventRedrawRequested
	// EventCloseRequested asks the application to close.
	EventCloseRequested
)

var eventKindNames = map[EventKind]string{
	EventResized:         "Resized",
	EventInput:           "Input",
	EventFocus:           "Focus",
	EventScaleChanged:    "ScaleChanged",
	EventRedrawRequested: "RedrawRequested",
	EventCloseRequested:  "CloseRequested",
}

func (k EventKind) String() string {
	if name, ok := eventKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

// InputKind distinguishes input payloads.
type InputKind int

const (
	// InputKey is a named key press ("enter", "ctrl+c", "up").
	InputKey InputKind = iota + 1
	// InputText is committed text.
	InputText
	// InputMouse is a pointer event.
	InputMouse
)

func (k InputKind) String() string {
	switch k {
	case InputKey:
		return "key"
	case InputText:
		return "text"
	case InputMouse:
		return "mouse"
	default:
		return fmt.Sprintf("InputKind(%d)", int(k))
	}
}

// Input is a decoded input payload.
type Input struct {
	Kind   InputKind
	Key    string
	Text   string
	X, Y   int
	Button string
}

func (in Input) String() string {
	switch in.Kind {
	case InputKey:
		return "key " + in.Key
	case InputText:
		return fmt.Sprintf("text %q", in.Text)
	case InputMouse:
		return fmt.Sprintf("mouse %s@%d,%d", in.Button, in.X, in.Y)
	default:
		return "none"
	}
}

// KeyInput builds a named key input.
func KeyInput(key string) Input {
	return Input{Kind: InputKey, Key: key}
}

// TextInput builds a text input. Text is NFC-normalised so that composed and
// decomposed sequences from different platforms compare equal.
func TextInput(text string) Input {
	return Input{Kind: InputText, Text: norm.NFC.String(text)}
}

// MouseInput builds a pointer input.
func MouseInput(x, y int, button string) Input {
	return Input{Kind: InputMouse, X: x, Y: y, Button: button}
}

// Event is one raw platform event. Only the fields for its Kind are set.
type Event struct {
	Kind    EventKind
	Size    Size
	Input   Input
	Focused bool
	Scale   float64
}

func (e Event) String() string {
	switch e.Kind {
	case EventResized:
		return fmt.Sprintf("%s %s", e.Kind, e.Size)
	case EventInput:
		return fmt.Sprintf("%s %s", e.Kind, e.Input)
	case EventFocus:
		return fmt.Sprintf("%s %t", e.Kind, e.Focused)
	case EventScaleChanged:
		return fmt.Sprintf("%s %g", e.Kind, e.Scale)
	default:
		return e.Kind.String()
	}
}

// Resized builds a resize event.
func Resized(width, height int) Event {
	return Event{Kind: EventResized, Size: Size{Width: width, Height: height}}
}

// InputEvent wraps an input payload.
func InputEvent(in Input) Event {
	return Event{Kind: EventInput, Input: in}
}

// Focus builds a focus event.
func Focus(focused bool) Event {
	return Event{Kind: EventFocus, Focused: focused}
}

// ScaleChanged builds a scale factor event.
func ScaleChanged(scale float64) Event {
	return Event{Kind: EventScaleChanged, Scale: scale}
}

// RedrawRequested builds a redraw event.
func RedrawRequested() Event {
	return Event{Kind: EventRedrawRequested}
}

// CloseRequested builds a close event.
func CloseRequested() Event {
	return Event{Kind: EventCloseRequested}
}
