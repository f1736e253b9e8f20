package observer

import (
	"fmt"

	"github.com/roach88/loom/internal/channel"
	"github.com/roach88/loom/internal/command"
	"github.com/roach88/loom/internal/event"
	"github.com/roach88/loom/internal/platform"
)

// Outcome is the result of one translation attempt.
type Outcome int

const (
	// Skipped means the event kind is outside the translator's mapping. It is
	// not an error and nothing is sent.
	Skipped Outcome = iota
	// Sent means a command was enqueued on the target channel.
	Sent
)

func (o Outcome) String() string {
	switch o {
	case Skipped:
		return "skipped"
	case Sent:
		return "sent"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Translator converts published events into commands for one target engine.
//
// The set of translators is closed: GUITranslator, RenderTranslator and
// IOTranslator. Each owns one sender handle on its target's channel, and its
// mapping is a pure function of the event.
type Translator interface {
	// Target names the engine the translator feeds.
	Target() string
	// Translate maps ev and enqueues the resulting command, if any.
	Translate(ev event.Event) (Outcome, error)

	release()
}

// GUITranslator feeds the GUI engine.
type GUITranslator struct {
	tx *channel.Sender[command.GUI]
}

// NewGUITranslator takes ownership of tx.
func NewGUITranslator(tx *channel.Sender[command.GUI]) *GUITranslator {
	return &GUITranslator{tx: tx}
}

func (t *GUITranslator) Target() string { return "gui" }

func (t *GUITranslator) Translate(ev event.Event) (Outcome, error) {
	cmd, ok := ToGUI(ev)
	return send(t.tx, cmd, ok)
}

func (t *GUITranslator) release() { t.tx.Close() }

// ToGUI maps an event to a GUI command. The boolean is false for kinds the
// GUI engine does not consume.
func ToGUI(ev event.Event) (command.GUI, bool) {
	switch ev.Kind {
	case event.SurfaceResized:
		return command.GUI{Kind: command.GUIResize, Size: ev.Size, Scale: ev.Scale}, true
	case event.InputReceived:
		return command.GUI{Kind: command.GUIInput, Input: ev.Input}, true
	case event.FocusChanged:
		return command.GUI{Kind: command.GUIFocus, Focused: ev.Focused}, true
	case event.FramePresented:
		return command.GUI{Kind: command.GUIFrameDone, Frame: ev.Frame}, true
	default:
		return command.GUI{}, false
	}
}

// RenderTranslator feeds the render engine.
type RenderTranslator struct {
	tx *channel.Sender[command.Render]
}

// NewRenderTranslator takes ownership of tx.
func NewRenderTranslator(tx *channel.Sender[command.Render]) *RenderTranslator {
	return &RenderTranslator{tx: tx}
}

func (t *RenderTranslator) Target() string { return "render" }

func (t *RenderTranslator) Translate(ev event.Event) (Outcome, error) {
	cmd, ok := ToRender(ev)
	return send(t.tx, cmd, ok)
}

func (t *RenderTranslator) release() { t.tx.Close() }

// ToRender maps an event to a render command.
func ToRender(ev event.Event) (command.Render, bool) {
	switch ev.Kind {
	case event.SurfaceResized:
		return command.Render{Kind: command.RenderResize, Size: ev.Size, Scale: ev.Scale}, true
	case event.FrameRequested:
		return command.Render{Kind: command.RenderFrame}, true
	case event.RepaintNeeded:
		return command.Render{Kind: command.RenderDrawUI, Paint: ev.Paint}, true
	default:
		return command.Render{}, false
	}
}

// IOTranslator feeds the IO engine. It lets the GUI ask for the window to
// close through the same path a platform close takes.
type IOTranslator struct {
	tx *channel.Sender[command.IO]
}

// NewIOTranslator takes ownership of tx.
func NewIOTranslator(tx *channel.Sender[command.IO]) *IOTranslator {
	return &IOTranslator{tx: tx}
}

func (t *IOTranslator) Target() string { return "io" }

func (t *IOTranslator) Translate(ev event.Event) (Outcome, error) {
	cmd, ok := ToIO(ev)
	return send(t.tx, cmd, ok)
}

func (t *IOTranslator) release() { t.tx.Close() }

// ToIO maps an event to an IO command.
func ToIO(ev event.Event) (command.IO, bool) {
	if ev.Kind == event.CloseRequested {
		return command.WindowEvent(platform.CloseRequested()), true
	}
	return command.IO{}, false
}

func send[C any](tx *channel.Sender[C], cmd C, ok bool) (Outcome, error) {
	if !ok {
		return Skipped, nil
	}
	if err := tx.Send(cmd); err != nil {
		return Skipped, err
	}
	return Sent, nil
}
