// Package platform defines the contracts between the coordination core and
// the host windowing platform.
//
// The platform owns a blocking event loop that cannot be made cooperative.
// It delivers each raw event exactly once, in generation order, to a Dispatch
// function supplied by the event loop bridge.
//
// The window is the only resource referenced by more than one engine. The IO
// engine receives the full Window; the other engines receive narrower views
// (View, Surface) so that read-only sharing is enforced by construction.
// Implementations synchronize internally.
package platform

import (
	"fmt"
)

// Size is a surface size in platform units (cells for a terminal, pixels for
// a native window).
type Size struct {
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// IsZero reports whether either dimension is empty.
func (s Size) IsZero() bool {
	return s.Width <= 0 || s.Height <= 0
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// Frame is a presented image. Content is opaque to the coordination core.
type Frame struct {
	ID      string
	Seq     int64
	Size    Size
	Content string
}

// View is the read-only window view shared with the GUI engine.
type View interface {
	Size() Size
	ScaleFactor() float64
}

// Surface is the view shared with the render engine: queries plus frame
// presentation.
type Surface interface {
	View
	// Present displays a frame. It may block until the platform accepts it.
	Present(frame Frame) error
}

// Window is the full window handle, mutated only by the IO engine.
type Window interface {
	Surface
	SetTitle(title string) error
}

// Dispatch receives one platform event. A non-nil error ends the platform
// run and is returned from Platform.Run.
type Dispatch func(Event) error

// Platform is a host event loop.
type Platform interface {
	// Run blocks the calling goroutine, delivering every event to dispatch,
	// until the loop ends, Exit is called or dispatch fails.
	Run(dispatch Dispatch) error

	// Exit asks a running loop to return. Safe from any goroutine and safe to
	// call before Run.
	Exit()
}

// Host is a platform whose loop also owns the application window.
type Host interface {
	Platform
	Window
}
