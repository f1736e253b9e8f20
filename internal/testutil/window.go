// Package testutil provides fakes and helpers shared by package tests.
package testutil

import (
	"sync"

	"github.com/roach88/loom/internal/platform"
)

// FakeWindow is an in-memory platform.Window.
//
// Thread-safety: all methods are safe for concurrent use via internal mutex,
// like a real windowing collaborator.
type FakeWindow struct {
	mu       sync.Mutex
	size     platform.Size
	scale    float64
	title    string
	frames   []platform.Frame
	titleErr error
	present  func(platform.Frame) error
}

// NewFakeWindow creates a window of the given size at scale 1.
func NewFakeWindow(width, height int) *FakeWindow {
	return &FakeWindow{
		size:  platform.Size{Width: width, Height: height},
		scale: 1,
	}
}

func (w *FakeWindow) Size() platform.Size {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.size
}

func (w *FakeWindow) ScaleFactor() float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.scale
}

func (w *FakeWindow) SetTitle(title string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.titleErr != nil {
		return w.titleErr
	}
	w.title = title
	return nil
}

func (w *FakeWindow) Present(f platform.Frame) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.present != nil {
		if err := w.present(f); err != nil {
			return err
		}
	}
	w.frames = append(w.frames, f)
	return nil
}

// Resize changes the reported size, as the platform would before delivering
// a resize event.
func (w *FakeWindow) Resize(width, height int) {
	w.mu.Lock()
	w.size = platform.Size{Width: width, Height: height}
	w.mu.Unlock()
}

// SetScale changes the reported scale factor.
func (w *FakeWindow) SetScale(scale float64) {
	w.mu.Lock()
	w.scale = scale
	w.mu.Unlock()
}

// FailTitle makes SetTitle return err.
func (w *FakeWindow) FailTitle(err error) {
	w.mu.Lock()
	w.titleErr = err
	w.mu.Unlock()
}

// OnPresent installs a hook run before a frame is accepted. A non-nil error
// rejects the frame.
func (w *FakeWindow) OnPresent(fn func(platform.Frame) error) {
	w.mu.Lock()
	w.present = fn
	w.mu.Unlock()
}

// Title returns the last title set.
func (w *FakeWindow) Title() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.title
}

// Frames returns every presented frame in order.
func (w *FakeWindow) Frames() []platform.Frame {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]platform.Frame(nil), w.frames...)
}
