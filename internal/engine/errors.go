package engine

import (
	"errors"
	"fmt"
)

// ErrAlreadyStarted is returned by Run on a loop that has already run.
var ErrAlreadyStarted = errors.New("engine already started")

// FatalError reports an engine that could not apply a command.
//
// A fatal error ends that engine's loop and is recorded as its result. It
// is never retried.
type FatalError struct {
	// Engine names the failed engine.
	Engine string

	// Command describes the command being applied.
	Command string

	// Err is the handler's error. Nil when Panic is set.
	Err error

	// Panic holds the recovered value when the handler panicked.
	Panic any
}

// Error implements the error interface.
func (e *FatalError) Error() string {
	if e.Panic != nil {
		return fmt.Sprintf("engine %s: panic applying %s: %v", e.Engine, e.Command, e.Panic)
	}
	return fmt.Sprintf("engine %s: applying %s: %v", e.Engine, e.Command, e.Err)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// IsFatal reports whether err is, or wraps, a FatalError.
func IsFatal(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe)
}
