// Package observer connects engines: a Subject fans each published event out
// to its attached translators, and each translator turns the event into a
// command on another engine's channel.
//
// A Subject is owned by exactly one engine and is used only from that
// engine's goroutine once the engine runs. Observers are attached before the
// engine is constructed.
package observer

import (
	"errors"
	"fmt"

	"github.com/roach88/loom/internal/event"
	"github.com/roach88/loom/internal/trace"
)

// ID identifies an attached translator within its Subject.
type ID int

// TranslateError reports one translator failing to deliver an event.
type TranslateError struct {
	Observer string
	Event    event.Event
	Err      error
}

func (e *TranslateError) Error() string {
	return fmt.Sprintf("observer %s: %s: %v", e.Observer, e.Event.Kind, e.Err)
}

func (e *TranslateError) Unwrap() error {
	return e.Err
}

type attachment struct {
	id ID
	t  Translator
}

// Subject is an ordered list of translators. Notification order is
// attachment order.
type Subject struct {
	name      string
	observers []attachment
	nextID    ID
	closed    bool
	tracer    *trace.Tracer
}

// Option configures a Subject.
type Option func(*Subject)

// WithTracer records every translation outcome.
func WithTracer(t *trace.Tracer) Option {
	return func(s *Subject) {
		s.tracer = t
	}
}

// NewSubject creates an empty Subject for the named engine.
func NewSubject(name string, opts ...Option) *Subject {
	s := &Subject{name: name}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the owning engine's name.
func (s *Subject) Name() string {
	return s.name
}

// Attach appends t and returns its id. The Subject takes ownership of t's
// sender. Attaching to a closed Subject releases t immediately.
func (s *Subject) Attach(t Translator) ID {
	s.nextID++
	if s.closed {
		t.release()
		return s.nextID
	}
	s.observers = append(s.observers, attachment{id: s.nextID, t: t})
	return s.nextID
}

// Detach removes and releases the translator with the given id. Reports
// whether it was attached.
func (s *Subject) Detach(id ID) bool {
	for i, a := range s.observers {
		if a.id == id {
			s.observers = append(s.observers[:i], s.observers[i+1:]...)
			a.t.release()
			return true
		}
	}
	return false
}

// Len returns the number of attached translators.
func (s *Subject) Len() int {
	return len(s.observers)
}

// Targets returns the target engine of every translator in attachment order.
func (s *Subject) Targets() []string {
	out := make([]string, len(s.observers))
	for i, a := range s.observers {
		out[i] = a.t.Target()
	}
	return out
}

// Notify hands ev to every translator, in attachment order, before returning.
// A failing translator never prevents the rest from running; failures come
// back joined as *TranslateError values for the caller to report.
func (s *Subject) Notify(ev event.Event) error {
	var errs []error
	for _, a := range s.observers {
		target := a.t.Target()
		outcome, err := a.t.Translate(ev)
		switch {
		case err != nil:
			s.tracer.Record(s.name, trace.StageFail, ev.Kind.String(), target)
			errs = append(errs, &TranslateError{Observer: target, Event: ev, Err: err})
		case outcome == Sent:
			s.tracer.Record(s.name, trace.StageSend, ev.Kind.String(), target)
		default:
			s.tracer.Record(s.name, trace.StageSkip, ev.Kind.String(), target)
		}
	}
	return errors.Join(errs...)
}

// Close releases every translator's sender and detaches them all. Called when
// the owning engine stops, so its targets observe the closure. Safe to call
// more than once.
func (s *Subject) Close() {
	if s.closed {
		return
	}
	s.closed = true
	for _, a := range s.observers {
		a.t.release()
	}
	s.observers = nil
}
