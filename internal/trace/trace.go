// Package trace records what the coordination fabric does: every command an
// engine applies, every event it publishes and every translation outcome.
//
// A Tracer stamps entries with a session id and a logical sequence number and
// hands them to a Recorder. Recorders must be safe for concurrent use, since
// each engine records from its own goroutine.
package trace

import (
	"slices"
	"sync"
)

// Stage names the point in the pipeline an entry was recorded at.
type Stage string

const (
	StageCommand Stage = "command" // engine dequeued and applied a command
	StageEvent   Stage = "event"   // engine published an event
	StageSend    Stage = "send"    // translator enqueued a command
	StageSkip    Stage = "skip"    // translator ignored an event
	StageFail    Stage = "fail"    // translator could not enqueue
	StageStop    Stage = "stop"    // engine stopped
	StageBridge  Stage = "bridge"  // platform event forwarded by the bridge
)

// Entry is one trace record.
type Entry struct {
	Seq     int64  `json:"seq" yaml:"seq"`
	Session string `json:"session" yaml:"session"`
	Engine  string `json:"engine" yaml:"engine"`
	Stage   Stage  `json:"stage" yaml:"stage"`
	Kind    string `json:"kind" yaml:"kind"`
	Detail  string `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// Recorder receives trace entries.
type Recorder interface {
	Record(e Entry)
}

// Nop discards every entry.
type Nop struct{}

func (Nop) Record(Entry) {}

// Multi fans entries out to several recorders in order.
type Multi []Recorder

func (m Multi) Record(e Entry) {
	for _, r := range m {
		r.Record(e)
	}
}

// Memory keeps entries in memory. Used by tests and the scenario harness.
type Memory struct {
	mu      sync.Mutex
	entries []Entry
}

// NewMemory creates an empty in-memory recorder.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Record(e Entry) {
	m.mu.Lock()
	m.entries = append(m.entries, e)
	m.mu.Unlock()
}

// Entries returns a copy of every entry ordered by seq.
func (m *Memory) Entries() []Entry {
	m.mu.Lock()
	out := slices.Clone(m.entries)
	m.mu.Unlock()

	slices.SortStableFunc(out, func(a, b Entry) int {
		switch {
		case a.Seq < b.Seq:
			return -1
		case a.Seq > b.Seq:
			return 1
		default:
			return 0
		}
	})
	return out
}

// Engine returns the entries recorded by one engine, ordered by seq.
func (m *Memory) Engine(name string) []Entry {
	var out []Entry
	for _, e := range m.Entries() {
		if e.Engine == name {
			out = append(out, e)
		}
	}
	return out
}

// Reset discards every entry.
func (m *Memory) Reset() {
	m.mu.Lock()
	m.entries = nil
	m.mu.Unlock()
}

// Tracer stamps entries for one session. A nil *Tracer records nothing.
type Tracer struct {
	session string
	clock   *Clock
	rec     Recorder
}

// New creates a tracer for session writing to rec.
func New(session string, rec Recorder) *Tracer {
	if rec == nil {
		rec = Nop{}
	}
	return &Tracer{session: session, clock: NewClock(), rec: rec}
}

// Session returns the session id, or "" for a nil tracer.
func (t *Tracer) Session() string {
	if t == nil {
		return ""
	}
	return t.session
}

// Record stamps and records one entry.
func (t *Tracer) Record(engine string, stage Stage, kind, detail string) {
	if t == nil {
		return
	}
	t.rec.Record(Entry{
		Seq:     t.clock.Next(),
		Session: t.session,
		Engine:  engine,
		Stage:   stage,
		Kind:    kind,
		Detail:  detail,
	})
}
