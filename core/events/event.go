package events

// Event represents a structured state change emitted by the ledger.
type Event interface {
	EventType() string
}

// Emitter broadcasts events to downstream subscribers (e.g. RPC, indexers).
type Emitter interface {
	Emit(Event)
}

// NoopEmitter is a helper that satisfies the Emitter interface while discarding
// all events. It is useful when a component wants to optionally expose events.
type NoopEmitter struct{}

// Emit implements the Emitter interface.
func (NoopEmitter) Emit(Event) {}

// Recorder captures emitted events in order so tests can assert on exactly
// what an operation produced.
type Recorder struct {
	Events []Event
}

// Emit implements the Emitter interface.
func (r *Recorder) Emit(ev Event) {
	r.Events = append(r.Events, ev)
}

// Reset drops any captured events.
func (r *Recorder) Reset() {
	r.Events = r.Events[:0]
}

// ByType returns the captured events matching the supplied type.
func (r *Recorder) ByType(eventType string) []Event {
	matched := make([]Event, 0)
	for _, ev := range r.Events {
		if ev.EventType() == eventType {
			matched = append(matched, ev)
		}
	}
	return matched
}
