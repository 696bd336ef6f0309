package stream

import "context"

// Emitter is an ordered, append-only channel of events for one scan.
// Events are delivered strictly in emission order; there is no batching
// or reordering.
type Emitter struct {
	ch chan Event
}

// NewEmitter creates an emitter with the given channel buffer.
func NewEmitter(buffer int) *Emitter {
	if buffer <= 0 {
		buffer = 64
	}
	return &Emitter{ch: make(chan Event, buffer)}
}

// Emit appends an event to the stream. It reports false when the
// consumer is gone (ctx cancelled) and the event was dropped.
func (e *Emitter) Emit(ctx context.Context, ev Event) bool {
	select {
	case e.ch <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// Events returns the consumer side of the stream.
func (e *Emitter) Events() <-chan Event {
	return e.ch
}

// Close ends the stream. The producer must not emit afterwards.
func (e *Emitter) Close() {
	close(e.ch)
}
