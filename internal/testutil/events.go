package testutil

import (
	"sync"

	"github.com/roach88/tensorjit/internal/memory"
)

// ManualEvents is an EventSource whose events complete only when the test
// says so.
//
// Thread-safety: safe for concurrent use via an internal mutex.
type ManualEvents struct {
	mu     sync.Mutex
	events []*ManualEvent
}

// ManualEvent is one recorded completion marker.
type ManualEvent struct {
	mu        sync.Mutex
	stream    memory.Stream
	done      bool
	destroyed bool
}

// Record implements memory.EventSource.
func (m *ManualEvents) Record(stream memory.Stream) (memory.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := &ManualEvent{stream: stream}
	m.events = append(m.events, e)
	return e, nil
}

// Recorded returns every event recorded so far, in order.
func (m *ManualEvents) Recorded() []*ManualEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*ManualEvent, len(m.events))
	copy(out, m.events)
	return out
}

// CompleteAll marks every recorded event complete.
func (m *ManualEvents) CompleteAll() {
	for _, e := range m.Recorded() {
		e.Complete()
	}
}

// Stream returns the stream the event was recorded on.
func (e *ManualEvent) Stream() memory.Stream {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stream
}

// Complete marks the event's work as finished.
func (e *ManualEvent) Complete() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.done = true
}

// Destroyed reports whether the allocator released the event.
func (e *ManualEvent) Destroyed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.destroyed
}

// Query implements memory.Event.
func (e *ManualEvent) Query() (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.done, nil
}

// Destroy implements memory.Event.
func (e *ManualEvent) Destroy() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.destroyed = true
	return nil
}
