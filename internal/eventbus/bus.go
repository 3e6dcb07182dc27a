// Package eventbus provides a small synchronous publish/subscribe
// mechanism shared by the Behavior Tracker (C7) and Engagement Triggers
// (C8): a typed-callback registry supporting multiple independent
// subscribers per event kind, each returning its own unsubscribe function,
// rather than a single hard-coded listener slice per event kind.
package eventbus

import "sync"

// Event is one occurrence published on a Bus: a name (the Behavior
// Tracker's event kind, e.g. "scroll" or "cta_click"), an event-specific
// payload, and a snapshot of whatever state the publisher considers
// current at the time of the event (spec.md §4.7's `(event, data,
// snapshot)` listener signature).
type Event struct {
	Name     string
	Data     any
	Snapshot any
}

// Handler receives one published Event.
type Handler func(Event)

// Bus is a synchronous, name-keyed publish/subscribe registry. Publish
// dispatches to every handler registered for that event's name, in
// registration order; it does not fan out across goroutines, so handlers
// observe events for one session in the order they actually occurred.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]subscription
	nextID   uint64
}

type subscription struct {
	id uint64
	fn Handler
}

// New returns an empty Bus.
func New() *Bus {
	return &Bus{handlers: make(map[string][]subscription)}
}

// Subscribe registers fn to run on every future Publish of the named
// event and returns a function that removes it again. A Bus has no
// wildcard subscription — each event kind is subscribed to individually,
// mirroring the Behavior Tracker's addListener/removeListener contract.
func (b *Bus) Subscribe(name string, fn Handler) (unsubscribe func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.handlers[name] = append(b.handlers[name], subscription{id: id, fn: fn})
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		subs := b.handlers[name]
		for i, s := range subs {
			if s.id == id {
				b.handlers[name] = append(subs[:i:i], subs[i+1:]...)
				return
			}
		}
	}
}

// Publish delivers event to every handler currently subscribed to
// event.Name. Handlers are invoked against a snapshot of the subscriber
// list taken under lock, so a handler that subscribes or unsubscribes
// during dispatch never deadlocks or sees a torn registry.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	subs := make([]subscription, len(b.handlers[event.Name]))
	copy(subs, b.handlers[event.Name])
	b.mu.RUnlock()

	for _, s := range subs {
		s.fn(event)
	}
}
