// Package events provides the in-process change notification bus for the
// document store. Every mutation performed through the gateway publishes one
// Event, delivered both to subscribers of the affected collection and to
// subscribers of all collections. Delivery is fire-and-forget: publishing
// never blocks, and events are dropped for subscribers that fall behind.
package events

import (
	"sync"
)

// Operation identifies what kind of mutation produced an event.
type Operation string

const (
	OpCreated Operation = "created"
	OpUpdated Operation = "updated"
	OpDeleted Operation = "deleted"
)

// Event describes a single document mutation.
type Event struct {
	Collection string    `json:"collection"`
	Operation  Operation `json:"operation"`
	DocID      string    `json:"docId,omitempty"`
}

// AllCollections subscribes to mutations across every collection.
const AllCollections = ""

// subscriberBuffer is the channel depth per subscriber. Events beyond this
// are dropped rather than blocking the publisher.
const subscriberBuffer = 16

// Bus is a typed publish/subscribe channel for document change events.
// Inject one Bus into the gateway and into any component that needs to react
// to out-of-band changes; subscribers are enumerable and testable, unlike a
// process-global event target.
type Bus struct {
	mu   sync.RWMutex
	next int
	subs map[string]map[int]chan Event // collection ("" = all) -> id -> channel
}

// NewBus creates an empty Bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[string]map[int]chan Event)}
}

// Subscribe registers for events on the given collection. Pass AllCollections
// to receive every event. The returned cancel function unregisters the
// subscription and closes the channel; it is safe to call more than once.
func (b *Bus) Subscribe(collection string) (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	b.mu.Lock()
	id := b.next
	b.next++
	if b.subs[collection] == nil {
		b.subs[collection] = make(map[int]chan Event)
	}
	b.subs[collection][id] = ch
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs[collection], id)
			b.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Publish delivers the event to collection-scoped subscribers and to
// all-collection subscribers. It never blocks; a subscriber with a full
// buffer misses the event.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subs[e.Collection] {
		select {
		case ch <- e:
		default:
		}
	}
	if e.Collection == AllCollections {
		return
	}
	for _, ch := range b.subs[AllCollections] {
		select {
		case ch <- e:
		default:
		}
	}
}

// SubscriberCount reports how many subscriptions are registered for the
// collection. Useful in tests and diagnostics.
func (b *Bus) SubscriberCount(collection string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[collection])
}
