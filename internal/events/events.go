// Package events provides the in-process event bus consumed by indexers.
package events

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Type identifies a class of registry events.
type Type string

// Registry event types.
const (
	TypeCredentialMinted      Type = "credential.minted"
	TypeCredentialTransferred Type = "credential.transferred"
	TypeCredentialBurned      Type = "credential.burned"
	TypeGuildAdded            Type = "guild.added"
	TypeValidityToggled       Type = "credential.validity_toggled"
)

// Event is a single published registry event.
type Event struct {
	Type      Type
	Timestamp time.Time
	Data      any
}

// SubscriberID identifies an active subscription.
type SubscriberID int

// DefaultQueueSize is the per-subscriber channel buffer.
const DefaultQueueSize = 64

// Bus fans registry events out to subscribers. Delivery is best-effort:
// a subscriber whose channel is full misses the event rather than
// blocking a mutating ledger operation.
type Bus struct {
	mu        sync.RWMutex
	subs      map[Type]map[SubscriberID]chan Event
	lastSubID SubscriberID
	logger    zerolog.Logger
}

// NewBus creates a new event bus.
func NewBus(logger zerolog.Logger) *Bus {
	return &Bus{
		subs:   make(map[Type]map[SubscriberID]chan Event),
		logger: logger,
	}
}

// Subscribe registers for events of the given type. The returned channel
// is closed by Unsubscribe.
func (b *Bus) Subscribe(eventType Type) (SubscriberID, <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.lastSubID++
	id := b.lastSubID
	ch := make(chan Event, DefaultQueueSize)

	if b.subs[eventType] == nil {
		b.subs[eventType] = make(map[SubscriberID]chan Event)
	}
	b.subs[eventType][id] = ch
	return id, ch
}

// Unsubscribe removes a subscription and closes its channel.
func (b *Bus) Unsubscribe(eventType Type, id SubscriberID) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ch, ok := b.subs[eventType][id]; ok {
		delete(b.subs[eventType], id)
		close(ch)
	}
}

// Close drops every subscription and closes its channel.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for eventType, subs := range b.subs {
		for id, ch := range subs {
			delete(subs, id)
			close(ch)
		}
		delete(b.subs, eventType)
	}
}

// Publish delivers an event to all subscribers of its type.
func (b *Bus) Publish(eventType Type, data any) {
	evt := Event{
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      data,
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, ch := range b.subs[eventType] {
		select {
		case ch <- evt:
		default:
			b.logger.Warn().
				Str("event", string(eventType)).
				Int("subscriber", int(id)).
				Msg("subscriber queue full, event dropped")
		}
	}
}
