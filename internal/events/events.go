// Package events carries cargo notifications from the simulation to
// observers and external systems.
package events

import (
	"sort"
	"sync"
	"time"

	"github.com/gravitas-games/cargoyard/pkg/cargo"
)

// Type represents the kind of cargo event.
type Type int

const (
	// ItemOccupied is emitted after an item is committed to a slot.
	ItemOccupied Type = iota
	// ItemReleased is emitted after an item leaves a slot.
	ItemReleased
	// ContainerFull is emitted when a zone finds its target container full.
	ContainerFull
	// ItemSold is emitted when a seller converts an item into money.
	ItemSold
	// ItemSpawned is emitted when a producer creates a new item.
	ItemSpawned
)

// String returns a human-readable representation of the event type.
func (t Type) String() string {
	switch t {
	case ItemOccupied:
		return "item_occupied"
	case ItemReleased:
		return "item_released"
	case ContainerFull:
		return "container_full"
	case ItemSold:
		return "item_sold"
	case ItemSpawned:
		return "item_spawned"
	default:
		return "unknown"
	}
}

// MarshalText lets events serialize their type by name.
func (t Type) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// Event is one cargo notification.
type Event struct {
	Type      Type           `json:"type"`
	Owner     string         `json:"owner"`
	ItemType  cargo.ItemType `json:"itemType,omitempty"`
	Item      cargo.ItemID   `json:"item,omitempty"`
	Slot      int            `json:"slot"`
	Amount    int            `json:"amount,omitempty"`
	Zone      string         `json:"zone,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Bus manages subscriptions and delivery.
type Bus interface {
	// Subscribe registers handler under id, replacing any previous one.
	Subscribe(id string, handler func(Event))
	// Unsubscribe removes the handler for id.
	Unsubscribe(id string)
	// Publish delivers event to every subscriber.
	Publish(event Event)
}

// SimpleBus delivers events synchronously, in subscriber id order, on the
// publishing goroutine. Handlers must not block.
type SimpleBus struct {
	mu       sync.RWMutex
	handlers map[string]func(Event)
}

// NewSimpleBus creates an empty bus.
func NewSimpleBus() *SimpleBus {
	return &SimpleBus{handlers: make(map[string]func(Event))}
}

func (b *SimpleBus) Subscribe(id string, handler func(Event)) {
	if handler == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[id] = handler
}

func (b *SimpleBus) Unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.handlers, id)
}

// Len returns the number of subscribers.
func (b *SimpleBus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers)
}

func (b *SimpleBus) Publish(event Event) {
	b.mu.RLock()
	ids := make([]string, 0, len(b.handlers))
	for id := range b.handlers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	handlers := make([]func(Event), len(ids))
	for i, id := range ids {
		handlers[i] = b.handlers[id]
	}
	b.mu.RUnlock()

	// Released before dispatch so handlers may (un)subscribe.
	for _, h := range handlers {
		h(event)
	}
}

// NullBus discards everything.
type NullBus struct{}

func (NullBus) Subscribe(string, func(Event)) {}
func (NullBus) Unsubscribe(string)            {}
func (NullBus) Publish(Event)                 {}
