// Package events carries read-model invalidation notices (order placed,
// order status changed, stock moved) to whoever is listening: connected
// kitchen displays and, optionally, a message broker.
package events

import (
	"context"
	"time"
)

//go:generate mockgen -destination=../mocks/mock_publisher.go -package=mocks restaurant-api/events Publisher

const (
	TypeOrderCreated     = "order.created"
	TypeOrderUpdated     = "order.updated"
	TypeOrderSettled     = "order.settled"
	TypeInventoryChanged = "inventory.changed"
	TypeTableChanged     = "table.changed"
)

const (
	TopicKitchen   = "kitchen"
	TopicOrders    = "orders"
	TopicPOS       = "pos"
	TopicInventory = "inventory"
	TopicTables    = "tables"
)

type Event struct {
	Type       string    `json:"type"`
	Topic      string    `json:"topic"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       any       `json:"data"`
}

// Publisher fans an event out to its subscribers. Publishing never fails the
// caller's operation; implementations log and drop on error.
type Publisher interface {
	Publish(ctx context.Context, ev Event)
}

// New stamps an event for topic.
func New(topic, typ string, data any) Event {
	return Event{Type: typ, Topic: topic, OccurredAt: time.Now().UTC(), Data: data}
}

// Multi publishes to every publisher in order.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, ev Event) {
	for _, p := range m {
		if p != nil {
			p.Publish(ctx, ev)
		}
	}
}

// Nop discards everything.
type Nop struct{}

func (Nop) Publish(context.Context, Event) {}
