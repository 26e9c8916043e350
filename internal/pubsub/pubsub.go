package pubsub

import (
	"context"
)

// Message is the structure passed between components on the bus.
type Message struct {
	// Topic identifies the channel the message belongs to (e.g. "ws.client.event").
	Topic string
	// ConnectionID identifies the websocket connection the message concerns.
	ConnectionID string
	// UserID is set when the connection is bound to a user.
	UserID string
	// Payload contains the raw message data.
	Payload []byte
	// Metadata can contain arbitrary key-value pairs for context.
	Metadata map[string]string
}

// Handler processes a received message. A returned error is logged; the
// message is still acknowledged so the in-memory bus never redelivers.
type Handler func(ctx context.Context, msg Message) error

// Publisher defines the contract for sending messages to the bus.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
	Close() error
}

// Subscriber defines the contract for receiving messages from the bus.
type Subscriber interface {
	// Subscribe starts delivering messages for topic to handler in a
	// background goroutine until ctx is cancelled or the bus is closed.
	Subscribe(ctx context.Context, topic string, handler Handler) error
	Close() error
}

// Bus is both halves of the pub/sub system.
type Bus interface {
	Publisher
	Subscriber
}
