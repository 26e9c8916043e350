package chat

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nfrund/organizapp/internal/pubsub"
	"github.com/nfrund/organizapp/internal/websocket"
)

// Subscriber feeds websocket bus traffic into the relay.
type Subscriber struct {
	subscriber pubsub.Subscriber
	relay      *Relay
	logger     *slog.Logger
}

// NewSubscriber creates a subscriber for relay.
func NewSubscriber(sub pubsub.Subscriber, relay *Relay) *Subscriber {
	return &Subscriber{
		subscriber: sub,
		relay:      relay,
		logger:     slog.Default().With("service", "chat-subscriber"),
	}
}

// Start subscribes to the websocket topics. Delivery continues in the
// background until ctx is canceled or the bus is closed.
func (s *Subscriber) Start(ctx context.Context) error {
	s.logger.Info("Starting chat subscriber")

	if err := pubsub.Subscribe(ctx, s.subscriber, websocket.TopicClientConnected, s.handleConnected); err != nil {
		return fmt.Errorf("chat subscriber: %w", err)
	}
	// Raw frames are subscribed untyped so malformed JSON still reaches the
	// relay and earns the client an error frame.
	if err := s.subscriber.Subscribe(ctx, websocket.TopicClientEvent.Name(), s.handleEvent); err != nil {
		return fmt.Errorf("chat subscriber: %w", err)
	}
	if err := pubsub.Subscribe(ctx, s.subscriber, websocket.TopicClientDisconnected, s.handleDisconnected); err != nil {
		return fmt.Errorf("chat subscriber: %w", err)
	}
	return nil
}

func (s *Subscriber) handleConnected(ctx context.Context, _ pubsub.Message, p websocket.ConnectedPayload) error {
	s.logger.DebugContext(ctx, "Client connected", "connection_id", p.ConnectionID, "user_id", p.UserID)
	return nil
}

func (s *Subscriber) handleEvent(ctx context.Context, msg pubsub.Message) error {
	if msg.ConnectionID == "" {
		s.logger.WarnContext(ctx, "Dropping client event without connection id")
		return nil
	}
	s.relay.Handle(ctx, msg.ConnectionID, msg.Payload)
	return nil
}

func (s *Subscriber) handleDisconnected(ctx context.Context, _ pubsub.Message, p websocket.DisconnectedPayload) error {
	s.relay.HandleDisconnect(ctx, p.ConnectionID, p.Reason)
	return nil
}
