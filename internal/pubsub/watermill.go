package pubsub

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"go.opentelemetry.io/otel/trace"
)

// WatermillBridge implements Bus using watermill's GoChannel.
//
// Publish blocks until every subscriber of the topic has acknowledged the
// message. Together with a single subscription per topic this gives strict
// per-topic ordering, which the chat relay relies on.
type WatermillBridge struct {
	pub    message.Publisher
	sub    message.Subscriber
	tracer trace.Tracer
	logger *slog.Logger

	wg        sync.WaitGroup
	closeOnce sync.Once
}

var _ Bus = (*WatermillBridge)(nil)

const (
	// Metadata keys used to carry Message fields through watermill.
	metaKeyConnID = "connection_id"
	metaKeyUserID = "user_id"
	metaKeyTopic  = "topic"
)

// Option configures a WatermillBridge.
type Option func(*WatermillBridge)

// WithTracer records a span for every publish and every handled message.
func WithTracer(tracer trace.Tracer) Option {
	return func(wb *WatermillBridge) {
		wb.tracer = tracer
	}
}

// WithLogger replaces the default logger.
func WithLogger(logger *slog.Logger) Option {
	return func(wb *WatermillBridge) {
		wb.logger = logger
	}
}

// NewWatermillBridge initializes the in-memory bus.
func NewWatermillBridge(opts ...Option) *WatermillBridge {
	wb := &WatermillBridge{
		logger: slog.Default().With("service", "pubsub"),
	}
	for _, opt := range opts {
		opt(wb)
	}

	wmLogger := watermill.NewStdLogger(false, false)
	goChannel := gochannel.NewGoChannel(
		gochannel.Config{
			OutputChannelBuffer:            64,
			BlockPublishUntilSubscriberAck: true,
		},
		wmLogger,
	)

	wb.sub = goChannel
	wb.pub = goChannel
	if wb.tracer != nil {
		wb.pub = newTracingPublisher(goChannel, wb.tracer)
	}
	return wb
}

func mapToWatermillMessage(ctx context.Context, msg Message) *message.Message {
	wmMsg := message.NewMessage(watermill.NewUUID(), msg.Payload)
	wmMsg.SetContext(ctx)

	for k, v := range msg.Metadata {
		wmMsg.Metadata.Set(k, v)
	}
	wmMsg.Metadata.Set(metaKeyConnID, msg.ConnectionID)
	wmMsg.Metadata.Set(metaKeyUserID, msg.UserID)
	wmMsg.Metadata.Set(metaKeyTopic, msg.Topic)
	return wmMsg
}

func mapToPubSubMessage(wmMsg *message.Message) Message {
	metadata := make(map[string]string)
	for k, v := range wmMsg.Metadata {
		switch k {
		case metaKeyConnID, metaKeyUserID, metaKeyTopic:
		default:
			metadata[k] = v
		}
	}
	return Message{
		Topic:        wmMsg.Metadata.Get(metaKeyTopic),
		ConnectionID: wmMsg.Metadata.Get(metaKeyConnID),
		UserID:       wmMsg.Metadata.Get(metaKeyUserID),
		Payload:      wmMsg.Payload,
		Metadata:     metadata,
	}
}

// Publish implements the Publisher interface.
func (wb *WatermillBridge) Publish(ctx context.Context, msg Message) error {
	if msg.Topic == "" {
		return fmt.Errorf("publish: empty topic")
	}
	return wb.pub.Publish(msg.Topic, mapToWatermillMessage(ctx, msg))
}

// Subscribe implements the Subscriber interface.
func (wb *WatermillBridge) Subscribe(ctx context.Context, topic string, handler Handler) error {
	messages, err := wb.sub.Subscribe(ctx, topic)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", topic, err)
	}

	process := func(wmMsg *message.Message) ([]*message.Message, error) {
		return nil, handler(wmMsg.Context(), mapToPubSubMessage(wmMsg))
	}
	if wb.tracer != nil {
		process = TracingMiddleware(wb.tracer)(process)
	}

	wb.wg.Add(1)
	go func() {
		defer wb.wg.Done()
		for wmMsg := range messages {
			wb.dispatch(topic, wmMsg, process)
		}
		wb.logger.Debug("Subscription message loop ended", "topic", topic)
	}()

	return nil
}

// dispatch always acks. A Nack on the gochannel redelivers immediately,
// which would replay side effects such as persisted chat messages.
func (wb *WatermillBridge) dispatch(topic string, wmMsg *message.Message, process message.HandlerFunc) {
	defer wmMsg.Ack()
	defer func() {
		if r := recover(); r != nil {
			wb.logger.Error("Handler panicked", "topic", topic, "msg_id", wmMsg.UUID, "panic", r)
		}
	}()

	if _, err := process(wmMsg); err != nil {
		wb.logger.Error("Failed to handle message", "topic", topic, "msg_id", wmMsg.UUID, "error", err)
	}
}

// Close shuts the bus down and waits for in-flight handlers to finish.
func (wb *WatermillBridge) Close() error {
	var err error
	wb.closeOnce.Do(func() {
		err = wb.sub.Close()
		wb.wg.Wait()
	})
	return err
}
