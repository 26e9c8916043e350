package pubsub

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// traceCarrier moves the span context through message metadata. The
// gochannel hands subscribers a copy of each message, so the Go context
// does not survive the hop.
var traceCarrier = propagation.TraceContext{}

func messageSpan(ctx context.Context, tracer trace.Tracer, op, topic string, kind trace.SpanKind, msg *message.Message) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String("messaging.system", "watermill"),
		attribute.String("messaging.operation", op),
		attribute.String("messaging.destination.name", topic),
		attribute.String("messaging.message.id", msg.UUID),
		attribute.Int("messaging.message.body.size", len(msg.Payload)),
	}
	if id := msg.Metadata.Get(metaKeyConnID); id != "" {
		attrs = append(attrs, attribute.String("organizapp.connection_id", id))
	}
	if id := msg.Metadata.Get(metaKeyUserID); id != "" {
		attrs = append(attrs, attribute.String("organizapp.user_id", id))
	}
	return tracer.Start(ctx, "pubsub."+op+"."+topic, trace.WithSpanKind(kind), trace.WithAttributes(attrs...))
}

// TracingMiddleware wraps a handler in a consumer span whose parent is the
// publish span carried in the message metadata.
func TracingMiddleware(tracer trace.Tracer) message.HandlerMiddleware {
	return func(h message.HandlerFunc) message.HandlerFunc {
		return func(msg *message.Message) ([]*message.Message, error) {
			ctx := traceCarrier.Extract(msg.Context(), propagation.MapCarrier(msg.Metadata))
			ctx, span := messageSpan(ctx, tracer, "process", msg.Metadata.Get(metaKeyTopic), trace.SpanKindConsumer, msg)
			defer span.End()

			msg.SetContext(ctx)
			produced, err := h(msg)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				return nil, err
			}
			return produced, nil
		}
	}
}

// tracingPublisher records a producer span per message and injects it into
// the metadata before handing the batch to the wrapped publisher.
type tracingPublisher struct {
	message.Publisher
	tracer trace.Tracer
}

func newTracingPublisher(pub message.Publisher, tracer trace.Tracer) *tracingPublisher {
	return &tracingPublisher{Publisher: pub, tracer: tracer}
}

func (p *tracingPublisher) Publish(topic string, messages ...*message.Message) error {
	spans := make([]trace.Span, 0, len(messages))
	for _, msg := range messages {
		ctx, span := messageSpan(msg.Context(), p.tracer, "publish", topic, trace.SpanKindProducer, msg)
		traceCarrier.Inject(ctx, propagation.MapCarrier(msg.Metadata))
		msg.SetContext(ctx)
		spans = append(spans, span)
	}

	// With BlockPublishUntilSubscriberAck the spans also cover delivery.
	err := p.Publisher.Publish(topic, messages...)
	for _, span := range spans {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
	return err
}
