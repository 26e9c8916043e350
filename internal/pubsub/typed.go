package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/nfrund/organizapp/internal/topicmgr"
)

// Event[T] binds a registered topic to its payload type.
type Event[T any] struct {
	topic *topicmgr.Topic
}

// NewFrameworkEvent declares a framework topic carrying T and registers it
// with the default catalog. It is meant for package-level declarations.
func NewFrameworkEvent[T any](name, description string) Event[T] {
	return newEvent[T](topicmgr.DefineFramework(topicmgr.TopicConfig{
		Name:        name,
		Description: description,
		Metadata:    payloadMetadata[T](),
	}))
}

// NewModuleEvent declares a module topic carrying T. The module is the
// first segment of the name.
func NewModuleEvent[T any](name, description string) Event[T] {
	return newEvent[T](topicmgr.DefineModule(topicmgr.TopicConfig{
		Name:        name,
		Description: description,
		Metadata:    payloadMetadata[T](),
	}))
}

func newEvent[T any](topic *topicmgr.Topic) Event[T] {
	return Event[T]{topic: topicmgr.Default().MustRegister(topic)}
}

// payloadMetadata records the JSON field names of T for the catalog.
func payloadMetadata[T any]() map[string]any {
	t := reflect.TypeOf((*T)(nil)).Elem()
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	fields := make([]string, 0)
	if t.Kind() == reflect.Struct {
		for i := 0; i < t.NumField(); i++ {
			tag := t.Field(i).Tag.Get("json")
			if tag == "" || tag == "-" {
				continue
			}
			name, _, _ := strings.Cut(tag, ",")
			fields = append(fields, name)
		}
	}
	return map[string]any{
		"payload_fields": fields,
		"type_name":      t.Name(),
	}
}

// Name returns the topic name.
func (e Event[T]) Name() string {
	return e.topic.Name()
}

// Publish marshals payload and sends it on the event's topic. The envelope
// fields (connection, user, metadata) are taken from base.
func Publish[T any](ctx context.Context, p Publisher, event Event[T], base Message, payload T) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", event.Name(), err)
	}
	base.Topic = event.Name()
	base.Payload = data
	return p.Publish(ctx, base)
}

// Subscribe decodes each message on the event's topic into T before
// calling handler. Undecodable messages are reported and skipped.
func Subscribe[T any](ctx context.Context, s Subscriber, event Event[T], handler func(context.Context, Message, T) error) error {
	return s.Subscribe(ctx, event.Name(), func(ctx context.Context, msg Message) error {
		var payload T
		if len(msg.Payload) > 0 {
			if err := json.Unmarshal(msg.Payload, &payload); err != nil {
				return fmt.Errorf("decode %s payload: %w", event.Name(), err)
			}
		}
		return handler(ctx, msg, payload)
	})
}
