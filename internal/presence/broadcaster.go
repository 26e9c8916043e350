// Package presence fans events out to rooms of live connections.
package presence

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nfrund/organizapp/internal/websocket"
)

// Frame is the outbound wire envelope.
type Frame struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// Encode marshals an event into a frame.
func Encode(event string, payload any) ([]byte, error) {
	data, err := json.Marshal(Frame{Type: event, Payload: payload})
	if err != nil {
		return nil, fmt.Errorf("encode %s frame: %w", event, err)
	}
	return data, nil
}

// Broadcaster resolves rooms through the Registry and queues frames on the
// matching connections. Each payload is marshalled once and the bytes are
// shared by every recipient.
type Broadcaster struct {
	registry *websocket.Registry
	logger   *slog.Logger
}

// NewBroadcaster creates a Broadcaster over registry.
func NewBroadcaster(registry *websocket.Registry) *Broadcaster {
	return &Broadcaster{
		registry: registry,
		logger:   slog.Default().With("service", "presence"),
	}
}

// ToRoom delivers to every member of room, the sender included. It returns
// the number of connections the frame was queued on.
func (b *Broadcaster) ToRoom(room, event string, payload any) (int, error) {
	return b.deliver(b.registry.Members(room), event, payload)
}

// ToAll delivers to every registered connection.
func (b *Broadcaster) ToAll(event string, payload any) (int, error) {
	return b.deliver(b.registry.All(), event, payload)
}

// ToUser delivers to every connection bound to userID.
func (b *Broadcaster) ToUser(userID, event string, payload any) (int, error) {
	return b.ToRoom(websocket.UserRoom(userID), event, payload)
}

// ToConnection delivers to a single connection. Unknown ids deliver nothing.
func (b *Broadcaster) ToConnection(connectionID, event string, payload any) (int, error) {
	c, ok := b.registry.Get(connectionID)
	if !ok {
		return 0, nil
	}
	return b.deliver([]*websocket.Connection{c}, event, payload)
}

// ToRooms delivers once to the union of rooms, so a connection in several
// of them receives a single copy.
func (b *Broadcaster) ToRooms(rooms []string, event string, payload any) (int, error) {
	seen := make(map[string]struct{})
	targets := make([]*websocket.Connection, 0)
	for _, room := range rooms {
		for _, c := range b.registry.Members(room) {
			if _, dup := seen[c.ID()]; dup {
				continue
			}
			seen[c.ID()] = struct{}{}
			targets = append(targets, c)
		}
	}
	return b.deliver(targets, event, payload)
}

func (b *Broadcaster) deliver(targets []*websocket.Connection, event string, payload any) (int, error) {
	if len(targets) == 0 {
		return 0, nil
	}
	frame, err := Encode(event, payload)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, c := range targets {
		if c.Send(frame) {
			sent++
		}
	}
	if sent < len(targets) {
		b.logger.Warn("Frame not delivered to every target", "event", event, "targets", len(targets), "sent", sent)
	}
	return sent, nil
}

// Roster returns the members of room for presence payloads and the status
// page.
func (b *Broadcaster) Roster(room string) []websocket.Member {
	conns := b.registry.Members(room)
	out := make([]websocket.Member, 0, len(conns))
	for _, c := range conns {
		out = append(out, websocket.Member{ConnectionID: c.ID(), User: c.User()})
	}
	return out
}
