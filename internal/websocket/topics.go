package websocket

import (
	"encoding/json"

	"github.com/nfrund/organizapp/internal/pubsub"
)

// ConnectedPayload is published when a connection is registered.
type ConnectedPayload struct {
	ConnectionID string `json:"connection_id"`
	UserID       string `json:"user_id,omitempty"`
}

// DisconnectedPayload is published when the transport closes.
type DisconnectedPayload struct {
	ConnectionID string `json:"connection_id"`
	Reason       string `json:"reason,omitempty"`
}

// Framework topics published by the websocket endpoint.
var (
	TopicClientConnected = pubsub.NewFrameworkEvent[ConnectedPayload](
		"ws.client.connected",
		"A websocket connection was registered",
	)

	// TopicClientEvent carries the raw inbound frame; connection and user
	// ids travel in the message envelope.
	TopicClientEvent = pubsub.NewFrameworkEvent[json.RawMessage](
		"ws.client.event",
		"A raw inbound frame read from a websocket client",
	)

	TopicClientDisconnected = pubsub.NewFrameworkEvent[DisconnectedPayload](
		"ws.client.disconnected",
		"A websocket transport closed",
	)
)
