package chat

import (
	"context"
	"errors"
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/nfrund/organizapp/internal/archive"
	"github.com/nfrund/organizapp/internal/module"
	"github.com/nfrund/organizapp/internal/pubsub"
	"github.com/nfrund/organizapp/internal/registry"
	"github.com/nfrund/organizapp/internal/rendering"
	"github.com/nfrund/organizapp/internal/websocket"
)

// RelayKey publishes the relay to other modules and the CLI.
const RelayKey registry.Key[*Relay] = "chat.relay"

// ChatModule implements the module.Module interface for the chat feature.
type ChatModule struct {
	module.BaseModule
	publisher       pubsub.Publisher
	subscriber      pubsub.Subscriber
	renderer        rendering.Renderer
	moderator       Moderator
	archiver        *archive.Archiver
	endpointOptions []websocket.EndpointOption
	apiMiddleware   []echo.MiddlewareFunc

	relay *Relay
}

// Dependencies holds the services the ChatModule requires that do not live
// in the registry. Stores, the connection registry and the broadcaster are
// looked up during Register.
type Dependencies struct {
	Publisher       pubsub.Publisher
	Subscriber      pubsub.Subscriber
	Renderer        rendering.Renderer
	Moderator       Moderator
	Archiver        *archive.Archiver
	EndpointOptions []websocket.EndpointOption
	APIMiddleware   []echo.MiddlewareFunc
}

// New creates a new instance of the ChatModule, injecting its dependencies.
func New(deps Dependencies) *ChatModule {
	return &ChatModule{
		publisher:       deps.Publisher,
		subscriber:      deps.Subscriber,
		renderer:        deps.Renderer,
		moderator:       deps.Moderator,
		archiver:        deps.Archiver,
		endpointOptions: deps.EndpointOptions,
		apiMiddleware:   deps.APIMiddleware,
	}
}

// Name returns the module name.
func (m *ChatModule) Name() string {
	return "chat"
}

// Register builds the relay from the shared stores and publishes it.
func (m *ChatModule) Register(reg *registry.Registry) error {
	connections, ok := registry.Get(reg, registry.ConnectionsKey)
	if !ok {
		return errors.New("chat: connection registry not registered")
	}
	broadcaster, ok := registry.Get(reg, registry.BroadcasterKey)
	if !ok {
		return errors.New("chat: broadcaster not registered")
	}
	groups, ok := registry.Get(reg, registry.GroupsKey)
	if !ok {
		return errors.New("chat: group store not registered")
	}
	messages, ok := registry.Get(reg, registry.MessagesKey)
	if !ok {
		return errors.New("chat: message store not registered")
	}
	users, ok := registry.Get(reg, registry.UsersKey)
	if !ok {
		return errors.New("chat: user store not registered")
	}

	m.relay = NewRelay(RelayDependencies{
		Groups:      groups,
		Messages:    messages,
		Users:       users,
		Connections: connections,
		Broadcaster: broadcaster,
		Moderator:   m.moderator,
		Archiver:    m.archiver,
	})
	registry.Set(reg, RelayKey, m.relay)
	return nil
}

// Boot starts the bus subscriber and mounts the websocket endpoint, the
// read API and the status page.
func (m *ChatModule) Boot(ctx context.Context, g *echo.Group, reg *registry.Registry) error {
	if m.relay == nil {
		return errors.New("chat: Boot called before Register")
	}

	if err := NewSubscriber(m.subscriber, m.relay).Start(ctx); err != nil {
		return err
	}

	slog.Info("Booting ChatModule: Setting up routes...")
	connections := registry.MustGet(reg, registry.ConnectionsKey)
	endpoint := websocket.NewEndpoint(connections, m.publisher, m.endpointOptions...)
	g.GET("/ws", endpoint.Handler())

	handler := NewHandler(m.relay.Cache(), m.relay.groups, m.relay.messages)
	api := g.Group("/api", m.apiMiddleware...)
	api.GET("/groups", handler.GroupsGet)
	api.GET("/groups/:id/messages", handler.MessagesGet)

	if m.renderer != nil {
		status := NewStatusHandler(m.relay.Cache(), connections, m.renderer)
		g.GET("/status", status.PageGet)
		g.GET(statusRoomsPath, status.RoomsGet)
	}
	return nil
}

// Shutdown is called on application termination. The subscriptions end
// when the bus closes.
func (m *ChatModule) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down ChatModule...")
	return nil
}
