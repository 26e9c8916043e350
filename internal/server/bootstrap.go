package server

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nfrund/organizapp/internal/app"
	"github.com/nfrund/organizapp/internal/archive"
	"github.com/nfrund/organizapp/internal/config"
	"github.com/nfrund/organizapp/internal/domain"
	"github.com/nfrund/organizapp/internal/moderation"
	"github.com/nfrund/organizapp/internal/presence"
	"github.com/nfrund/organizapp/internal/pubsub"
	"github.com/nfrund/organizapp/internal/registry"
	"github.com/nfrund/organizapp/internal/rendering"
	"github.com/nfrund/organizapp/internal/websocket"
	"github.com/spf13/afero"
)

// Bootstrap builds a ready-to-start server from configuration: stores,
// bus, tracing, moderation, archive, the service registry and the
// application modules. The cleanup steps follow the shutdown order: bus,
// moderation watcher, tracer, database.
func Bootstrap(ctx context.Context, cfg config.Provider) (*Server, error) {
	stores, err := OpenStores(ctx, cfg)
	if err != nil {
		return nil, err
	}

	tracer, shutdownTracing, err := pubsub.SetupOTel(ctx, pubsub.LoadTracingConfigFromEnv())
	if err != nil {
		_ = stores.Close(ctx)
		return nil, fmt.Errorf("setup tracing: %w", err)
	}
	bus := pubsub.NewWatermillBridge(pubsub.WithTracer(tracer))

	filter, err := moderation.New(afero.NewOsFs(), cfg.GetModerationScript(),
		moderation.WithTimeout(cfg.GetModerationTimeout()))
	if err != nil {
		_ = bus.Close()
		_ = shutdownTracing(ctx)
		_ = stores.Close(ctx)
		return nil, fmt.Errorf("load moderation script: %w", err)
	}
	if err := filter.Watch(); err != nil {
		// The loaded script stays in effect without hot reload.
		slog.Default().With("service", "server").Warn("Moderation script watch failed", "error", err)
	}

	renderer := rendering.NewUniversalRenderer()
	s, err := New(Dependencies{
		Config:    cfg,
		UserStore: stores.Users,
		Renderer:  renderer,
	})
	if err != nil {
		_ = bus.Close()
		_ = filter.Close()
		_ = shutdownTracing(ctx)
		_ = stores.Close(ctx)
		return nil, err
	}
	s.OnShutdown("bus", func(context.Context) error { return bus.Close() })
	s.OnShutdown("moderation", func(context.Context) error { return filter.Close() })
	s.OnShutdown("tracing", shutdownTracing)
	s.OnShutdown("database", stores.Close)

	reg := registry.New(cfg)
	connections := websocket.NewRegistry()
	registry.Set[domain.GroupRepository](reg, registry.GroupsKey, stores.Groups)
	registry.Set[domain.MessageRepository](reg, registry.MessagesKey, stores.Messages)
	registry.Set[domain.UserRepository](reg, registry.UsersKey, stores.Users)
	registry.Set(reg, registry.ConnectionsKey, connections)
	registry.Set(reg, registry.BroadcasterKey, presence.NewBroadcaster(connections))
	registry.Set[pubsub.Bus](reg, registry.BusKey, bus)
	registry.Set[rendering.Renderer](reg, registry.RendererKey, renderer)

	s.RegisterRoutes()
	modules := app.NewModules(app.Dependencies{
		Publisher:       bus,
		Subscriber:      bus,
		Renderer:        renderer,
		Moderator:       filter,
		Archiver:        archive.New(afero.NewOsFs(), cfg.GetArchiveDir()),
		EndpointOptions: EndpointOptions(cfg),
		APIMiddleware:   s.APIMiddleware(),
	})
	if err := s.InitModules(ctx, modules, reg); err != nil {
		_ = s.Shutdown(ctx)
		return nil, err
	}
	return s, nil
}

// EndpointOptions maps the websocket settings onto endpoint options.
func EndpointOptions(cfg config.Provider) []websocket.EndpointOption {
	return []websocket.EndpointOption{
		websocket.WithReadLimit(cfg.GetWSReadLimit()),
		websocket.WithPingInterval(cfg.GetWSPingInterval()),
		websocket.WithSendBuffer(cfg.GetWSSendBuffer()),
	}
}
