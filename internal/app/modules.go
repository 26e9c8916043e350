package app

import (
	"github.com/labstack/echo/v4"
	"github.com/nfrund/organizapp/internal/archive"
	"github.com/nfrund/organizapp/internal/module"
	"github.com/nfrund/organizapp/internal/modules/chat"
	"github.com/nfrund/organizapp/internal/pubsub"
	"github.com/nfrund/organizapp/internal/rendering"
	"github.com/nfrund/organizapp/internal/websocket"
)

// Dependencies holds the core services that are required by the application's modules.
// This struct is passed from the main application entrypoint to wire up the modules.
type Dependencies struct {
	Publisher       pubsub.Publisher
	Subscriber      pubsub.Subscriber
	Renderer        rendering.Renderer
	Moderator       chat.Moderator
	Archiver        *archive.Archiver
	EndpointOptions []websocket.EndpointOption
	APIMiddleware   []echo.MiddlewareFunc
}

// NewModules creates and returns the list of all active modules for the application.
// This is the single source of truth for which features are enabled.
func NewModules(deps Dependencies) []module.Module {
	return []module.Module{
		chat.New(chatDeps(deps)),
	}
}

func chatDeps(deps Dependencies) chat.Dependencies {
	return chat.Dependencies{
		Publisher:       deps.Publisher,
		Subscriber:      deps.Subscriber,
		Renderer:        deps.Renderer,
		Moderator:       deps.Moderator,
		Archiver:        deps.Archiver,
		EndpointOptions: deps.EndpointOptions,
		APIMiddleware:   deps.APIMiddleware,
	}
}
