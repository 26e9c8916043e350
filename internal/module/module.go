// Package module defines the lifecycle every application feature follows.
package module

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/nfrund/organizapp/internal/registry"
)

// Module is a self-contained feature. The server calls Register on every
// module before it calls Boot on any of them, and Shutdown once the HTTP
// server has stopped accepting requests.
type Module interface {
	Name() string

	// Register publishes the module's services in reg. It must not start
	// goroutines or touch the router.
	Register(reg *registry.Registry) error

	// Boot mounts routes on router and starts background work. Services
	// from other modules are available through reg.
	Boot(ctx context.Context, router *echo.Group, reg *registry.Registry) error

	// Shutdown releases what Boot started.
	Shutdown(ctx context.Context) error
}

// BaseModule gives embedders no-op lifecycle hooks.
type BaseModule struct{}

func (BaseModule) Register(*registry.Registry) error                          { return nil }
func (BaseModule) Boot(context.Context, *echo.Group, *registry.Registry) error { return nil }
func (BaseModule) Shutdown(context.Context) error                             { return nil }
