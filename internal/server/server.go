package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/nfrund/organizapp/internal/config"
	"github.com/nfrund/organizapp/internal/domain"
	"github.com/nfrund/organizapp/internal/handlers"
	appmiddleware "github.com/nfrund/organizapp/internal/middleware"
	"github.com/nfrund/organizapp/internal/module"
	"github.com/nfrund/organizapp/internal/registry"
	"github.com/nfrund/organizapp/internal/rendering"
)

// Dependencies holds everything New needs to build the HTTP server.
type Dependencies struct {
	Config    config.Provider
	UserStore domain.UserRepository
	Renderer  rendering.Renderer
	// Echo is optional; tests pass their own instance.
	Echo *echo.Echo
}

// cleanup is a named shutdown step, run in registration order.
type cleanup struct {
	name string
	fn   func(context.Context) error
}

// Server holds the dependencies for the HTTP server.
type Server struct {
	E         *echo.Echo
	Cfg       config.Provider
	UserStore domain.UserRepository
	Renderer  rendering.Renderer

	rateLimiter echo.MiddlewareFunc
	modules     []module.Module
	cleanups    []cleanup
	logger      *slog.Logger
}

// New creates a Server with the global middleware stack installed. Routes
// are added by RegisterRoutes and InitModules.
func New(deps Dependencies) (*Server, error) {
	if deps.Config == nil {
		return nil, errors.New("server: config is required")
	}
	if deps.UserStore == nil {
		return nil, errors.New("server: user store is required")
	}

	e := deps.Echo
	if e == nil {
		e = echo.New()
	}
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handlers.NewValidator()
	if deps.Renderer != nil {
		if r, ok := deps.Renderer.(echo.Renderer); ok {
			e.Renderer = r
		}
	}
	setupErrorHandling(e)

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger())
	e.Use(appmiddleware.Logger)

	store := sessions.NewCookieStore([]byte(deps.Config.GetSessionSecret()))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	e.Use(session.Middleware(store))
	e.Use(appmiddleware.SessionUser(deps.UserStore))

	return &Server{
		E:         e,
		Cfg:       deps.Config,
		UserStore: deps.UserStore,
		Renderer:  deps.Renderer,

		rateLimiter: appmiddleware.RateLimiter(deps.Config.GetRateLimit()),
		logger:      slog.Default().With("service", "server"),
	}, nil
}

// APIMiddleware returns the middleware every /api route shares. Module
// routes under /api use it so the rate limit is counted once per client.
func (s *Server) APIMiddleware() []echo.MiddlewareFunc {
	return []echo.MiddlewareFunc{s.rateLimiter}
}

// InitModules runs the register phase for every module, then the boot
// phase. Boot only starts once all modules have registered.
func (s *Server) InitModules(ctx context.Context, modules []module.Module, reg *registry.Registry) error {
	for _, m := range modules {
		s.logger.Info("Registering module", "module", m.Name())
		if err := m.Register(reg); err != nil {
			return fmt.Errorf("register module %s: %w", m.Name(), err)
		}
	}
	s.logger.Debug("Services registered", "services", reg.Names())
	root := s.E.Group("")
	for _, m := range modules {
		s.logger.Info("Booting module", "module", m.Name())
		if err := m.Boot(ctx, root, reg); err != nil {
			return fmt.Errorf("boot module %s: %w", m.Name(), err)
		}
	}
	s.modules = modules
	return nil
}

// OnShutdown appends a cleanup step. Steps run in the order they were
// added, after the HTTP server and the modules have stopped.
func (s *Server) OnShutdown(name string, fn func(context.Context) error) {
	s.cleanups = append(s.cleanups, cleanup{name: name, fn: fn})
}

// setupErrorHandling installs an error handler that logs unhandled errors
// with a stack trace and answers with the JSON error shape.
func setupErrorHandling(e *echo.Echo) {
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var he *echo.HTTPError
		if errors.As(err, &he) {
			msg := http.StatusText(he.Code)
			if m, ok := he.Message.(string); ok {
				msg = m
			}
			_ = c.JSON(he.Code, handlers.ErrorResponse{Code: errorCode(he.Code), Message: msg})
			return
		}

		appmiddleware.FromContext(c.Request().Context()).Error("Internal Server Error (Unhandled)",
			"error", err.Error(),
			"method", c.Request().Method,
			"path", c.Request().URL.Path,
			"stack_trace", string(debug.Stack()),
		)
		_ = c.JSON(http.StatusInternalServerError, handlers.ErrorResponse{Code: "internal", Message: "internal error"})
	}
}

func errorCode(status int) string {
	switch status {
	case http.StatusNotFound:
		return "not_found"
	case http.StatusMethodNotAllowed:
		return "method_not_allowed"
	case http.StatusUnauthorized:
		return "unauthenticated"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusTooManyRequests:
		return "rate_limited"
	case http.StatusBadRequest:
		return "bad_request"
	default:
		if status >= 500 {
			return "internal"
		}
		return "error"
	}
}
