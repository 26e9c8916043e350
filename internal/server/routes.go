package server

import (
	"github.com/nfrund/organizapp/internal/handlers"
)

// RegisterRoutes sets up the application routes that do not belong to a
// module.
func (s *Server) RegisterRoutes() {
	sessionHandler := handlers.NewSessionHandler(s.UserStore)

	s.E.GET("/health", handlers.HealthGet)

	api := s.E.Group("/api", s.APIMiddleware()...)
	api.POST("/session", sessionHandler.Create)
	api.GET("/session", sessionHandler.Get)
	api.DELETE("/session", sessionHandler.Delete)
}
