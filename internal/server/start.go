package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// shutdownGrace bounds how long in-flight requests get to finish.
const shutdownGrace = 10 * time.Second

// Start runs the HTTP server until SIGINT or SIGTERM, then shuts down.
func (s *Server) Start(addr string) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting server", "addr", addr)
		if err := s.E.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err, ok := <-errCh:
		if ok {
			s.logger.Error("Server stopped unexpectedly", "error", err)
			_ = s.Shutdown(context.Background())
			return err
		}
		return nil
	case <-quit.Done():
		s.logger.Info("Shutdown signal received")
	}
	return s.Shutdown(context.Background())
}

// Shutdown stops accepting HTTP requests, waits up to the grace period for
// in-flight ones, stops the modules, then runs the cleanup steps in order.
// Every step runs even if an earlier one fails.
func (s *Server) Shutdown(ctx context.Context) error {
	httpCtx, cancel := context.WithTimeout(ctx, shutdownGrace)
	defer cancel()

	var errs []error
	if err := s.E.Shutdown(httpCtx); err != nil {
		s.logger.Error("HTTP shutdown failed", "error", err)
		errs = append(errs, err)
	}
	for _, m := range s.modules {
		if err := m.Shutdown(ctx); err != nil {
			s.logger.Error("Module shutdown failed", "module", m.Name(), "error", err)
			errs = append(errs, err)
		}
	}
	for _, c := range s.cleanups {
		if err := c.fn(ctx); err != nil {
			s.logger.Error("Shutdown step failed", "step", c.name, "error", err)
			errs = append(errs, err)
			continue
		}
		s.logger.Debug("Shutdown step done", "step", c.name)
	}
	s.logger.Info("Server stopped")
	return errors.Join(errs...)
}
