package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/nfrund/organizapp/internal/config"
	"github.com/nfrund/organizapp/internal/logging"
	"github.com/nfrund/organizapp/internal/server"
)

func main() {
	cfg, err := config.New()
	if err != nil {
		// The logger is not configured yet; the default handler is fine here.
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	logging.New()

	s, err := server.Bootstrap(context.Background(), cfg)
	if err != nil {
		slog.Error("Failed to start server", "error", err)
		os.Exit(1)
	}
	if err := s.Start(cfg.GetServerAddr()); err != nil {
		slog.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
}
