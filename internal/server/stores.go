package server

import (
	"context"
	"fmt"

	"github.com/nfrund/organizapp/internal/config"
	"github.com/nfrund/organizapp/internal/database"
	"github.com/nfrund/organizapp/internal/domain"
	"github.com/nfrund/organizapp/internal/memstore"
)

// Stores bundles the repositories chosen by STORE_DRIVER.
type Stores struct {
	Groups   domain.GroupRepository
	Messages domain.MessageRepository
	Users    domain.UserRepository

	conn *database.Connection
}

// OpenStores connects the configured backend. The surreal driver applies
// the schema and starts the connection monitor; the memory driver keeps
// everything in process.
func OpenStores(ctx context.Context, cfg config.Provider) (*Stores, error) {
	switch cfg.GetStoreDriver() {
	case config.StoreMemory:
		return &Stores{
			Groups:   memstore.NewGroupStore(),
			Messages: memstore.NewMessageStore(),
			Users:    memstore.NewUserStore(),
		}, nil
	case config.StoreSurreal:
		conn := database.NewConnection(cfg)
		if err := conn.Connect(ctx); err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		if err := database.EnsureSchema(ctx, conn); err != nil {
			_ = conn.Close(ctx)
			return nil, fmt.Errorf("apply schema: %w", err)
		}
		conn.StartMonitoring()
		return &Stores{
			Groups:   database.NewGroupStore(conn),
			Messages: database.NewMessageStore(conn),
			Users:    database.NewUserStore(conn),
			conn:     conn,
		}, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.GetStoreDriver())
	}
}

// Close releases the database connection, if any.
func (s *Stores) Close(ctx context.Context) error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close(ctx)
}
