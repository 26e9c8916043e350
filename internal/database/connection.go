package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/nfrund/organizapp/internal/config"
	"github.com/surrealdb/surrealdb.go"
)

const healthCheckInterval = 30 * time.Second

// Connection manages a SurrealDB connection: sign-in, namespace selection,
// health monitoring and reconnection with backoff.
type Connection struct {
	cfg     config.Provider
	conn    *surrealdb.DB
	retryer *ExponentialBackoffRetryer
	logger  *slog.Logger
	mu      sync.RWMutex
	healthy bool
	done    chan struct{}
	once    sync.Once
}

// NewConnection creates a new managed database connection. Call Connect
// before handing it to a store.
func NewConnection(cfg config.Provider) *Connection {
	return &Connection{
		cfg:     cfg,
		retryer: NewExponentialBackoffRetryer(),
		logger:  slog.Default().With("service", "database"),
		done:    make(chan struct{}),
	}
}

// Connect establishes the initial database connection, retrying with backoff.
func (c *Connection) Connect(ctx context.Context) error {
	c.mu.Lock()
	connected := c.conn != nil
	c.mu.Unlock()
	if connected {
		return nil
	}

	return c.retryer.Retry(ctx, func() error {
		return c.forceReconnect(ctx)
	})
}

// WithConnection executes fn with the current connection. When fn fails
// with a connection-level error, the connection is re-established and fn
// is retried with backoff.
func (c *Connection) WithConnection(ctx context.Context, fn func(*surrealdb.DB) error) error {
	conn := c.getConnection()
	if conn == nil {
		return NewDBError(ErrNotConnected, "database not connected")
	}

	err := fn(conn)
	if err == nil || !isConnectionError(err) || ctx.Err() != nil {
		return err
	}

	c.logger.WarnContext(ctx, "Database operation failed, attempting to reconnect with backoff",
		"error", err, "db_url", redactDBURL(c.cfg.GetDBURL()))

	return c.retryer.Retry(ctx, func() error {
		if reconnectErr := c.forceReconnect(ctx); reconnectErr != nil {
			return fmt.Errorf("reconnection failed: %w (original error: %v)", reconnectErr, err)
		}
		return fn(c.getConnection())
	})
}

// StartMonitoring begins periodic health checks and automatic reconnection.
func (c *Connection) StartMonitoring() {
	go c.monitorConnection()
}

// Close shuts down monitoring and the connection. It is safe to call twice.
func (c *Connection) Close(ctx context.Context) error {
	var err error
	c.once.Do(func() {
		close(c.done)
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.conn != nil {
			err = c.conn.Close(ctx)
			c.conn = nil
		}
		c.healthy = false
	})
	return err
}

// IsHealthy returns the last observed connection status.
func (c *Connection) IsHealthy() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.healthy
}

// QueryTimeout is the default bound on reads.
func (c *Connection) QueryTimeout() time.Duration {
	return c.cfg.GetDBQueryTimeout()
}

// ExecuteTimeout is the default bound on writes.
func (c *Connection) ExecuteTimeout() time.Duration {
	return c.cfg.GetDBExecuteTimeout()
}

func (c *Connection) getConnection() *surrealdb.DB {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conn
}

func (c *Connection) forceReconnect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reconnect(ctx)
}

// reconnect must be called with c.mu held.
func (c *Connection) reconnect(ctx context.Context) error {
	if c.conn != nil {
		_ = c.conn.Close(ctx)
		c.conn = nil
	}

	dbURL := c.cfg.GetDBURL()
	c.logger.DebugContext(ctx, "Attempting to connect to database", "db_url", redactDBURL(dbURL))

	conn, err := surrealdb.FromEndpointURLString(ctx, dbURL)
	if err != nil {
		c.healthy = false
		return fmt.Errorf("failed to connect to database at %s: %w", redactDBURL(dbURL), err)
	}

	authData := &surrealdb.Auth{
		Username: c.cfg.GetDBUser(),
		Password: c.cfg.GetDBPass(),
	}
	if _, err = conn.SignIn(ctx, authData); err != nil {
		_ = conn.Close(ctx)
		c.healthy = false
		return fmt.Errorf("failed to sign in: %w", err)
	}

	if err = conn.Use(ctx, c.cfg.GetDBNs(), c.cfg.GetDBDb()); err != nil {
		_ = conn.Close(ctx)
		c.healthy = false
		return fmt.Errorf("failed to use namespace/db: %w", err)
	}

	c.conn = conn
	c.healthy = true
	c.logger.InfoContext(ctx, "Database connection established",
		"db_url", redactDBURL(dbURL),
		"namespace", c.cfg.GetDBNs(),
		"database", c.cfg.GetDBDb(),
	)
	return nil
}

func (c *Connection) monitorConnection() {
	ticker := time.NewTicker(healthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := c.checkHealth(ctx); err != nil {
				c.logger.Warn("Database health check failed, attempting reconnection", "error", err)
				if reconnectErr := c.retryer.Retry(ctx, func() error {
					return c.forceReconnect(ctx)
				}); reconnectErr != nil {
					c.logger.Error("Failed to reconnect to database after health check failure", "error", reconnectErr)
				}
			}
			cancel()
		case <-c.done:
			return
		}
	}
}

func (c *Connection) checkHealth(ctx context.Context) error {
	conn := c.getConnection()
	if conn == nil {
		c.setHealthy(false)
		return errors.New("no active database connection")
	}

	// Version is the cheapest round-trip the server offers.
	if _, err := conn.Version(ctx); err != nil {
		c.setHealthy(false)
		return fmt.Errorf("database health check failed: %w", err)
	}

	// Sample successful health checks to reduce log volume.
	if rand.Float32() < 0.1 {
		c.logger.Debug("Database health check successful")
	}
	c.setHealthy(true)
	return nil
}

func (c *Connection) setHealthy(v bool) {
	c.mu.Lock()
	c.healthy = v
	c.mu.Unlock()
}

// isConnectionError checks if an error is likely due to a lost or failed connection.
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNotConnected) {
		return true
	}

	errMsg := strings.ToLower(err.Error())
	return strings.Contains(errMsg, "connection refused") ||
		strings.Contains(errMsg, "broken pipe") ||
		strings.Contains(errMsg, "unexpected eof") ||
		strings.Contains(errMsg, "use of closed network connection")
}

// redactDBURL returns dbURL with any password replaced.
func redactDBURL(dbURL string) string {
	parsedURL, err := url.Parse(dbURL)
	if err != nil {
		return "invalid-url"
	}
	return parsedURL.Redacted()
}
