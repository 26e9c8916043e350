package websocket

import (
	"log/slog"
	"sync"
	"time"

	"github.com/nfrund/organizapp/internal/domain"
)

// Connection is one live client. It is created on handshake, handed to the
// Registry, and destroyed when the registry removes it.
type Connection struct {
	id          string
	connectedAt time.Time

	mu     sync.RWMutex
	user   *domain.User
	send   chan []byte
	closed bool
}

// NewConnection creates an unregistered connection with a send queue of
// the given size. user may be nil.
func NewConnection(user *domain.User, buffer int) *Connection {
	if buffer < 1 {
		buffer = 1
	}
	c := &Connection{
		connectedAt: time.Now(),
		send:        make(chan []byte, buffer),
	}
	if user != nil {
		u := *user
		c.user = &u
	}
	return c
}

// ID is assigned by Registry.Register.
func (c *Connection) ID() string { return c.id }

// ConnectedAt is the handshake time.
func (c *Connection) ConnectedAt() time.Time { return c.connectedAt }

// User returns a copy of the bound user, or nil.
func (c *Connection) User() *domain.User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.user == nil {
		return nil
	}
	u := *c.user
	return &u
}

// UserID returns the bound user's id, or "".
func (c *Connection) UserID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.user == nil {
		return ""
	}
	return c.user.ID
}

// Principal identifies the connection for ownership checks: the bound
// user when there is one, the connection itself otherwise.
func (c *Connection) Principal() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.user != nil {
		return c.user.Principal()
	}
	return "conn:" + c.id
}

// Send queues frame without blocking. It reports false when the frame was
// dropped because the queue is full or the connection is closed.
func (c *Connection) Send(frame []byte) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return false
	}
	select {
	case c.send <- frame:
		return true
	default:
		slog.Warn("Connection send queue full, dropping frame",
			"service", "websocket", "connection_id", c.id, "size", len(frame))
		return false
	}
}

// Outbound is drained by the write pump. It is closed when the connection
// leaves the registry.
func (c *Connection) Outbound() <-chan []byte {
	return c.send
}

func (c *Connection) setUser(u *domain.User) (previous string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.user != nil {
		previous = c.user.ID
	}
	cp := *u
	c.user = &cp
	return previous
}

func (c *Connection) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}
