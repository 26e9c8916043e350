package websocket

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/coder/websocket"
	"github.com/labstack/echo/v4"
	"github.com/nfrund/organizapp/internal/middleware"
	"github.com/nfrund/organizapp/internal/pubsub"
)

const (
	// Time allowed to write a frame or a ping to the peer.
	writeWait = 10 * time.Second

	defaultPingInterval = 25 * time.Second
	defaultReadLimit    = 64 * 1024
	defaultSendBuffer   = 256
)

// Endpoint upgrades HTTP requests to websocket connections, registers them
// and bridges their frames onto the bus.
type Endpoint struct {
	registry       *Registry
	bus            pubsub.Publisher
	readLimit      int64
	pingInterval   time.Duration
	sendBuffer     int
	originPatterns []string
	logger         *slog.Logger
}

// EndpointOption configures an Endpoint.
type EndpointOption func(*Endpoint)

// WithReadLimit closes connections that send frames larger than n bytes.
func WithReadLimit(n int64) EndpointOption {
	return func(e *Endpoint) { e.readLimit = n }
}

// WithPingInterval sets the keep-alive ping period.
func WithPingInterval(d time.Duration) EndpointOption {
	return func(e *Endpoint) { e.pingInterval = d }
}

// WithSendBuffer sets the per-connection outbound queue size.
func WithSendBuffer(n int) EndpointOption {
	return func(e *Endpoint) { e.sendBuffer = n }
}

// WithOriginPatterns restricts cross-origin handshakes. Without patterns
// any origin is accepted.
func WithOriginPatterns(patterns ...string) EndpointOption {
	return func(e *Endpoint) { e.originPatterns = patterns }
}

// NewEndpoint creates the /ws handler.
func NewEndpoint(registry *Registry, bus pubsub.Publisher, opts ...EndpointOption) *Endpoint {
	e := &Endpoint{
		registry:     registry,
		bus:          bus,
		readLimit:    defaultReadLimit,
		pingInterval: defaultPingInterval,
		sendBuffer:   defaultSendBuffer,
		logger:       slog.Default().With("service", "websocket"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Handler serves the upgrade and blocks for the lifetime of the connection.
func (e *Endpoint) Handler() echo.HandlerFunc {
	return func(c echo.Context) error {
		opts := &websocket.AcceptOptions{OriginPatterns: e.originPatterns}
		if len(e.originPatterns) == 0 {
			opts.InsecureSkipVerify = true
		}

		ws, err := websocket.Accept(c.Response(), c.Request(), opts)
		if err != nil {
			// Accept has already written the HTTP error response.
			e.logger.Warn("Failed to upgrade connection to WebSocket", "error", err)
			return nil
		}
		ws.SetReadLimit(e.readLimit)

		conn := NewConnection(middleware.UserFromContext(c), e.sendBuffer)
		id := e.registry.Register(conn)
		logger := e.logger.With("connection_id", id)
		logger.Info("Client connected", "user_id", conn.UserID(), "remote", c.RealIP())

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		if err := pubsub.Publish(ctx, e.bus, TopicClientConnected,
			pubsub.Message{ConnectionID: id, UserID: conn.UserID()},
			ConnectedPayload{ConnectionID: id, UserID: conn.UserID()}); err != nil {
			logger.Error("Failed to publish connect event", "error", err)
		}

		writerDone := make(chan struct{})
		go func() {
			defer close(writerDone)
			e.writePump(ctx, ws, conn, logger)
		}()

		reason := e.readPump(ctx, ws, conn, logger)
		cancel()

		// The relay removes the connection while handling this event; the
		// LeaveAll below only matters when nothing is subscribed.
		if err := pubsub.Publish(context.Background(), e.bus, TopicClientDisconnected,
			pubsub.Message{ConnectionID: id, UserID: conn.UserID()},
			DisconnectedPayload{ConnectionID: id, Reason: reason}); err != nil {
			logger.Error("Failed to publish disconnect event", "error", err)
		}
		e.registry.LeaveAll(id)

		<-writerDone
		_ = ws.CloseNow()
		logger.Info("Client disconnected", "reason", reason)
		return nil
	}
}

// readPump publishes every text frame until the transport fails, and
// returns a short reason for the disconnect.
func (e *Endpoint) readPump(ctx context.Context, ws *websocket.Conn, conn *Connection, logger *slog.Logger) string {
	for {
		typ, data, err := ws.Read(ctx)
		if err != nil {
			switch status := websocket.CloseStatus(err); {
			case status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway:
				return "client_closed"
			case status == websocket.StatusMessageTooBig:
				logger.Warn("Frame exceeded read limit", "limit", e.readLimit)
				return "read_limit"
			case errors.Is(err, io.EOF) || errors.Is(err, context.Canceled):
				return "eof"
			default:
				logger.Debug("WebSocket read error", "error", err)
				return "read_error"
			}
		}
		if typ != websocket.MessageText {
			logger.Debug("Ignoring non-text frame", "type", typ.String())
			continue
		}

		msg := pubsub.Message{
			Topic:        TopicClientEvent.Name(),
			ConnectionID: conn.ID(),
			UserID:       conn.UserID(),
			Payload:      data,
		}
		if err := e.bus.Publish(ctx, msg); err != nil {
			logger.Error("Failed to publish client event", "error", err)
		}
	}
}

// writePump drains the send queue and pings the peer. It closes the
// websocket when the queue is closed.
func (e *Endpoint) writePump(ctx context.Context, ws *websocket.Conn, conn *Connection, logger *slog.Logger) {
	ticker := time.NewTicker(e.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case frame, ok := <-conn.Outbound():
			if !ok {
				_ = ws.Close(websocket.StatusNormalClosure, "")
				return
			}
			writeCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := ws.Write(writeCtx, websocket.MessageText, frame)
			cancel()
			if err != nil {
				logger.Debug("WebSocket write error", "error", err)
				_ = ws.CloseNow()
				return
			}

		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := ws.Ping(pingCtx)
			cancel()
			if err != nil {
				logger.Debug("WebSocket ping failed", "error", err)
				_ = ws.CloseNow()
				return
			}

		case <-ctx.Done():
			return
		}
	}
}
