// Package websocket pushes playground updates to connected browsers and
// accepts edits from them.
package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"

	"github.com/conneroisu/minplay/internal/logging"
)

const (
	sendBuffer   = 16
	writeTimeout = 10 * time.Second
	pingInterval = 30 * time.Second
	readLimit    = 1 << 20
)

// MessageHandler receives messages sent by a client.
type MessageHandler func(ctx context.Context, msg Message)

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithOriginPatterns sets the host patterns allowed to connect from another
// origin. Same-origin connections are always accepted.
func WithOriginPatterns(patterns ...string) HubOption {
	return func(h *Hub) { h.originPatterns = patterns }
}

// WithMessageHandler sets the handler for inbound client messages.
func WithMessageHandler(fn MessageHandler) HubOption {
	return func(h *Hub) { h.onMessage = fn }
}

// WithClientCount is called with the number of clients after every connect
// and disconnect.
func WithClientCount(fn func(int)) HubOption {
	return func(h *Hub) { h.onCount = fn }
}

// Hub owns the set of connected clients. Registration, removal and
// broadcasting all happen on a single goroutine.
type Hub struct {
	logger         logging.Logger
	originPatterns []string
	onMessage      MessageHandler
	onCount        func(int)

	clients    map[*Client]struct{}
	register   chan *Client
	unregister chan *Client

	// Broadcasts go through a one-slot mailbox: a newer message replaces one
	// the hub goroutine has not picked up yet.
	pendingMu sync.Mutex
	pending   []byte
	wake      chan struct{}

	// latest is replayed to every new client so it starts in sync.
	latest []byte
	count  atomic.Int64

	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
	shutdown sync.Once
}

// NewHub creates a Hub and starts its goroutine.
func NewHub(logger logging.Logger, opts ...HubOption) *Hub {
	if logger == nil {
		logger = logging.Nop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		logger:     logger.WithComponent("websocket"),
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		wake:       make(chan struct{}, 1),
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	defer close(h.done)
	for {
		select {
		case c := <-h.register:
			h.clients[c] = struct{}{}
			if h.latest != nil {
				c.send <- h.latest
			}
			h.setCount(len(h.clients))
			h.logger.Info(h.ctx, "WebSocket client connected", "remote", c.remote, "clients", len(h.clients))

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
				h.setCount(len(h.clients))
				h.logger.Info(h.ctx, "WebSocket client disconnected", "remote", c.remote, "clients", len(h.clients))
			}

		case <-h.wake:
			h.pendingMu.Lock()
			data := h.pending
			h.pending = nil
			h.pendingMu.Unlock()
			if data == nil {
				continue
			}

			h.latest = data
			for c := range h.clients {
				select {
				case c.send <- data:
				default:
					// Slow reader; drop it rather than stall everyone else.
					delete(h.clients, c)
					close(c.send)
					h.setCount(len(h.clients))
					h.logger.Warn(h.ctx, nil, "Dropping slow WebSocket client", "remote", c.remote)
				}
			}

		case <-h.ctx.Done():
			for c := range h.clients {
				close(c.send)
			}
			h.clients = nil
			h.setCount(0)
			return
		}
	}
}

func (h *Hub) setCount(n int) {
	h.count.Store(int64(n))
	if h.onCount != nil {
		h.onCount(n)
	}
}

// ServeHTTP upgrades the request and serves the client until it leaves or
// the hub shuts down.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.ctx.Err() != nil {
		http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns:  h.originPatterns,
		CompressionMode: websocket.CompressionDisabled,
	})
	if err != nil {
		h.logger.Warn(r.Context(), err, "WebSocket upgrade failed", "remote", r.RemoteAddr)
		return
	}
	conn.SetReadLimit(readLimit)

	c := &Client{
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		remote: r.RemoteAddr,
	}

	select {
	case h.register <- c:
	case <-h.ctx.Done():
		_ = conn.Close(websocket.StatusGoingAway, "server shutting down")
		return
	}

	go h.writePump(c)
	h.readPump(c)
}

func (h *Hub) readPump(c *Client) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.ctx.Done():
		}
		_ = c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		_, data, err := c.conn.Read(h.ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway && h.ctx.Err() == nil {
				h.logger.Debug(h.ctx, "WebSocket read ended", "remote", c.remote, "error", err.Error())
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			h.logger.Debug(h.ctx, "Ignoring malformed WebSocket message", "remote", c.remote, "bytes", len(data))
			continue
		}
		if h.onMessage != nil {
			h.onMessage(h.ctx, msg)
		}
	}
}

func (h *Hub) writePump(c *Client) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				_ = c.conn.Close(websocket.StatusGoingAway, "")
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
			err := c.conn.Write(ctx, websocket.MessageText, data)
			cancel()
			if err != nil {
				h.logger.Debug(h.ctx, "WebSocket write failed", "remote", c.remote, "error", err.Error())
				return
			}

		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
			err := c.conn.Ping(ctx)
			cancel()
			if err != nil {
				return
			}
		}
	}
}

// Broadcast sends msg to every connected client and makes it the message new
// clients start with. It never blocks. A message still waiting for the hub
// goroutine is replaced by a newer one, so clients may skip intermediate
// messages but always end on the last.
func (h *Hub) Broadcast(msg Message) {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error(h.ctx, err, "Failed to encode broadcast message", "type", msg.Type)
		return
	}

	if h.ctx.Err() != nil {
		return
	}

	h.pendingMu.Lock()
	h.pending = data
	h.pendingMu.Unlock()

	select {
	case h.wake <- struct{}{}:
	default:
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	return int(h.count.Load())
}

// Shutdown disconnects every client and stops the hub goroutine.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.shutdown.Do(h.cancel)
	select {
	case <-h.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
