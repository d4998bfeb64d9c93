package realtime

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	maxMsgSize = 512 * 1024 // 512 KB

	defaultPongWait  = 60 * time.Second
	defaultQueueSize = 256
)

// Sender is the push side of a single realtime client.
type Sender interface {
	ID() string
	Send(ctx context.Context, v any) error
}

// Options tunes keepalive and per-client queueing.
type Options struct {
	PongWait  time.Duration
	QueueSize int
}

// client represents a single WebSocket connection.
type client struct {
	id          string
	conn        *websocket.Conn
	send        chan []byte
	done        chan struct{}
	closeOnce   sync.Once
	connectedAt time.Time

	mu       sync.RWMutex
	requests map[string]bool // subscribed request IDs
}

func (c *client) ID() string { return c.id }

// Send queues v for delivery. It blocks while the client's queue is full,
// and gives up when the client goes away or ctx is done.
func (c *client) Send(ctx context.Context, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	select {
	case <-c.done:
		return ErrClientClosed
	default:
	}

	select {
	case c.send <- data:
		return nil
	case <-c.done:
		return ErrClientClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *client) subscribed(requestID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.requests[requestID]
}

func (c *client) subscribe(requestID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests[requestID] = true
}

func (c *client) unsubscribe(requestID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.requests, requestID)
}

func (c *client) open() bool {
	select {
	case <-c.done:
		return false
	default:
		return true
	}
}

func (c *client) shutdown() {
	c.closeOnce.Do(func() { close(c.done) })
}

// Hub is the registry of open realtime connections.
type Hub struct {
	mu      sync.RWMutex
	clients []*client // in connect order

	pongWait   time.Duration
	pingPeriod time.Duration
	queueSize  int
}

func NewHub(opts Options) *Hub {
	if opts.PongWait <= 0 {
		opts.PongWait = defaultPongWait
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = defaultQueueSize
	}
	return &Hub{
		pongWait:   opts.PongWait,
		pingPeriod: (opts.PongWait * 9) / 10,
		queueSize:  opts.QueueSize,
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients = append(h.clients, c)
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, existing := range h.clients {
		if existing == c {
			h.clients = append(h.clients[:i], h.clients[i+1:]...)
			break
		}
	}
	c.shutdown()
}

// Pick selects the client that should receive progress for requestID:
// the first client subscribed to it, otherwise the earliest-connected one.
func (h *Hub) Pick(requestID string) (Sender, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var first *client
	for _, c := range h.clients {
		if !c.open() {
			continue
		}
		if first == nil {
			first = c
		}
		if requestID != "" && c.subscribed(requestID) {
			return c, true
		}
	}
	if first == nil {
		return nil, false
	}
	return first, true
}

// Count returns the number of open connections. Clients already shut down
// but not yet unregistered by their read loop are not counted.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, c := range h.clients {
		if c.open() {
			n++
		}
	}
	return n
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := h.clients
	h.clients = nil
	h.mu.Unlock()

	for _, c := range clients {
		c.shutdown()
	}
}

// ServeWS registers a new connection and runs its read/write loops.
// It blocks until the connection is closed.
func (h *Hub) ServeWS(conn *websocket.Conn) {
	c := &client{
		id:          uuid.New().String(),
		conn:        conn,
		send:        make(chan []byte, h.queueSize),
		done:        make(chan struct{}),
		connectedAt: time.Now(),
		requests:    make(map[string]bool),
	}

	h.register(c)
	log.Printf("ws_connected client_id=%s remote=%s clients=%d", c.id, conn.RemoteAddr(), h.Count())

	_ = c.Send(context.Background(), NewConnectedEvent(c.id))

	go h.writePump(c)
	h.readPump(c) // blocks until disconnect

	log.Printf("ws_disconnected client_id=%s lifetime=%s clients=%d", c.id, time.Since(c.connectedAt), h.Count())
}

func (h *Hub) readPump(c *client) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMsgSize)
	c.conn.SetReadDeadline(time.Now().Add(h.pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(h.pongWait))
		return nil
	})

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("ws_read_error client_id=%s error=%v", c.id, err)
			}
			return
		}
		log.Printf("ws_received client_id=%s message=%q", c.id, msg)

		var in ClientMessage
		if err := json.Unmarshal(msg, &in); err != nil {
			continue
		}

		switch in.Type {
		case TypeSubscribe:
			if in.RequestID != "" {
				c.subscribe(in.RequestID)
			}
		case TypeUnsubscribe:
			c.unsubscribe(in.RequestID)
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(h.pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.shutdown()
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.shutdown()
				return
			}
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}
