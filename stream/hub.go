package stream

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	sendBuffer = 10
	writeWait  = time.Second
)

// client is one connected socket. send is closed by the hub on removal.
type client struct {
	conn    *websocket.Conn
	send    chan []byte
	dropped int
}

// Hub fans encoded frames out to every client. A slow client loses frames
// rather than stalling the publisher.
type Hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
	latest  []byte
	log     *slog.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{clients: make(map[*client]struct{}), log: logger}
}

// Publish encodes f, remembers it as the latest frame and queues it for
// every client.
func (h *Hub) Publish(f Frame) error {
	msg, err := json.Marshal(f)
	if err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.latest = msg
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			c.dropped++
		}
	}
	return nil
}

// Latest returns the last published frame, or nil.
func (h *Hub) Latest() []byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.latest
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// add registers conn; the latest frame, if any, is queued first.
func (h *Hub) add(conn *websocket.Conn) *client {
	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
	if h.latest != nil {
		c.send <- h.latest
	}
	h.log.Info("stream client connected", "remote", conn.RemoteAddr().String(), "clients", len(h.clients))
	return c
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
	h.log.Info("stream client disconnected", "dropped", c.dropped, "clients", len(h.clients))
}

// readLoop discards inbound messages and returns when the socket fails.
func (c *client) readLoop() {
	for {
		if _, _, err := c.conn.NextReader(); err != nil {
			return
		}
	}
}

// writeLoop only consumes, so a full buffer never blocks the hub.
func (c *client) writeLoop() {
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			break
		}
	}
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
}
