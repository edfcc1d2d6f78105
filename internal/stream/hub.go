// Package stream pushes completed analysis outcomes to WebSocket clients.
// Every successful analysis is fanned out as one envelope; clients may
// filter by symbol with a query parameter.
package stream

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"analysis-systemv1/internal/model"
)

var upgrader = websocket.Upgrader{
	CheckOrigin:       func(r *http.Request) bool { return true },
	EnableCompression: true,
}

// Client represents a single WebSocket peer.
type client struct {
	conn   *websocket.Conn
	send   chan []byte
	symbol string // empty means all symbols
}

// Hub manages WebSocket clients and fans out analysis envelopes. Slow
// clients are disconnected rather than allowed to block the producer.
type Hub struct {
	log *slog.Logger

	mu      sync.RWMutex
	clients map[*client]bool

	// Last envelope per symbol, replayed to new clients on connect.
	latest map[string][]byte
}

// NewHub creates an empty hub.
func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		log:     log,
		clients: make(map[*client]bool),
		latest:  make(map[string][]byte),
	}
}

// Broadcast fans one outcome out to every matching client. payload is the
// sanitized analysis payload; the envelope wraps it with the compact result.
func (h *Hub) Broadcast(res *model.AnalysisResult, payload []byte) {
	envelope, err := json.Marshal(map[string]any{
		"symbol": res.Symbol,
		"result": res,
		"data":   json.RawMessage(payload),
		"ts":     res.TS.Format(time.RFC3339Nano),
	})
	if err != nil {
		return
	}

	h.mu.Lock()
	h.latest[res.Symbol] = envelope
	for c := range h.clients {
		if c.symbol != "" && c.symbol != res.Symbol {
			continue
		}
		select {
		case c.send <- envelope:
		default:
			// Queue full, drop the client instead of blocking.
			delete(h.clients, c)
			close(c.send)
		}
	}
	h.mu.Unlock()
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeWS upgrades the request and registers the peer. The optional
// "symbol" query parameter restricts the stream to one symbol.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", slog.Any("err", err))
		return
	}
	c := &client{
		conn:   conn,
		send:   make(chan []byte, 64),
		symbol: r.URL.Query().Get("symbol"),
	}

	h.mu.Lock()
	h.clients[c] = true
	for sym, envelope := range h.latest {
		if c.symbol != "" && c.symbol != sym {
			continue
		}
		select {
		case c.send <- envelope:
		default:
		}
	}
	h.mu.Unlock()

	go c.writePump()
	go c.readPump(h)
}

func (h *Hub) drop(c *client) {
	h.mu.Lock()
	if h.clients[c] {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

func (c *client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(msg)

			// Drain queued envelopes into the same frame.
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}
			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards inbound frames; the stream is one-way. It exists to
// notice disconnects and answer control frames.
func (c *client) readPump(h *Hub) {
	defer func() {
		h.drop(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(90 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(90 * time.Second))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
