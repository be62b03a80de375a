// Copyright (c) 2025 StratX21

package server

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const wsWriteTimeout = 5 * time.Second

var upgrader = websocket.Upgrader{
	// The endpoint is meant for the operator's local tooling.
	CheckOrigin: func(*http.Request) bool { return true },
}

// wsHub tracks the live websocket subscribers of the event stream.
type wsHub struct {
	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

func newWSHub() *wsHub {
	return &wsHub{
		conns: make(map[*websocket.Conn]struct{}),
	}
}

func (h *wsHub) add(c *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[c] = struct{}{}
}

func (h *wsHub) remove(c *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, c)
}

// broadcast sends v to every subscriber. Subscribers that cannot keep up are
// dropped.
func (h *wsHub) broadcast(v any) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.conns {
		c.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := c.WriteJSON(v); err != nil {
			slog.Warn("dropping slow websocket subscriber", "remote", c.RemoteAddr(), "err", err)
			c.Close()
			delete(h.conns, c)
		}
	}
}

func (h *wsHub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.conns {
		c.Close()
		delete(h.conns, c)
	}
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	c, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("could not upgrade websocket request (ignored)", "remote", r.RemoteAddr, "err", err)
		return
	}
	s.hub.add(c)
	defer func() {
		s.hub.remove(c)
		c.Close()
	}()

	// Incoming messages are discarded. The read loop only detects the close.
	for {
		if _, _, err := c.ReadMessage(); err != nil {
			return
		}
	}
}
