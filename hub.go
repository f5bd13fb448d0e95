package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hsccorp/node-bluetooth-tcp-obd/obd"
)

// clientBuffer is the number of frames queued for one slow client before
// frames are skipped.
const clientBuffer = 64

// Hub broadcasts decoded replies to every connected websocket client.
type Hub struct {
	logger   *slog.Logger
	upgrader websocket.Upgrader

	clientsMu sync.RWMutex
	clients   map[*wsClient]struct{}
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

// Frame is the JSON structure sent to websocket clients.
type Frame struct {
	Reply obd.Reply `json:"reply"`
	Unit  string    `json:"unit,omitempty"`
	Stamp int64     `json:"stamp"` // Unix ms
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger:  logger,
		clients: make(map[*wsClient]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// ServeHTTP upgrades the request and registers the client until it goes away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("Websocket upgrade failed", "error", err)
		return
	}

	client := &wsClient{
		conn: conn,
		send: make(chan []byte, clientBuffer),
	}

	h.clientsMu.Lock()
	h.clients[client] = struct{}{}
	total := len(h.clients)
	h.clientsMu.Unlock()

	h.logger.Info("Websocket client connected", "remote", r.RemoteAddr, "clients", total)

	// Writer
	go func() {
		defer conn.Close()
		for msg := range client.send {
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				break
			}
		}
	}()

	// Reader, only to notice the close
	go func() {
		defer h.remove(client)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *Hub) remove(client *wsClient) {
	h.clientsMu.Lock()
	if _, ok := h.clients[client]; !ok {
		h.clientsMu.Unlock()
		return
	}
	delete(h.clients, client)
	close(client.send)
	total := len(h.clients)
	h.clientsMu.Unlock()

	h.logger.Info("Websocket client disconnected", "clients", total)
}

// Broadcast sends reply to every client. Clients that are too slow miss it.
func (h *Hub) Broadcast(reply obd.Reply, unit string) {
	data, err := json.Marshal(Frame{Reply: reply, Unit: unit, Stamp: time.Now().UnixMilli()})
	if err != nil {
		h.logger.Error("Failed to encode frame", "error", err, "name", reply.Name)
		return
	}

	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()

	for client := range h.clients {
		select {
		case client.send <- data:
		default:
		}
	}
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.clientsMu.RLock()
	clients := make([]*wsClient, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.clientsMu.RUnlock()

	for _, client := range clients {
		client.conn.Close()
	}
}
