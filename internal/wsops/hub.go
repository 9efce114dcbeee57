// Package wsops pushes the same Heartbeat/TradeClosed/BotStateChanged
// events the Event Sink persists out over a WebSocket, live, so an operator
// dashboard doesn't have to poll the database. It carries no query surface
// of its own; SPEC_FULL.md draws that line deliberately (see DESIGN.md).
package wsops

import (
	"bytes"
	"encoding/json"
	"log"
	"sync"

	"reversion/internal/models"
)

var jsonBufferPool = sync.Pool{
	New: func() interface{} {
		return bytes.NewBuffer(make([]byte, 0, 512))
	},
}

// Hub fans pushed messages out to every connected client, dropping slow
// clients rather than blocking the broadcaster. Grounded on
// internal/websocket/hub.go's register/unregister/broadcast loop.
type Hub struct {
	clients map[*Client]bool

	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run drives the hub's event loop. Call in its own goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.RLock()
			clients := make([]*Client, 0, len(h.clients))
			for client := range h.clients {
				clients = append(clients, client)
			}
			h.mu.RUnlock()

			var toRemove []*Client
			for _, client := range clients {
				select {
				case client.send <- message:
				default:
					toRemove = append(toRemove, client)
				}
			}

			if len(toRemove) > 0 {
				h.mu.Lock()
				for _, client := range toRemove {
					if _, ok := h.clients[client]; ok {
						delete(h.clients, client)
						close(client.send)
					}
				}
				h.mu.Unlock()
				log.Printf("wsops: removed %d slow clients", len(toRemove))
			}
		}
	}
}

// Broadcast marshals message to JSON and fans it out to every client.
func (h *Hub) Broadcast(message interface{}) {
	buf := jsonBufferPool.Get().(*bytes.Buffer)
	buf.Reset()

	if err := json.NewEncoder(buf).Encode(message); err != nil {
		log.Printf("wsops: marshal error: %v", err)
		jsonBufferPool.Put(buf)
		return
	}

	data := buf.Bytes()
	if len(data) > 0 && data[len(data)-1] == '\n' {
		data = data[:len(data)-1]
	}
	msgCopy := make([]byte, len(data))
	copy(msgCopy, data)
	jsonBufferPool.Put(buf)

	h.broadcast <- msgCopy
}

// BroadcastHeartbeat pushes a HealthCheck snapshot. Satisfies
// strategy.Broadcaster without strategy needing to import this package.
func (h *Hub) BroadcastHeartbeat(hc models.HealthCheck) { h.Broadcast(NewHeartbeatMessage(hc)) }

// BroadcastTradeClosed pushes a closed trade.
func (h *Hub) BroadcastTradeClosed(tr models.TradeRecord) { h.Broadcast(NewTradeClosedMessage(tr)) }

// BroadcastBotStateChanged pushes a state transition.
func (h *Hub) BroadcastBotStateChanged(s models.BotStateRecord) {
	h.Broadcast(NewBotStateChangedMessage(s))
}

// ClientCount reports the number of currently connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
