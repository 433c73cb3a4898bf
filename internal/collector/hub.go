// Package collector implements the dev collector's fan-out hub: accepted
// events are broadcast to connected live-tail websocket clients.
package collector

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"

	"github.com/AtRiskMedia/beacon-go/internal/domain/events"
	"github.com/AtRiskMedia/beacon-go/internal/infrastructure/observability/logging"
)

// maxSeenIDs bounds the duplicate-detection window. The set resets when
// full; duplicate reporting is a log aid, not a guarantee.
const maxSeenIDs = 4096

// Client represents a single connected live-tail client.
type Client struct {
	Conn *websocket.Conn
	Send chan []byte
}

// Hub manages connected clients and broadcasts accepted events. Slow
// clients are skipped rather than allowed to stall the ingest path.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	logger     *logging.ChanneledLogger

	accepted atomic.Int64

	seenMu sync.Mutex
	seen   map[string]bool
}

// NewHub creates the hub; call Run in a goroutine to start it.
func NewHub(logger *logging.ChanneledLogger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 64),
		logger:     logger,
		seen:       make(map[string]bool),
	}
}

// Run is the hub's main loop. It exits when ctx is canceled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			h.logger.Collector().Info("Live tail client connected", "clients", len(h.clients))

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
			}
			h.logger.Collector().Info("Live tail client disconnected", "clients", len(h.clients))

		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.Send <- message:
				default:
					// Slow client; this message is lost for it.
				}
			}

		case <-ctx.Done():
			for client := range h.clients {
				close(client.Send)
			}
			h.clients = make(map[*Client]bool)
			return
		}
	}
}

// Register queues a client for registration.
func (h *Hub) Register(client *Client) { h.register <- client }

// Unregister queues a client for removal.
func (h *Hub) Unregister(client *Client) { h.unregister <- client }

// Publish counts an accepted event and fans it out to live-tail clients.
func (h *Hub) Publish(ev events.Event) {
	h.accepted.Add(1)
	message, err := json.Marshal(ev)
	if err != nil {
		h.logger.Collector().Error("Could not marshal event for broadcast", "event", ev.Name, "error", err.Error())
		return
	}
	select {
	case h.broadcast <- message:
	default:
		h.logger.Collector().Warn("Broadcast queue full, live tail skipped", "event", ev.Name)
	}
}

// Accepted returns the number of events accepted since start.
func (h *Hub) Accepted() int64 { return h.accepted.Load() }

// Seen reports whether an event id was already observed, recording it as a
// side effect.
func (h *Hub) Seen(id string) bool {
	if id == "" {
		return false
	}
	h.seenMu.Lock()
	defer h.seenMu.Unlock()
	if h.seen[id] {
		return true
	}
	if len(h.seen) >= maxSeenIDs {
		h.seen = make(map[string]bool)
	}
	h.seen[id] = true
	return false
}
