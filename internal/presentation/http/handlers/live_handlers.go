package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/AtRiskMedia/beacon-go/internal/collector"
	"github.com/AtRiskMedia/beacon-go/internal/infrastructure/observability/logging"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The collector is local dev tooling; any origin may tail it.
	CheckOrigin: func(*http.Request) bool { return true },
}

// LiveHandlers streams accepted events to websocket clients.
type LiveHandlers struct {
	hub    *collector.Hub
	logger *logging.ChanneledLogger
}

func NewLiveHandlers(hub *collector.Hub, logger *logging.ChanneledLogger) *LiveHandlers {
	return &LiveHandlers{hub: hub, logger: logger}
}

// GetLive upgrades the connection and registers it for the event tail.
func (h *LiveHandlers) GetLive(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Collector().Warn("Websocket upgrade failed", "error", err.Error())
		return
	}

	client := &collector.Client{Conn: conn, Send: make(chan []byte, 64)}
	h.hub.Register(client)

	go h.writePump(client)
	go h.readPump(client)
}

func (h *LiveHandlers) writePump(client *collector.Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		client.Conn.Close()
	}()
	for {
		select {
		case message, ok := <-client.Send:
			client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *LiveHandlers) readPump(client *collector.Client) {
	defer func() {
		h.hub.Unregister(client)
		client.Conn.Close()
	}()
	client.Conn.SetReadLimit(512)
	client.Conn.SetReadDeadline(time.Now().Add(pongWait))
	client.Conn.SetPongHandler(func(string) error {
		client.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := client.Conn.ReadMessage(); err != nil {
			return
		}
	}
}
