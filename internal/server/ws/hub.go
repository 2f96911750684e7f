// Package ws provides the WebSocket hub that pushes fresh market prices to
// live dashboard listeners after each sync run.
package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dondie52/agriconnect/internal/domain"
)

const (
	// writeWait is the maximum time to wait for a write to complete.
	writeWait = 10 * time.Second

	// pongWait is the maximum time to wait for a pong from the client.
	pongWait = 60 * time.Second

	// pingPeriod sends pings at this interval. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// sendBufferSize is the channel buffer for outgoing messages per client.
	sendBufferSize = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// CORS is enforced at the middleware layer; the hub accepts any
		// origin that got that far.
		return true
	},
}

// client is a single connected listener with its own outgoing queue.
type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub tracks connected WebSocket clients and fans price-update frames out to
// all of them. It implements domain.Broadcaster; delivery is best-effort and
// a slow client is dropped rather than blocking the sync path.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
	logger  *slog.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*client]struct{}),
		logger:  logger.With(slog.String("component", "ws_hub")),
	}
}

// HandleWS upgrades the request to a WebSocket connection and registers the
// client until it disconnects.
// GET /ws
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WarnContext(r.Context(), "websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBufferSize)}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	count := len(h.clients)
	h.mu.Unlock()

	h.logger.InfoContext(r.Context(), "websocket client connected", slog.Int("clients", count))

	go h.writePump(c)
	go h.readPump(c)
}

// BroadcastPrices sends a price_update frame to every connected client.
func (h *Hub) BroadcastPrices(ctx context.Context, prices []domain.PriceWithNames, stats domain.SyncStats) error {
	type priceFrame struct {
		CropID   int64  `json:"crop_id"`
		RegionID int64  `json:"region_id"`
		Crop     string `json:"crop"`
		Region   string `json:"region"`
		Price    string `json:"price"`
		Unit     string `json:"unit"`
	}

	frames := make([]priceFrame, 0, len(prices))
	for _, p := range prices {
		frames = append(frames, priceFrame{
			CropID:   p.CropID,
			RegionID: p.RegionID,
			Crop:     p.CropName,
			Region:   p.RegionName,
			Price:    p.Price.Price.StringFixed(2),
			Unit:     p.Unit,
		})
	}

	msg, err := json.Marshal(map[string]any{
		"type":       "price_update",
		"prices":     frames,
		"sync_stats": stats,
	})
	if err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			// Queue full: the client is too slow, drop the frame.
			h.logger.DebugContext(ctx, "dropped frame for slow websocket client")
		}
	}
	return nil
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// readPump drains incoming messages (the hub is broadcast-only) and keeps
// the pong deadline fresh.
func (h *Hub) readPump(c *client) {
	defer func() {
		h.remove(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(1024)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump forwards queued frames to the connection and pings on a ticker.
func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

var _ domain.Broadcaster = (*Hub)(nil)
