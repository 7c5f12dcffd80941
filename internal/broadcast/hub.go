/**
 * WebSocket Broadcast Hub.
 *
 * Fans out alerts to every connected dashboard client over
 * gorilla/websocket, following the same per-client buffered-channel +
 * drop-on-full pattern internal/bus.Bus uses for in-process delivery —
 * a WebSocket client is just a remote subscriber. Grounded in shape on
 * the hub/register/unregister idiom in
 * Generativebots-ocx-backend-go-svc/internal/fabric/hub.go, simplified
 * to plain fan-out (no capability routing, no federation) since the
 * dashboard receives only two JSON-encoded frame types: alerts and
 * auto-response actions.
 *
 * Author: KleaSCM
 * Email: KleaSCM@gmail.com
 */

package broadcast

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kleaSCM/shadowhunter/internal/models"
	"github.com/kleaSCM/shadowhunter/internal/obslog"
)

const (
	clientSendBuffer = 64
	writeWait        = 10 * time.Second
	pongWait         = 60 * time.Second
	pingPeriod       = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// client is one connected dashboard WebSocket session.
type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans JSON-encoded alerts out to every connected dashboard
// client. Publish never blocks the caller: when a client's send buffer
// is full, that message is dropped for that client (and counted), and
// the client stays registered. Clients are removed when their
// connection fails.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]bool
	log     *obslog.Logger

	broadcast uint64
	dropped   uint64
}

// NewHub builds an empty broadcast hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[*client]bool),
		log:     obslog.New("broadcast"),
	}
}

// ServeWS upgrades an HTTP request to a WebSocket connection and
// registers it as a broadcast target until the connection closes.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warnf("websocket upgrade failed: %v", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, clientSendBuffer)}
	h.register(c)

	go h.writePump(c)
	go h.readPump(c)
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = true
	n := len(h.clients)
	h.mu.Unlock()
	h.log.Infof("dashboard client connected (%d total)", n)
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	n := len(h.clients)
	h.mu.Unlock()
	h.log.Infof("dashboard client disconnected (%d remaining)", n)
}

// readPump drains and discards client frames, only to detect
// disconnects and respond to pings/pongs; the dashboard protocol is
// server-to-client only.
func (h *Hub) readPump(c *client) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

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

// envelope tags a broadcast payload with its kind so the dashboard
// frontend can dispatch on message type without a second round trip.
type envelope struct {
	Kind    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// BroadcastAlert fans alert out to every connected client as a
// "alert" envelope.
func (h *Hub) BroadcastAlert(alert *models.Alert) {
	h.publish(envelope{Kind: "alert", Payload: alert})
}

// BroadcastAutoResponse fans an auto-response action out as an
// "auto_response" envelope.
func (h *Hub) BroadcastAutoResponse(response *models.AutoResponse) {
	h.publish(envelope{Kind: "auto_response", Payload: response})
}

func (h *Hub) publish(e envelope) {
	payload, err := json.Marshal(e)
	if err != nil {
		h.log.Errorf("marshal broadcast envelope: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	h.broadcast++

	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			h.dropped++
			h.log.Warnf("dropping broadcast to a slow dashboard client")
		}
	}
}

// ClientCount returns the number of currently connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Stats returns broadcast counters for dashboard display.
func (h *Hub) Stats() (broadcast, dropped uint64) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.broadcast, h.dropped
}
