// Package websocket keeps the client registry for the marketplace live
// feed. Clients subscribe per lot; the notification dispatcher pushes state
// transitions to them. The feed is read-only: every mutation goes through
// the HTTP API and the matching engine, never through a socket.
package websocket

import (
	"context"
	"time"

	"github.com/agrimandi/procurement-engine/internal/shared/logger"
	"github.com/agrimandi/procurement-engine/internal/shared/metrics"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. Clients only speak
	// ping/pong, anything bigger is noise.
	maxMessageSize = 512
)

// Hub keeps the client registry, grouped by lot ID, and fans broadcasts out
// to the right group.
type Hub struct {
	clients    map[string]map[*Client]bool
	broadcast  chan *Message
	register   chan *Client
	unregister chan *Client
}

// Client represents one WebSocket subscription to a lot's feed.
type Client struct {
	Hub   *Hub
	Conn  *websocket.Conn
	Send  chan []byte
	LotID string
	ID    string
}

type Message struct {
	LotID string
	Data  []byte
}

func NewHub() *Hub {
	return &Hub{
		broadcast:  make(chan *Message, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[string]map[*Client]bool),
	}
}

// Run starts the hub loop; it exits when the context is cancelled.
func (h *Hub) Run(ctx context.Context) {
	log.Info("websocket hub started")
	for {
		select {
		case <-ctx.Done():
			log.Info("websocket hub shutting down")
			return

		case client := <-h.register:
			if _, ok := h.clients[client.LotID]; !ok {
				h.clients[client.LotID] = make(map[*Client]bool)
			}
			h.clients[client.LotID][client] = true
			metrics.WebSocketClients.Inc()
			log.Info("feed client registered",
				zap.String("clientID", client.ID),
				zap.String("lotID", client.LotID),
			)

		case client := <-h.unregister:
			if clients, ok := h.clients[client.LotID]; ok {
				if _, ok := clients[client]; ok {
					delete(clients, client)
					close(client.Send)
					metrics.WebSocketClients.Dec()
					if len(clients) == 0 {
						delete(h.clients, client.LotID)
					}
					log.Info("feed client unregistered",
						zap.String("clientID", client.ID),
						zap.String("lotID", client.LotID),
					)
				}
			}

		case message := <-h.broadcast:
			for client := range h.clients[message.LotID] {
				select {
				case client.Send <- message.Data:
				default:
					// client not draining, drop it
					close(client.Send)
					delete(h.clients[message.LotID], client)
					metrics.WebSocketClients.Dec()
					log.Warn("feed client too slow, unregistering",
						zap.String("clientID", client.ID),
						zap.String("lotID", client.LotID),
					)
				}
			}
		}
	}
}

// RegisterClient queues a client for registration.
func (h *Hub) RegisterClient(client *Client) {
	h.register <- client
}

// UnregisterClient queues a client for unregistration.
func (h *Hub) UnregisterClient(client *Client) {
	select {
	case h.unregister <- client:
	default:
		// hub already stopping, nothing to clean up
	}
}

// BroadcastToLot sends data to every client subscribed to lotID. Non-
// blocking: if the broadcast buffer is full the message is dropped, the
// feed is best-effort by contract.
func (h *Hub) BroadcastToLot(lotID string, data []byte) {
	select {
	case h.broadcast <- &Message{LotID: lotID, Data: data}:
	default:
		log.Warn("broadcast channel full, dropping feed message", zap.String("lotID", lotID))
	}
}

// ReadPump drains the connection to keep pong handling alive. Inbound
// payloads are ignored. Runs in its own goroutine per client.
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.Hub.UnregisterClient(c)
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("websocket read error",
					zap.String("clientID", c.ID),
					zap.Error(err),
				)
			}
			return
		}
	}
}

// WritePump pumps messages from the hub to the connection. One writer
// goroutine per connection.
func (c *Client) WritePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Hub.UnregisterClient(c)
		c.Conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			_ = c.Conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return

		case data, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
