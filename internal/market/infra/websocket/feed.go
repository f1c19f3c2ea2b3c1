package websocket

import (
	"context"
	"encoding/json"

	"github.com/agrimandi/procurement-engine/internal/market/application"
	sharedws "github.com/agrimandi/procurement-engine/internal/shared/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// FeedHandler upgrades connections on /ws/lots/:id and subscribes them to
// the lot's live feed.
type FeedHandler struct {
	listing *application.Listing
	hub     *sharedws.Hub
}

func NewFeedHandler(listing *application.Listing, hub *sharedws.Hub) *FeedHandler {
	return &FeedHandler{listing: listing, hub: hub}
}

// Upgrade is the pre-upgrade middleware: reject plain HTTP on the ws route.
func (h *FeedHandler) Upgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// Serve handles one feed connection for its whole lifetime.
func (h *FeedHandler) Serve(ctx context.Context) fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		lotID, err := uuid.Parse(conn.Params("id"))
		if err != nil {
			h.sendError(conn, "invalid lot id")
			_ = conn.Close()
			return
		}

		lot, err := h.listing.GetLot(ctx, lotID)
		if err != nil {
			h.sendError(conn, "lot not found")
			_ = conn.Close()
			return
		}

		client := &sharedws.Client{
			Hub:   h.hub,
			Conn:  conn,
			Send:  make(chan []byte, 16),
			LotID: lotID.String(),
			ID:    uuid.NewString(),
		}
		h.hub.RegisterClient(client)

		initial := InitialStateMessage{BaseMessage: BaseMessage{Type: MessageTypeInitialState}}
		initial.Payload.LotID = lot.ID
		initial.Payload.CropType = lot.CropType
		initial.Payload.Variety = lot.Variety
		initial.Payload.Quantity = lot.Quantity.String()
		initial.Payload.Unit = lot.Unit
		initial.Payload.BasePrice = lot.BasePrice.String()
		initial.Payload.Status = string(lot.Status)
		initial.Payload.Expiry = lot.Expiry
		if data, err := json.Marshal(initial); err == nil {
			client.Send <- data
		}

		// the handler goroutine becomes the writer; reads run alongside
		go client.ReadPump(ctx)
		client.WritePump(ctx)
	})
}

func (h *FeedHandler) sendError(conn *websocket.Conn, message string) {
	msg := ErrorMessage{BaseMessage: BaseMessage{Type: MessageTypeError}}
	msg.Payload.Error = message
	data, err := json.Marshal(msg)
	if err != nil {
		log.Error("failed to marshal ws error", zap.Error(err))
		return
	}
	_ = conn.WriteMessage(websocket.TextMessage, data)
}
