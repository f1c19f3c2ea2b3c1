package websocket

import (
	"context"
	"encoding/json"

	"github.com/agrimandi/procurement-engine/internal/market/domain"
	"github.com/agrimandi/procurement-engine/internal/shared/logger"
	sharedws "github.com/agrimandi/procurement-engine/internal/shared/websocket"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

// HubBroadcaster implements domain.Dispatcher by pushing every committed
// transition onto the lot's live feed.
type HubBroadcaster struct {
	hub *sharedws.Hub
}

func NewHubBroadcaster(hub *sharedws.Hub) *HubBroadcaster {
	return &HubBroadcaster{hub: hub}
}

func (b *HubBroadcaster) Dispatch(_ context.Context, ev domain.Event) {
	if ev.Lot == nil && ev.Bid == nil {
		return
	}

	msg := LotEventMessage{BaseMessage: BaseMessage{Type: MessageTypeLotEvent}}
	msg.Payload.Event = string(ev.Type)
	msg.Payload.At = ev.At
	if ev.Lot != nil {
		msg.Payload.LotID = ev.Lot.ID
		msg.Payload.LotStatus = string(ev.Lot.Status)
	}
	if ev.Bid != nil {
		msg.Payload.LotID = ev.Bid.LotID
		id := ev.Bid.ID
		msg.Payload.BidID = &id
		msg.Payload.BidStatus = string(ev.Bid.Status)
		msg.Payload.Amount = ev.Bid.Amount.String()
	}

	data, err := json.Marshal(msg)
	if err != nil {
		log.Error("failed to marshal feed event", zap.Error(err))
		return
	}
	b.hub.BroadcastToLot(msg.Payload.LotID.String(), data)
}
