package domain

import (
	"context"
	"time"
)

// EventType identifies a marketplace state transition worth telling
// somebody about.
type EventType string

const (
	EventBidPlaced    EventType = "bid_placed"
	EventBidAccepted  EventType = "bid_accepted"
	EventBidRejected  EventType = "bid_rejected"
	EventBidWithdrawn EventType = "bid_withdrawn"
	EventLotSold      EventType = "lot_sold"
	EventLotExpired   EventType = "lot_expired"
	EventLotWithdrawn EventType = "lot_withdrawn"
)

// Event carries the entities involved in a transition. Bid is nil for
// lot-level events that have no single bid attached.
type Event struct {
	Type EventType
	Lot  *Lot
	Bid  *Bid
	At   time.Time
}

// Dispatcher is informed of committed transitions so farmers and buyers can
// be notified. Delivery is best-effort and happens after the transaction;
// implementations must not block the engine for long.
type Dispatcher interface {
	Dispatch(ctx context.Context, ev Event)
}
