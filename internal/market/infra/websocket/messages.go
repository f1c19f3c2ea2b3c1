package websocket

import (
	"time"

	"github.com/google/uuid"
)

// MessageType identifies outbound feed messages. The feed has no client
// message types; sockets are receive-only.
type MessageType string

const (
	MessageTypeInitialState MessageType = "initial_state"
	MessageTypeLotEvent     MessageType = "lot_event"
	MessageTypeError        MessageType = "server_error"
)

type BaseMessage struct {
	Type MessageType `json:"type"`
}

// InitialStateMessage is sent once on connect so the client can render the
// lot before any event arrives.
type InitialStateMessage struct {
	BaseMessage
	Payload struct {
		LotID     uuid.UUID  `json:"lot_id"`
		CropType  string     `json:"crop_type"`
		Variety   string     `json:"variety,omitempty"`
		Quantity  string     `json:"quantity"`
		Unit      string     `json:"unit"`
		BasePrice string     `json:"base_price"`
		Status    string     `json:"status"`
		Expiry    *time.Time `json:"expiry,omitempty"`
	} `json:"payload"`
}

// LotEventMessage mirrors a committed engine transition on the lot's feed.
type LotEventMessage struct {
	BaseMessage
	Payload struct {
		Event     string     `json:"event"`
		LotID     uuid.UUID  `json:"lot_id"`
		LotStatus string     `json:"lot_status,omitempty"`
		BidID     *uuid.UUID `json:"bid_id,omitempty"`
		BidStatus string     `json:"bid_status,omitempty"`
		Amount    string     `json:"amount,omitempty"`
		At        time.Time  `json:"at"`
	} `json:"payload"`
}

type ErrorMessage struct {
	BaseMessage
	Payload struct {
		Error string `json:"error"`
	} `json:"payload"`
}
