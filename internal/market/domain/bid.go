package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BidStatus represents the lifecycle state of a bid. All states other than
// pending are terminal.
type BidStatus string

const (
	BidPending   BidStatus = "pending"
	BidAccepted  BidStatus = "accepted"
	BidRejected  BidStatus = "rejected"
	BidWithdrawn BidStatus = "withdrawn"
)

// ValidBidStatus reports whether s is a known bid status.
func ValidBidStatus(s BidStatus) bool {
	switch s {
	case BidPending, BidAccepted, BidRejected, BidWithdrawn:
		return true
	default:
		return false
	}
}

// Terminal reports whether the status admits no further transitions.
func (s BidStatus) Terminal() bool {
	return s != BidPending
}

// Bid is a buyer's offer to purchase a specific lot at a stated amount.
// LotID is a back-reference used for lookup only; the lot owns the
// consistency boundary.
type Bid struct {
	ID        uuid.UUID
	LotID     uuid.UUID
	BidderID  uuid.UUID
	Amount    decimal.Decimal
	Status    BidStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewBid validates the offer and returns a pending bid. Whether the lot is
// actually open is decided by the store inside the insert transaction.
func NewBid(lotID, bidderID uuid.UUID, amount decimal.Decimal, now time.Time) (*Bid, error) {
	if bidderID == uuid.Nil {
		return nil, fmt.Errorf("%w: bidder id is required", ErrValidation)
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: bid amount must be positive, got %s", ErrValidation, amount)
	}
	return &Bid{
		ID:        uuid.New(),
		LotID:     lotID,
		BidderID:  bidderID,
		Amount:    amount,
		Status:    BidPending,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}
