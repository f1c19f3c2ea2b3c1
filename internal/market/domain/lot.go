package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LotStatus represents the lifecycle state of a procurement lot.
type LotStatus string

const (
	LotDraft     LotStatus = "draft"
	LotOpen      LotStatus = "open"
	LotSold      LotStatus = "sold"
	LotExpired   LotStatus = "expired"
	LotWithdrawn LotStatus = "withdrawn"
)

// ValidLotStatus reports whether s is a known lot status.
func ValidLotStatus(s LotStatus) bool {
	switch s {
	case LotDraft, LotOpen, LotSold, LotExpired, LotWithdrawn:
		return true
	default:
		return false
	}
}

// Terminal reports whether the status admits no further transitions.
func (s LotStatus) Terminal() bool {
	return s == LotSold || s == LotExpired || s == LotWithdrawn
}

// Lot is a seller's listed quantity of a crop offered for procurement. It is
// the aggregate root: every bid references a lot, and a lot is never deleted
// once a bid exists against it (withdrawal is a status change).
//
// Quantity and BasePrice are immutable once the lot leaves draft. All status
// transitions go through the matching engine, backed by conditional updates
// in the store; the struct itself carries no locking.
type Lot struct {
	ID        uuid.UUID
	SellerID  uuid.UUID
	CropType  string
	Variety   string
	Quantity  decimal.Decimal
	Unit      string
	BasePrice decimal.Decimal
	Expiry    *time.Time
	Status    LotStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewLot validates the listing attributes and returns a lot in draft or open
// status. Validation failures wrap ErrValidation.
func NewLot(sellerID uuid.UUID, cropType, variety string, quantity decimal.Decimal, unit string, basePrice decimal.Decimal, expiry *time.Time, publish bool, now time.Time) (*Lot, error) {
	if sellerID == uuid.Nil {
		return nil, fmt.Errorf("%w: seller id is required", ErrValidation)
	}
	if strings.TrimSpace(cropType) == "" {
		return nil, fmt.Errorf("%w: crop type is required", ErrValidation)
	}
	if strings.TrimSpace(unit) == "" {
		return nil, fmt.Errorf("%w: quantity unit is required", ErrValidation)
	}
	if !quantity.IsPositive() {
		return nil, fmt.Errorf("%w: quantity must be positive, got %s", ErrValidation, quantity)
	}
	if !basePrice.IsPositive() {
		return nil, fmt.Errorf("%w: base price must be positive, got %s", ErrValidation, basePrice)
	}
	if expiry != nil && !expiry.After(now) {
		return nil, fmt.Errorf("%w: expiry must be in the future", ErrValidation)
	}

	status := LotDraft
	if publish {
		status = LotOpen
	}
	return &Lot{
		ID:        uuid.New(),
		SellerID:  sellerID,
		CropType:  cropType,
		Variety:   variety,
		Quantity:  quantity,
		Unit:      unit,
		BasePrice: basePrice,
		Expiry:    expiry,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// IsOpen reports whether the lot currently accepts bids (expiry aside).
func (l *Lot) IsOpen() bool {
	return l.Status == LotOpen
}

// ExpiredAt reports whether the lot's expiry deadline has passed at the
// given instant. Only meaningful for open lots; the store is the authority
// for the actual transition.
func (l *Lot) ExpiredAt(now time.Time) bool {
	return l.Expiry != nil && !l.Expiry.After(now)
}
