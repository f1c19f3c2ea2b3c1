package http

import (
	"time"

	"github.com/agrimandi/procurement-engine/internal/market/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateLotRequest is the listing payload. Quantity and base price accept
// JSON numbers or strings; decimal keeps them exact either way.
type CreateLotRequest struct {
	CropType  string          `json:"crop_type" validate:"required"`
	Variety   string          `json:"variety"`
	Quantity  decimal.Decimal `json:"quantity" validate:"required"`
	Unit      string          `json:"unit" validate:"required"`
	BasePrice decimal.Decimal `json:"base_price" validate:"required"`
	Expiry    *time.Time      `json:"expiry,omitempty"`
	Publish   *bool           `json:"publish,omitempty"` // default true: list immediately
}

type PlaceBidRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"required"`
}

type RegisterUserRequest struct {
	Name string `json:"name" validate:"required"`
	Role string `json:"role" validate:"required"`
}

type LotResponse struct {
	ID        uuid.UUID       `json:"id"`
	SellerID  uuid.UUID       `json:"seller_id"`
	CropType  string          `json:"crop_type"`
	Variety   string          `json:"variety,omitempty"`
	Quantity  decimal.Decimal `json:"quantity"`
	Unit      string          `json:"unit"`
	BasePrice decimal.Decimal `json:"base_price"`
	Expiry    *time.Time      `json:"expiry,omitempty"`
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type BidResponse struct {
	ID        uuid.UUID       `json:"id"`
	LotID     uuid.UUID       `json:"lot_id"`
	BidderID  uuid.UUID       `json:"bidder_id"`
	Amount    decimal.Decimal `json:"amount"`
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// LotDetailResponse carries the lot plus its bids when the requester is the
// seller; for everyone else Bids stays empty.
type LotDetailResponse struct {
	Lot  LotResponse   `json:"lot"`
	Bids []BidResponse `json:"bids,omitempty"`
}

type AcceptBidResponse struct {
	Lot LotResponse `json:"lot"`
	Bid BidResponse `json:"bid"`
}

func toLotResponse(lot *domain.Lot) LotResponse {
	return LotResponse{
		ID:        lot.ID,
		SellerID:  lot.SellerID,
		CropType:  lot.CropType,
		Variety:   lot.Variety,
		Quantity:  lot.Quantity,
		Unit:      lot.Unit,
		BasePrice: lot.BasePrice,
		Expiry:    lot.Expiry,
		Status:    string(lot.Status),
		CreatedAt: lot.CreatedAt,
		UpdatedAt: lot.UpdatedAt,
	}
}

func toBidResponse(bid *domain.Bid) BidResponse {
	return BidResponse{
		ID:        bid.ID,
		LotID:     bid.LotID,
		BidderID:  bid.BidderID,
		Amount:    bid.Amount,
		Status:    string(bid.Status),
		CreatedAt: bid.CreatedAt,
		UpdatedAt: bid.UpdatedAt,
	}
}

func toLotResponses(lots []*domain.Lot) []LotResponse {
	out := make([]LotResponse, 0, len(lots))
	for _, lot := range lots {
		out = append(out, toLotResponse(lot))
	}
	return out
}

func toBidResponses(bids []*domain.Bid) []BidResponse {
	out := make([]BidResponse, 0, len(bids))
	for _, bid := range bids {
		out = append(out, toBidResponse(bid))
	}
	return out
}
