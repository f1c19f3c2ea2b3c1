package application

import (
	"context"
	"time"

	"github.com/agrimandi/procurement-engine/internal/market/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MarketService is the application interface of the market module: the
// surface the transport layers (HTTP, WebSocket feed) program against.
type MarketService interface {
	CreateLot(ctx context.Context, cmd CreateLotCmd) (*domain.Lot, error)
	PublishLot(ctx context.Context, lotID, actorID uuid.UUID) (*domain.Lot, error)
	PlaceBid(ctx context.Context, lotID, bidderID uuid.UUID, amount decimal.Decimal) (*domain.Bid, error)
	AcceptBid(ctx context.Context, lotID, bidID, actorID uuid.UUID) (*domain.Lot, *domain.Bid, error)
	RejectBid(ctx context.Context, lotID, bidID, actorID uuid.UUID) (*domain.Bid, error)
	WithdrawBid(ctx context.Context, bidID, actorID uuid.UUID) (*domain.Bid, error)
	WithdrawLot(ctx context.Context, lotID, actorID uuid.UUID) (*domain.Lot, error)
	SweepExpiredLots(ctx context.Context, now time.Time) (int, error)

	GetLotWithBids(ctx context.Context, lotID, actorID uuid.UUID) (*domain.Lot, []*domain.Bid, error)
	GetBid(ctx context.Context, bidID uuid.UUID) (*domain.Bid, error)
	ListLots(ctx context.Context, filter domain.LotFilter) ([]*domain.Lot, error)
	ListBidderBids(ctx context.Context, bidderID uuid.UUID) ([]*domain.Bid, error)
}

type marketService struct {
	*Engine
	*Listing
}

// NewMarketService combines the matching engine and the listing read side
// into one service.
func NewMarketService(engine *Engine, listing *Listing) MarketService {
	return &marketService{Engine: engine, Listing: listing}
}
