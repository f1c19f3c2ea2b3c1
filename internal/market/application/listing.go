package application

import (
	"context"
	"fmt"

	"github.com/agrimandi/procurement-engine/internal/market/domain"
	"github.com/google/uuid"
)

// Listing is the read side of the marketplace: filtered browsing over lots
// and bids. It only ever reads committed state and therefore cannot bypass
// the engine's invariants.
type Listing struct {
	store domain.Store
}

func NewListing(store domain.Store) *Listing {
	return &Listing{store: store}
}

// GetLot returns a single lot.
func (l *Listing) GetLot(ctx context.Context, lotID uuid.UUID) (*domain.Lot, error) {
	return l.store.GetLot(ctx, lotID)
}

// GetLotWithBids returns a lot and, when the requester is the seller, its
// bids. Prospective buyers get the lot only — bid history is the seller's
// business.
func (l *Listing) GetLotWithBids(ctx context.Context, lotID, actorID uuid.UUID) (*domain.Lot, []*domain.Bid, error) {
	lot, err := l.store.GetLot(ctx, lotID)
	if err != nil {
		return nil, nil, fmt.Errorf("get lot: %w", err)
	}
	if lot.SellerID != actorID {
		return lot, nil, nil
	}
	bids, err := l.store.ListBidsByLot(ctx, lotID)
	if err != nil {
		return nil, nil, fmt.Errorf("get lot bids: %w", err)
	}
	return lot, bids, nil
}

// GetBid returns a single bid.
func (l *Listing) GetBid(ctx context.Context, bidID uuid.UUID) (*domain.Bid, error) {
	return l.store.GetBid(ctx, bidID)
}

// ListLots returns lots matching the marketplace filter.
func (l *Listing) ListLots(ctx context.Context, filter domain.LotFilter) ([]*domain.Lot, error) {
	return l.store.ListLots(ctx, filter)
}

// ListBidderBids returns every bid the actor has placed, newest first.
func (l *Listing) ListBidderBids(ctx context.Context, bidderID uuid.UUID) ([]*domain.Bid, error) {
	return l.store.ListBidsByBidder(ctx, bidderID)
}
