package application

import (
	"context"
	"fmt"

	"github.com/agrimandi/procurement-engine/internal/market/domain"
	"github.com/agrimandi/procurement-engine/internal/shared/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RejectBid rejects a single pending bid without resolving the lot. The lot
// stays open and other pending bids are untouched. Only the lot's seller may
// reject.
func (e *Engine) RejectBid(ctx context.Context, lotID, bidID, actorID uuid.UUID) (*domain.Bid, error) {
	lot, err := e.store.GetLot(ctx, lotID)
	if err != nil {
		return nil, fmt.Errorf("reject bid: %w", err)
	}
	if lot.SellerID != actorID {
		return nil, fmt.Errorf("reject bid: actor %s is not the seller of lot %s: %w", actorID, lotID, domain.ErrUnauthorized)
	}

	bid, err := e.store.GetBid(ctx, bidID)
	if err != nil {
		return nil, fmt.Errorf("reject bid: %w", err)
	}
	if bid.LotID != lotID {
		return nil, fmt.Errorf("reject bid: bid %s belongs to another lot: %w", bidID, domain.ErrBidNotPending)
	}
	if bid.Status != domain.BidPending {
		return nil, fmt.Errorf("reject bid: bid %s is %s: %w", bidID, bid.Status, domain.ErrBidNotPending)
	}

	if err := e.store.UpdateBidStatus(ctx, bidID, domain.BidPending, domain.BidRejected); err != nil {
		if isConflict(err) {
			return nil, fmt.Errorf("reject bid: bid %s: %w", bidID, domain.ErrBidNotPending)
		}
		return nil, fmt.Errorf("reject bid: %w", err)
	}

	bid.Status = domain.BidRejected
	metrics.BidsResolved.WithLabelValues(string(domain.BidRejected)).Inc()
	log.Info("bid rejected by seller",
		zap.String("lotID", lotID.String()),
		zap.String("bidID", bidID.String()),
	)
	e.dispatch(ctx, domain.EventBidRejected, lot, bid)
	return bid, nil
}
