package application

import (
	"context"
	"fmt"

	"github.com/agrimandi/procurement-engine/internal/market/domain"
	"github.com/agrimandi/procurement-engine/internal/shared/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AcceptBid resolves a lot in favour of one bid: the target bid becomes
// accepted, every other pending bid on the lot becomes rejected, and the lot
// becomes sold — all in one store transaction. Only the lot's seller may
// accept, and only while the lot is open.
//
// The precondition checks on the loaded entities are advisory; the store
// transaction re-evaluates lot and bid status, so when two accepts race for
// the same lot exactly one commits and the other surfaces ErrLotNotOpen or
// ErrBidNotPending.
func (e *Engine) AcceptBid(ctx context.Context, lotID, bidID, actorID uuid.UUID) (*domain.Lot, *domain.Bid, error) {
	now := e.now()

	lot, err := e.store.GetLot(ctx, lotID)
	if err != nil {
		return nil, nil, fmt.Errorf("accept bid: %w", err)
	}
	if lot.SellerID != actorID {
		return nil, nil, fmt.Errorf("accept bid: actor %s is not the seller of lot %s: %w", actorID, lotID, domain.ErrUnauthorized)
	}
	if !lot.IsOpen() {
		return nil, nil, fmt.Errorf("accept bid: lot %s is %s: %w", lotID, lot.Status, domain.ErrLotNotOpen)
	}
	if lot.ExpiredAt(now) {
		e.expireNow(ctx, lot)
		return nil, nil, fmt.Errorf("accept bid: lot %s expired: %w", lotID, domain.ErrLotNotOpen)
	}

	bid, err := e.store.GetBid(ctx, bidID)
	if err != nil {
		return nil, nil, fmt.Errorf("accept bid: %w", err)
	}
	if bid.LotID != lotID {
		return nil, nil, fmt.Errorf("accept bid: bid %s belongs to another lot: %w", bidID, domain.ErrBidNotPending)
	}
	if bid.Status != domain.BidPending {
		return nil, nil, fmt.Errorf("accept bid: bid %s is %s: %w", bidID, bid.Status, domain.ErrBidNotPending)
	}

	// snapshot of the competition, for notifications only; the cascade
	// itself happens inside the store transaction
	competing, err := e.store.ListBidsByLot(ctx, lotID)
	if err != nil {
		return nil, nil, fmt.Errorf("accept bid: %w", err)
	}

	if err := e.store.AcceptBid(ctx, lotID, bidID); err != nil {
		log.Warn("accept bid failed",
			zap.String("lotID", lotID.String()),
			zap.String("bidID", bidID.String()),
			zap.Error(err),
		)
		return nil, nil, fmt.Errorf("accept bid: %w", err)
	}

	lot.Status = domain.LotSold
	bid.Status = domain.BidAccepted
	rejected := 0

	metrics.LotsResolved.WithLabelValues(string(domain.LotSold)).Inc()
	metrics.BidsResolved.WithLabelValues(string(domain.BidAccepted)).Inc()

	e.dispatch(ctx, domain.EventLotSold, lot, bid)
	e.dispatch(ctx, domain.EventBidAccepted, lot, bid)
	for _, other := range competing {
		if other.ID == bidID || other.Status != domain.BidPending {
			continue
		}
		other.Status = domain.BidRejected
		rejected++
		metrics.BidsResolved.WithLabelValues(string(domain.BidRejected)).Inc()
		e.dispatch(ctx, domain.EventBidRejected, lot, other)
	}

	log.Info("bid accepted, lot sold",
		zap.String("lotID", lotID.String()),
		zap.String("bidID", bidID.String()),
		zap.String("amount", bid.Amount.String()),
		zap.Int("rejectedBids", rejected),
	)
	return lot, bid, nil
}
