package application

import (
	"context"
	"fmt"

	"github.com/agrimandi/procurement-engine/internal/market/domain"
	"github.com/agrimandi/procurement-engine/internal/shared/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// WithdrawBid lets a bidder pull a bid that is still pending. When the bid
// has already transitioned — say it was accepted a moment ago — the
// withdrawal fails with ErrAlreadyResolved rather than silently succeeding.
func (e *Engine) WithdrawBid(ctx context.Context, bidID, actorID uuid.UUID) (*domain.Bid, error) {
	bid, err := e.store.GetBid(ctx, bidID)
	if err != nil {
		return nil, fmt.Errorf("withdraw bid: %w", err)
	}
	if bid.BidderID != actorID {
		return nil, fmt.Errorf("withdraw bid: actor %s is not the bidder of %s: %w", actorID, bidID, domain.ErrUnauthorized)
	}
	if bid.Status != domain.BidPending {
		return nil, fmt.Errorf("withdraw bid: bid %s is %s: %w", bidID, bid.Status, domain.ErrAlreadyResolved)
	}

	if err := e.store.UpdateBidStatus(ctx, bidID, domain.BidPending, domain.BidWithdrawn); err != nil {
		if isConflict(err) {
			// lost the race against an accept/reject
			return nil, fmt.Errorf("withdraw bid: bid %s: %w", bidID, domain.ErrAlreadyResolved)
		}
		return nil, fmt.Errorf("withdraw bid: %w", err)
	}

	bid.Status = domain.BidWithdrawn
	metrics.BidsResolved.WithLabelValues(string(domain.BidWithdrawn)).Inc()
	log.Info("bid withdrawn",
		zap.String("bidID", bidID.String()),
		zap.String("lotID", bid.LotID.String()),
	)
	e.dispatch(ctx, domain.EventBidWithdrawn, nil, bid)
	return bid, nil
}

// WithdrawLot lets the seller delist an open lot. Pending bids are
// cascade-rejected in the same store transaction, so the invariant "no
// pending bids on a non-open lot" stays true at every instant instead of
// eventually. A lot that already left open fails with ErrAlreadyResolved.
func (e *Engine) WithdrawLot(ctx context.Context, lotID, actorID uuid.UUID) (*domain.Lot, error) {
	lot, err := e.store.GetLot(ctx, lotID)
	if err != nil {
		return nil, fmt.Errorf("withdraw lot: %w", err)
	}
	if lot.SellerID != actorID {
		return nil, fmt.Errorf("withdraw lot: actor %s is not the seller of %s: %w", actorID, lotID, domain.ErrUnauthorized)
	}
	if !lot.IsOpen() {
		return nil, fmt.Errorf("withdraw lot: lot %s is %s: %w", lotID, lot.Status, domain.ErrAlreadyResolved)
	}

	// snapshot for notifications; the cascade happens inside ResolveLot
	bids, err := e.store.ListBidsByLot(ctx, lotID)
	if err != nil {
		return nil, fmt.Errorf("withdraw lot: %w", err)
	}

	if err := e.store.ResolveLot(ctx, lotID, domain.LotWithdrawn); err != nil {
		if isConflict(err) {
			return nil, fmt.Errorf("withdraw lot: lot %s: %w", lotID, domain.ErrAlreadyResolved)
		}
		return nil, fmt.Errorf("withdraw lot: %w", err)
	}

	lot.Status = domain.LotWithdrawn
	metrics.LotsResolved.WithLabelValues(string(domain.LotWithdrawn)).Inc()
	e.dispatch(ctx, domain.EventLotWithdrawn, lot, nil)
	cascaded := 0
	for _, b := range bids {
		if b.Status != domain.BidPending {
			continue
		}
		b.Status = domain.BidRejected
		cascaded++
		metrics.BidsResolved.WithLabelValues(string(domain.BidRejected)).Inc()
		e.dispatch(ctx, domain.EventBidRejected, lot, b)
	}

	log.Info("lot withdrawn",
		zap.String("lotID", lotID.String()),
		zap.Int("cascadedBids", cascaded),
	)
	return lot, nil
}
