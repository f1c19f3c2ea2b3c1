package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/agrimandi/procurement-engine/internal/market/domain"
	"github.com/agrimandi/procurement-engine/internal/shared/metrics"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PlaceBid submits a pending bid against an open lot and notifies the
// seller.
//
// The open check observed here is only advisory: the store re-checks the
// lot's status inside the same transaction that inserts the bid, so a bid
// can never land on a lot that just became sold, expired or withdrawn. An
// expired lot is never silently treated as open — when the deadline has
// passed the engine transitions the lot to expired before failing the bid.
func (e *Engine) PlaceBid(ctx context.Context, lotID, bidderID uuid.UUID, amount decimal.Decimal) (*domain.Bid, error) {
	now := e.now()
	bid, err := domain.NewBid(lotID, bidderID, amount, now)
	if err != nil {
		return nil, fmt.Errorf("place bid: %w", err)
	}

	lot, err := e.store.GetLot(ctx, lotID)
	if err != nil {
		return nil, fmt.Errorf("place bid: %w", err)
	}
	if lot.IsOpen() && lot.ExpiredAt(now) {
		e.expireNow(ctx, lot)
		return nil, fmt.Errorf("place bid: lot %s expired: %w", lotID, domain.ErrLotNotOpen)
	}
	if !lot.IsOpen() {
		return nil, fmt.Errorf("place bid: lot %s is %s: %w", lotID, lot.Status, domain.ErrLotNotOpen)
	}

	if err := e.store.InsertBid(ctx, bid); err != nil {
		if errors.Is(err, domain.ErrLotNotOpen) {
			// lost a race with accept/withdraw/expiry, or crossed the expiry
			// deadline between the read above and the insert
			if cur, gerr := e.store.GetLot(ctx, lotID); gerr == nil && cur.IsOpen() && cur.ExpiredAt(now) {
				e.expireNow(ctx, cur)
			}
			log.Warn("bid rejected, lot no longer open",
				zap.String("lotID", lotID.String()),
				zap.String("bidderID", bidderID.String()),
			)
		}
		return nil, fmt.Errorf("place bid: %w", err)
	}

	metrics.BidsPlaced.Inc()
	log.Info("bid placed",
		zap.String("bidID", bid.ID.String()),
		zap.String("lotID", lotID.String()),
		zap.String("bidderID", bidderID.String()),
		zap.String("amount", amount.String()),
	)
	e.dispatch(ctx, domain.EventBidPlaced, lot, bid)
	return bid, nil
}
