// Package notify holds the notification dispatcher implementations. Actual
// delivery (SMS, push) is handled by adjacent services; this engine only
// emits the events. The logging dispatcher stands in for those services.
package notify

import (
	"context"

	"github.com/agrimandi/procurement-engine/internal/market/domain"
	"github.com/agrimandi/procurement-engine/internal/shared/logger"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

// LogDispatcher logs every event with enough context for the downstream
// notification service to route it: the seller for new bids, the bidders
// for resolutions.
type LogDispatcher struct{}

func NewLogDispatcher() *LogDispatcher {
	return &LogDispatcher{}
}

func (d *LogDispatcher) Dispatch(_ context.Context, ev domain.Event) {
	fields := []zap.Field{
		zap.String("event", string(ev.Type)),
		zap.Time("at", ev.At),
	}
	if ev.Lot != nil {
		fields = append(fields,
			zap.String("lotID", ev.Lot.ID.String()),
			zap.String("lotStatus", string(ev.Lot.Status)),
			zap.String("sellerID", ev.Lot.SellerID.String()),
		)
	}
	if ev.Bid != nil {
		fields = append(fields,
			zap.String("bidID", ev.Bid.ID.String()),
			zap.String("bidStatus", string(ev.Bid.Status)),
			zap.String("bidderID", ev.Bid.BidderID.String()),
			zap.String("amount", ev.Bid.Amount.String()),
		)
	}
	log.Info("notification dispatched", fields...)
}

// Multi fans one event out to several dispatchers.
type Multi struct {
	dispatchers []domain.Dispatcher
}

func NewMulti(dispatchers ...domain.Dispatcher) *Multi {
	return &Multi{dispatchers: dispatchers}
}

func (m *Multi) Dispatch(ctx context.Context, ev domain.Event) {
	for _, d := range m.dispatchers {
		d.Dispatch(ctx, ev)
	}
}

// Nop discards events. Used in tests that don't care about notifications.
type Nop struct{}

func (Nop) Dispatch(context.Context, domain.Event) {}
