package application

import (
	"context"
	"time"

	"github.com/agrimandi/procurement-engine/internal/market/domain"
	"github.com/agrimandi/procurement-engine/internal/shared/logger"
	"github.com/agrimandi/procurement-engine/internal/shared/metrics"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

// Engine is the matching engine: the sole writer of status transitions on
// lots and bids. It holds no mutable state of its own; every transition is a
// conditional transaction in the store, so concurrent requests serialize on
// the committed row state rather than on anything in this process.
type Engine struct {
	store      domain.Store
	dispatcher domain.Dispatcher
	now        func() time.Time
}

// NewEngine creates a matching engine on top of a store and a notification
// dispatcher.
func NewEngine(store domain.Store, dispatcher domain.Dispatcher) *Engine {
	return NewEngineWithClock(store, dispatcher, time.Now)
}

// NewEngineWithClock is NewEngine with an injectable clock, used by tests to
// drive expiry without sleeping.
func NewEngineWithClock(store domain.Store, dispatcher domain.Dispatcher, now func() time.Time) *Engine {
	return &Engine{store: store, dispatcher: dispatcher, now: now}
}

// dispatch sends a post-commit event. Best-effort: failures to notify never
// affect the already-committed transition.
func (e *Engine) dispatch(ctx context.Context, t domain.EventType, lot *domain.Lot, bid *domain.Bid) {
	if e.dispatcher == nil {
		return
	}
	e.dispatcher.Dispatch(ctx, domain.Event{Type: t, Lot: lot, Bid: bid, At: e.now()})
}

// expireNow opportunistically resolves an open lot whose deadline has
// passed. Losing the race to another resolution is fine; the lot ended up
// non-open either way.
func (e *Engine) expireNow(ctx context.Context, lot *domain.Lot) {
	err := e.store.ResolveLot(ctx, lot.ID, domain.LotExpired)
	switch {
	case err == nil:
		metrics.LotsResolved.WithLabelValues(string(domain.LotExpired)).Inc()
		expired := *lot
		expired.Status = domain.LotExpired
		e.dispatch(ctx, domain.EventLotExpired, &expired, nil)
		log.Info("lot expired opportunistically", zap.String("lotID", lot.ID.String()))
	case isConflict(err):
		// somebody else resolved it first
	default:
		log.Warn("opportunistic expiry failed",
			zap.String("lotID", lot.ID.String()),
			zap.Error(err),
		)
	}
}
