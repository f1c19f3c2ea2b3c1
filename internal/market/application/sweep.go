package application

import (
	"context"
	"time"

	"github.com/agrimandi/procurement-engine/internal/market/domain"
	"github.com/agrimandi/procurement-engine/internal/shared/metrics"
	"go.uber.org/zap"
)

// SweepExpiredLots transitions every open lot whose expiry has passed to
// expired, cascade-rejecting its pending bids. Each lot is resolved in its
// own transaction: one lot failing never aborts the rest, and a lot that
// was resolved concurrently is simply skipped. Re-running the sweep with no
// intervening changes is a no-op.
func (e *Engine) SweepExpiredLots(ctx context.Context, now time.Time) (int, error) {
	metrics.SweepRuns.Inc()

	ids, err := e.store.ListExpiredOpenLots(ctx, now)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, id := range ids {
		if err := e.store.ResolveLot(ctx, id, domain.LotExpired); err != nil {
			if isConflict(err) {
				continue // resolved by someone else between listing and here
			}
			log.Error("sweep: failed to expire lot",
				zap.String("lotID", id.String()),
				zap.Error(err),
			)
			continue
		}
		count++
		metrics.SweepExpirations.Inc()
		metrics.LotsResolved.WithLabelValues(string(domain.LotExpired)).Inc()
		if lot, gerr := e.store.GetLot(ctx, id); gerr == nil {
			e.dispatch(ctx, domain.EventLotExpired, lot, nil)
		}
	}

	if count > 0 {
		log.Info("expiry sweep finished", zap.Int("expiredLots", count))
	}
	return count, nil
}

// Sweeper runs SweepExpiredLots on a fixed interval until the context is
// cancelled. Errors are logged and retried on the next tick.
type Sweeper struct {
	engine   *Engine
	interval time.Duration
}

func NewSweeper(engine *Engine, interval time.Duration) *Sweeper {
	return &Sweeper{engine: engine, interval: interval}
}

func (s *Sweeper) Run(ctx context.Context) {
	log.Info("expiry sweeper started", zap.Duration("interval", s.interval))
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("expiry sweeper stopped")
			return
		case <-ticker.C:
			if _, err := s.engine.SweepExpiredLots(ctx, time.Now()); err != nil {
				log.Error("expiry sweep failed, will retry next tick", zap.Error(err))
			}
		}
	}
}
