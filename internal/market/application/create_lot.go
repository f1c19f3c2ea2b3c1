package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/agrimandi/procurement-engine/internal/market/domain"
	"github.com/agrimandi/procurement-engine/internal/shared/metrics"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CreateLotCmd carries the listing attributes for a new lot.
type CreateLotCmd struct {
	SellerID  uuid.UUID
	CropType  string
	Variety   string
	Quantity  decimal.Decimal
	Unit      string
	BasePrice decimal.Decimal
	Expiry    *time.Time
	// Publish lists the lot immediately; otherwise it stays in draft until
	// PublishLot.
	Publish bool
}

// CreateLot validates and persists a new lot.
func (e *Engine) CreateLot(ctx context.Context, cmd CreateLotCmd) (*domain.Lot, error) {
	lot, err := domain.NewLot(cmd.SellerID, cmd.CropType, cmd.Variety, cmd.Quantity, cmd.Unit, cmd.BasePrice, cmd.Expiry, cmd.Publish, e.now())
	if err != nil {
		return nil, fmt.Errorf("create lot: %w", err)
	}

	if err := e.store.CreateLot(ctx, lot); err != nil {
		log.Error("failed to persist lot",
			zap.String("sellerID", cmd.SellerID.String()),
			zap.Error(err),
		)
		return nil, fmt.Errorf("create lot: %w", err)
	}

	metrics.LotsCreated.WithLabelValues(string(lot.Status)).Inc()
	log.Info("lot created",
		zap.String("lotID", lot.ID.String()),
		zap.String("sellerID", lot.SellerID.String()),
		zap.String("cropType", lot.CropType),
		zap.String("status", string(lot.Status)),
	)
	return lot, nil
}

// PublishLot moves a draft lot to open. Only the seller may publish.
func (e *Engine) PublishLot(ctx context.Context, lotID, actorID uuid.UUID) (*domain.Lot, error) {
	lot, err := e.store.GetLot(ctx, lotID)
	if err != nil {
		return nil, fmt.Errorf("publish lot: %w", err)
	}
	if lot.SellerID != actorID {
		return nil, fmt.Errorf("publish lot %s: %w", lotID, domain.ErrUnauthorized)
	}
	if lot.Status != domain.LotDraft {
		return nil, fmt.Errorf("publish lot %s: lot is %s: %w", lotID, lot.Status, domain.ErrValidation)
	}
	if lot.Expiry != nil && !lot.Expiry.After(e.now()) {
		return nil, fmt.Errorf("publish lot %s: expiry already passed: %w", lotID, domain.ErrValidation)
	}

	if err := e.store.UpdateLotStatus(ctx, lotID, domain.LotDraft, domain.LotOpen); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, fmt.Errorf("publish lot %s: %w", lotID, domain.ErrValidation)
		}
		return nil, fmt.Errorf("publish lot: %w", err)
	}

	lot.Status = domain.LotOpen
	log.Info("lot published", zap.String("lotID", lotID.String()))
	return lot, nil
}

func isConflict(err error) bool {
	return errors.Is(err, domain.ErrConflict)
}
