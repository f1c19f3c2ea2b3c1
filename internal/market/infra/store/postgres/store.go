// Package postgres implements domain.Store on pgx. PostgreSQL is the source
// of truth; every conditional method runs as a single transaction whose
// guards re-read row state under lock, which is what makes the engine's
// transitions linearizable per lot.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/agrimandi/procurement-engine/internal/market/domain"
	"github.com/agrimandi/procurement-engine/internal/shared/logger"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// withTx runs fn inside a transaction, committing on nil and rolling back
// otherwise.
func (s *Store) withTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			log.Warn("transaction rollback failed", zap.Error(rbErr))
		}
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// InsertBid inserts a pending bid iff the lot is open and not past its
// expiry as of bid.CreatedAt. The lot row is locked first so the insert
// serializes against a racing accept/withdraw/expiry on the same lot.
func (s *Store) InsertBid(ctx context.Context, bid *domain.Bid) error {
	return s.withTx(ctx, func(tx pgx.Tx) error {
		var status domain.LotStatus
		var expiry *time.Time
		err := tx.QueryRow(ctx,
			`SELECT status, expiry FROM lots WHERE id = $1 FOR UPDATE`,
			bid.LotID,
		).Scan(&status, &expiry)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("lot %s: %w", bid.LotID, domain.ErrLotNotFound)
			}
			return err
		}
		if status != domain.LotOpen {
			return fmt.Errorf("lot %s is %s: %w", bid.LotID, status, domain.ErrLotNotOpen)
		}
		if expiry != nil && !expiry.After(bid.CreatedAt) {
			return fmt.Errorf("lot %s past expiry: %w", bid.LotID, domain.ErrLotNotOpen)
		}

		_, err = tx.Exec(ctx, `
            INSERT INTO bids (id, lot_id, bidder_id, amount, status, created_at, updated_at)
            VALUES ($1, $2, $3, $4, $5, $6, $6)
        `,
			bid.ID, bid.LotID, bid.BidderID, bid.Amount, bid.Status, bid.CreatedAt,
		)
		return err
	})
}

// AcceptBid commits the whole resolution in one transaction: target bid to
// accepted, competing pending bids to rejected, lot to sold. Nothing is
// observable on any failure path.
func (s *Store) AcceptBid(ctx context.Context, lotID, bidID uuid.UUID) error {
	return s.withTx(ctx, func(tx pgx.Tx) error {
		var lotStatus domain.LotStatus
		err := tx.QueryRow(ctx,
			`SELECT status FROM lots WHERE id = $1 FOR UPDATE`, lotID,
		).Scan(&lotStatus)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("lot %s: %w", lotID, domain.ErrLotNotFound)
			}
			return err
		}
		if lotStatus != domain.LotOpen {
			return fmt.Errorf("lot %s is %s: %w", lotID, lotStatus, domain.ErrLotNotOpen)
		}

		var bidLotID uuid.UUID
		var bidStatus domain.BidStatus
		err = tx.QueryRow(ctx,
			`SELECT lot_id, status FROM bids WHERE id = $1 FOR UPDATE`, bidID,
		).Scan(&bidLotID, &bidStatus)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("bid %s: %w", bidID, domain.ErrBidNotFound)
			}
			return err
		}
		if bidLotID != lotID || bidStatus != domain.BidPending {
			return fmt.Errorf("bid %s: %w", bidID, domain.ErrBidNotPending)
		}

		if _, err := tx.Exec(ctx, `
            UPDATE bids SET status = $1, updated_at = NOW()
            WHERE lot_id = $2 AND status = $3 AND id <> $4
        `, domain.BidRejected, lotID, domain.BidPending, bidID); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `
            UPDATE bids SET status = $1, updated_at = NOW() WHERE id = $2
        `, domain.BidAccepted, bidID); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `
            UPDATE lots SET status = $1, updated_at = NOW() WHERE id = $2
        `, domain.LotSold, lotID); err != nil {
			return err
		}
		return nil
	})
}

// UpdateLotStatus is a single-row compare-and-set on the lot's status.
func (s *Store) UpdateLotStatus(ctx context.Context, id uuid.UUID, from, to domain.LotStatus) error {
	tag, err := s.pool.Exec(ctx, `
        UPDATE lots SET status = $1, updated_at = NOW()
        WHERE id = $2 AND status = $3
    `, to, id, from)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return s.lotCASFailure(ctx, id, from)
	}
	return nil
}

// UpdateBidStatus is a single-row compare-and-set on the bid's status.
func (s *Store) UpdateBidStatus(ctx context.Context, id uuid.UUID, from, to domain.BidStatus) error {
	tag, err := s.pool.Exec(ctx, `
        UPDATE bids SET status = $1, updated_at = NOW()
        WHERE id = $2 AND status = $3
    `, to, id, from)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		var current domain.BidStatus
		err := s.pool.QueryRow(ctx, `SELECT status FROM bids WHERE id = $1`, id).Scan(&current)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("bid %s: %w", id, domain.ErrBidNotFound)
		}
		if err != nil {
			return err
		}
		return fmt.Errorf("bid %s is %s, expected %s: %w", id, current, from, domain.ErrConflict)
	}
	return nil
}

// ResolveLot moves an open lot to a terminal status and cascade-rejects its
// pending bids in the same transaction.
func (s *Store) ResolveLot(ctx context.Context, lotID uuid.UUID, to domain.LotStatus) error {
	return s.withTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
            UPDATE lots SET status = $1, updated_at = NOW()
            WHERE id = $2 AND status = $3
        `, to, lotID, domain.LotOpen)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return s.lotCASFailure(ctx, lotID, domain.LotOpen)
		}
		_, err = tx.Exec(ctx, `
            UPDATE bids SET status = $1, updated_at = NOW()
            WHERE lot_id = $2 AND status = $3
        `, domain.BidRejected, lotID, domain.BidPending)
		return err
	})
}

// lotCASFailure turns a zero-rows conditional update into the right domain
// error: missing row vs. status mismatch.
func (s *Store) lotCASFailure(ctx context.Context, id uuid.UUID, expected domain.LotStatus) error {
	var current domain.LotStatus
	err := s.pool.QueryRow(ctx, `SELECT status FROM lots WHERE id = $1`, id).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("lot %s: %w", id, domain.ErrLotNotFound)
	}
	if err != nil {
		return err
	}
	return fmt.Errorf("lot %s is %s, expected %s: %w", id, current, expected, domain.ErrConflict)
}
