package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/agrimandi/procurement-engine/internal/market/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const bidColumns = `id, lot_id, bidder_id, amount, status, created_at, updated_at`

func scanBid(row pgx.Row) (*domain.Bid, error) {
	bid := &domain.Bid{}
	err := row.Scan(
		&bid.ID,
		&bid.LotID,
		&bid.BidderID,
		&bid.Amount,
		&bid.Status,
		&bid.CreatedAt,
		&bid.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return bid, nil
}

func (s *Store) GetBid(ctx context.Context, id uuid.UUID) (*domain.Bid, error) {
	bid, err := scanBid(s.pool.QueryRow(ctx,
		`SELECT `+bidColumns+` FROM bids WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("bid %s: %w", id, domain.ErrBidNotFound)
		}
		return nil, err
	}
	return bid, nil
}

func (s *Store) ListBidsByLot(ctx context.Context, lotID uuid.UUID) ([]*domain.Bid, error) {
	return s.listBids(ctx,
		`SELECT `+bidColumns+` FROM bids WHERE lot_id = $1 ORDER BY created_at ASC`, lotID)
}

func (s *Store) ListBidsByBidder(ctx context.Context, bidderID uuid.UUID) ([]*domain.Bid, error) {
	return s.listBids(ctx,
		`SELECT `+bidColumns+` FROM bids WHERE bidder_id = $1 ORDER BY created_at DESC`, bidderID)
}

func (s *Store) listBids(ctx context.Context, query string, arg any) ([]*domain.Bid, error) {
	rows, err := s.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bids []*domain.Bid
	for rows.Next() {
		bid, err := scanBid(rows)
		if err != nil {
			return nil, err
		}
		bids = append(bids, bid)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return bids, nil
}
