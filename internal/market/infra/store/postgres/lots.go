package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/agrimandi/procurement-engine/internal/market/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const lotColumns = `id, seller_id, crop_type, variety, quantity, unit, base_price, expiry, status, created_at, updated_at`

func scanLot(row pgx.Row) (*domain.Lot, error) {
	lot := &domain.Lot{}
	err := row.Scan(
		&lot.ID,
		&lot.SellerID,
		&lot.CropType,
		&lot.Variety,
		&lot.Quantity,
		&lot.Unit,
		&lot.BasePrice,
		&lot.Expiry,
		&lot.Status,
		&lot.CreatedAt,
		&lot.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return lot, nil
}

func (s *Store) CreateLot(ctx context.Context, lot *domain.Lot) error {
	_, err := s.pool.Exec(ctx, `
        INSERT INTO lots (id, seller_id, crop_type, variety, quantity, unit, base_price, expiry, status, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
    `,
		lot.ID,
		lot.SellerID,
		lot.CropType,
		lot.Variety,
		lot.Quantity,
		lot.Unit,
		lot.BasePrice,
		lot.Expiry,
		lot.Status,
		lot.CreatedAt,
	)
	return err
}

func (s *Store) GetLot(ctx context.Context, id uuid.UUID) (*domain.Lot, error) {
	lot, err := scanLot(s.pool.QueryRow(ctx,
		`SELECT `+lotColumns+` FROM lots WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("lot %s: %w", id, domain.ErrLotNotFound)
		}
		return nil, err
	}
	return lot, nil
}

// ListLots builds the WHERE clause from whatever filter fields are set.
func (s *Store) ListLots(ctx context.Context, f domain.LotFilter) ([]*domain.Lot, error) {
	var conds []string
	var args []any

	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, cond+"$"+strconv.Itoa(len(args)))
	}
	if f.Status != "" {
		add("status = ", f.Status)
	}
	if f.CropType != "" {
		add("crop_type = ", f.CropType)
	}
	if f.SellerID != uuid.Nil {
		add("seller_id = ", f.SellerID)
	}
	if f.MinPrice != nil {
		add("base_price >= ", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		add("base_price <= ", *f.MaxPrice)
	}

	query := `SELECT ` + lotColumns + ` FROM lots`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lots []*domain.Lot
	for rows.Next() {
		lot, err := scanLot(rows)
		if err != nil {
			return nil, err
		}
		lots = append(lots, lot)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return lots, nil
}

func (s *Store) ListExpiredOpenLots(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	rows, err := s.pool.Query(ctx, `
        SELECT id FROM lots
        WHERE status = $1 AND expiry IS NOT NULL AND expiry <= $2
    `, domain.LotOpen, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}
