// Package memory implements domain.Store with mutex-guarded maps. Used by
// tests and local development; the conditional semantics mirror the
// postgres implementation exactly (every guard is evaluated under the same
// lock that applies the write).
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/agrimandi/procurement-engine/internal/market/domain"
	"github.com/google/uuid"
)

type Store struct {
	mu   sync.Mutex
	lots map[uuid.UUID]*domain.Lot
	bids map[uuid.UUID]*domain.Bid
}

func NewStore() *Store {
	return &Store{
		lots: make(map[uuid.UUID]*domain.Lot),
		bids: make(map[uuid.UUID]*domain.Bid),
	}
}

func (s *Store) CreateLot(_ context.Context, lot *domain.Lot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.lots[lot.ID]; ok {
		return fmt.Errorf("lot %s already exists", lot.ID)
	}
	cp := *lot
	s.lots[lot.ID] = &cp
	return nil
}

func (s *Store) GetLot(_ context.Context, id uuid.UUID) (*domain.Lot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getLotLocked(id)
}

func (s *Store) getLotLocked(id uuid.UUID) (*domain.Lot, error) {
	lot, ok := s.lots[id]
	if !ok {
		return nil, fmt.Errorf("lot %s: %w", id, domain.ErrLotNotFound)
	}
	cp := *lot
	return &cp, nil
}

func (s *Store) ListLots(_ context.Context, f domain.LotFilter) ([]*domain.Lot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*domain.Lot
	for _, lot := range s.lots {
		if f.Status != "" && lot.Status != f.Status {
			continue
		}
		if f.CropType != "" && lot.CropType != f.CropType {
			continue
		}
		if f.SellerID != uuid.Nil && lot.SellerID != f.SellerID {
			continue
		}
		if f.MinPrice != nil && lot.BasePrice.LessThan(*f.MinPrice) {
			continue
		}
		if f.MaxPrice != nil && lot.BasePrice.GreaterThan(*f.MaxPrice) {
			continue
		}
		cp := *lot
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) GetBid(_ context.Context, id uuid.UUID) (*domain.Bid, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bid, ok := s.bids[id]
	if !ok {
		return nil, fmt.Errorf("bid %s: %w", id, domain.ErrBidNotFound)
	}
	cp := *bid
	return &cp, nil
}

func (s *Store) ListBidsByLot(_ context.Context, lotID uuid.UUID) ([]*domain.Bid, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*domain.Bid
	for _, bid := range s.bids {
		if bid.LotID != lotID {
			continue
		}
		cp := *bid
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) ListBidsByBidder(_ context.Context, bidderID uuid.UUID) ([]*domain.Bid, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*domain.Bid
	for _, bid := range s.bids {
		if bid.BidderID != bidderID {
			continue
		}
		cp := *bid
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) ListExpiredOpenLots(_ context.Context, now time.Time) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []uuid.UUID
	for _, lot := range s.lots {
		if lot.Status == domain.LotOpen && lot.Expiry != nil && !lot.Expiry.After(now) {
			out = append(out, lot.ID)
		}
	}
	return out, nil
}

func (s *Store) InsertBid(_ context.Context, bid *domain.Bid) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lot, ok := s.lots[bid.LotID]
	if !ok {
		return fmt.Errorf("lot %s: %w", bid.LotID, domain.ErrLotNotFound)
	}
	if lot.Status != domain.LotOpen {
		return fmt.Errorf("lot %s is %s: %w", lot.ID, lot.Status, domain.ErrLotNotOpen)
	}
	if lot.Expiry != nil && !lot.Expiry.After(bid.CreatedAt) {
		return fmt.Errorf("lot %s past expiry: %w", lot.ID, domain.ErrLotNotOpen)
	}
	cp := *bid
	s.bids[bid.ID] = &cp
	return nil
}

func (s *Store) AcceptBid(_ context.Context, lotID, bidID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lot, ok := s.lots[lotID]
	if !ok {
		return fmt.Errorf("lot %s: %w", lotID, domain.ErrLotNotFound)
	}
	if lot.Status != domain.LotOpen {
		return fmt.Errorf("lot %s is %s: %w", lotID, lot.Status, domain.ErrLotNotOpen)
	}
	bid, ok := s.bids[bidID]
	if !ok {
		return fmt.Errorf("bid %s: %w", bidID, domain.ErrBidNotFound)
	}
	if bid.LotID != lotID || bid.Status != domain.BidPending {
		return fmt.Errorf("bid %s: %w", bidID, domain.ErrBidNotPending)
	}

	now := time.Now()
	for _, other := range s.bids {
		if other.LotID == lotID && other.ID != bidID && other.Status == domain.BidPending {
			other.Status = domain.BidRejected
			other.UpdatedAt = now
		}
	}
	bid.Status = domain.BidAccepted
	bid.UpdatedAt = now
	lot.Status = domain.LotSold
	lot.UpdatedAt = now
	return nil
}

func (s *Store) UpdateLotStatus(_ context.Context, id uuid.UUID, from, to domain.LotStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lot, ok := s.lots[id]
	if !ok {
		return fmt.Errorf("lot %s: %w", id, domain.ErrLotNotFound)
	}
	if lot.Status != from {
		return fmt.Errorf("lot %s is %s, expected %s: %w", id, lot.Status, from, domain.ErrConflict)
	}
	lot.Status = to
	lot.UpdatedAt = time.Now()
	return nil
}

func (s *Store) UpdateBidStatus(_ context.Context, id uuid.UUID, from, to domain.BidStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	bid, ok := s.bids[id]
	if !ok {
		return fmt.Errorf("bid %s: %w", id, domain.ErrBidNotFound)
	}
	if bid.Status != from {
		return fmt.Errorf("bid %s is %s, expected %s: %w", id, bid.Status, from, domain.ErrConflict)
	}
	bid.Status = to
	bid.UpdatedAt = time.Now()
	return nil
}

func (s *Store) ResolveLot(_ context.Context, lotID uuid.UUID, to domain.LotStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lot, ok := s.lots[lotID]
	if !ok {
		return fmt.Errorf("lot %s: %w", lotID, domain.ErrLotNotFound)
	}
	if lot.Status != domain.LotOpen {
		return fmt.Errorf("lot %s is %s: %w", lotID, lot.Status, domain.ErrConflict)
	}

	now := time.Now()
	lot.Status = to
	lot.UpdatedAt = now
	for _, bid := range s.bids {
		if bid.LotID == lotID && bid.Status == domain.BidPending {
			bid.Status = domain.BidRejected
			bid.UpdatedAt = now
		}
	}
	return nil
}
