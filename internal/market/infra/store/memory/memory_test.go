package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/agrimandi/procurement-engine/internal/market/domain"
	"github.com/agrimandi/procurement-engine/internal/market/infra/store/memory"
)

func seed(t *testing.T, s *memory.Store, status domain.LotStatus, expiry *time.Time) *domain.Lot {
	t.Helper()
	lot := &domain.Lot{
		ID:        uuid.New(),
		SellerID:  uuid.New(),
		CropType:  "cotton",
		Quantity:  decimal.NewFromInt(40),
		Unit:      "quintal",
		BasePrice: decimal.NewFromInt(7000),
		Expiry:    expiry,
		Status:    status,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := s.CreateLot(context.Background(), lot); err != nil {
		t.Fatalf("seed lot: %v", err)
	}
	return lot
}

func pendingBid(lotID uuid.UUID, createdAt time.Time) *domain.Bid {
	return &domain.Bid{
		ID:        uuid.New(),
		LotID:     lotID,
		BidderID:  uuid.New(),
		Amount:    decimal.NewFromInt(7100),
		Status:    domain.BidPending,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

func TestInsertBid_Guards(t *testing.T) {
	s := memory.NewStore()
	ctx := context.Background()
	now := time.Now()

	open := seed(t, s, domain.LotOpen, nil)
	sold := seed(t, s, domain.LotSold, nil)
	past := now.Add(-time.Minute)
	expired := seed(t, s, domain.LotOpen, &past)

	if err := s.InsertBid(ctx, pendingBid(open.ID, now)); err != nil {
		t.Errorf("open lot: unexpected error %v", err)
	}
	if err := s.InsertBid(ctx, pendingBid(sold.ID, now)); !errors.Is(err, domain.ErrLotNotOpen) {
		t.Errorf("sold lot: expected ErrLotNotOpen, got %v", err)
	}
	if err := s.InsertBid(ctx, pendingBid(expired.ID, now)); !errors.Is(err, domain.ErrLotNotOpen) {
		t.Errorf("past expiry: expected ErrLotNotOpen, got %v", err)
	}
	if err := s.InsertBid(ctx, pendingBid(uuid.New(), now)); !errors.Is(err, domain.ErrLotNotFound) {
		t.Errorf("missing lot: expected ErrLotNotFound, got %v", err)
	}
}

func TestUpdateStatus_CAS(t *testing.T) {
	s := memory.NewStore()
	ctx := context.Background()

	lot := seed(t, s, domain.LotDraft, nil)
	if err := s.UpdateLotStatus(ctx, lot.ID, domain.LotDraft, domain.LotOpen); err != nil {
		t.Fatalf("CAS draft->open: %v", err)
	}
	if err := s.UpdateLotStatus(ctx, lot.ID, domain.LotDraft, domain.LotOpen); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("repeated CAS: expected ErrConflict, got %v", err)
	}
	if err := s.UpdateLotStatus(ctx, uuid.New(), domain.LotDraft, domain.LotOpen); !errors.Is(err, domain.ErrLotNotFound) {
		t.Fatalf("missing lot: expected ErrLotNotFound, got %v", err)
	}

	bid := pendingBid(lot.ID, time.Now())
	if err := s.InsertBid(ctx, bid); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := s.UpdateBidStatus(ctx, bid.ID, domain.BidPending, domain.BidWithdrawn); err != nil {
		t.Fatalf("CAS pending->withdrawn: %v", err)
	}
	if err := s.UpdateBidStatus(ctx, bid.ID, domain.BidPending, domain.BidRejected); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("repeated CAS: expected ErrConflict, got %v", err)
	}
}

func TestResolveLot_Cascade(t *testing.T) {
	s := memory.NewStore()
	ctx := context.Background()

	lot := seed(t, s, domain.LotOpen, nil)
	b1 := pendingBid(lot.ID, time.Now())
	b2 := pendingBid(lot.ID, time.Now())
	for _, b := range []*domain.Bid{b1, b2} {
		if err := s.InsertBid(ctx, b); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	if err := s.ResolveLot(ctx, lot.ID, domain.LotWithdrawn); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	cur, _ := s.GetLot(ctx, lot.ID)
	if cur.Status != domain.LotWithdrawn {
		t.Errorf("expected withdrawn, got %s", cur.Status)
	}
	for _, b := range []*domain.Bid{b1, b2} {
		got, _ := s.GetBid(ctx, b.ID)
		if got.Status != domain.BidRejected {
			t.Errorf("bid %s: expected rejected, got %s", b.ID, got.Status)
		}
	}

	if err := s.ResolveLot(ctx, lot.ID, domain.LotExpired); !errors.Is(err, domain.ErrConflict) {
		t.Errorf("resolve on non-open lot: expected ErrConflict, got %v", err)
	}
}

func TestListLots_Filter(t *testing.T) {
	s := memory.NewStore()
	ctx := context.Background()

	wheat := seed(t, s, domain.LotOpen, nil)
	wheat.CropType = "wheat"
	_ = s.ResolveLot(ctx, wheat.ID, domain.LotSold) // move one lot out of open

	open := seed(t, s, domain.LotOpen, nil)

	got, err := s.ListLots(ctx, domain.LotFilter{Status: domain.LotOpen})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0].ID != open.ID {
		t.Fatalf("status filter returned wrong set: %d lots", len(got))
	}

	bySeller, err := s.ListLots(ctx, domain.LotFilter{SellerID: open.SellerID})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(bySeller) != 1 || bySeller[0].ID != open.ID {
		t.Fatalf("seller filter returned wrong set: %d lots", len(bySeller))
	}

	min := decimal.NewFromInt(9000)
	none, err := s.ListLots(ctx, domain.LotFilter{MinPrice: &min})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("min price filter should exclude everything, got %d", len(none))
	}
}
