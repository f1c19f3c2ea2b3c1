package domain_test

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/agrimandi/procurement-engine/internal/market/domain"
)

func TestNewBid(t *testing.T) {
	now := time.Now()
	lotID := uuid.New()
	bidder := uuid.New()

	bid, err := domain.NewBid(lotID, bidder, decimal.NewFromInt(5200), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bid.Status != domain.BidPending {
		t.Errorf("new bid should be pending, got %s", bid.Status)
	}
	if bid.LotID != lotID || bid.BidderID != bidder {
		t.Error("bid references not carried over")
	}
}

func TestNewBid_Rejections(t *testing.T) {
	now := time.Now()

	if _, err := domain.NewBid(uuid.New(), uuid.Nil, decimal.NewFromInt(100), now); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("nil bidder: expected ErrValidation, got %v", err)
	}
	if _, err := domain.NewBid(uuid.New(), uuid.New(), decimal.Zero, now); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("zero amount: expected ErrValidation, got %v", err)
	}
	if _, err := domain.NewBid(uuid.New(), uuid.New(), decimal.NewFromInt(-1), now); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("negative amount: expected ErrValidation, got %v", err)
	}
}

func TestBidStatusTerminal(t *testing.T) {
	if domain.BidPending.Terminal() {
		t.Error("pending must not be terminal")
	}
	for _, s := range []domain.BidStatus{domain.BidAccepted, domain.BidRejected, domain.BidWithdrawn} {
		if !s.Terminal() {
			t.Errorf("%s must be terminal", s)
		}
	}
}
