package domain_test

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/agrimandi/procurement-engine/internal/market/domain"
)

func TestNewLot(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	seller := uuid.New()

	lot, err := domain.NewLot(seller, "paddy", "basmati", decimal.NewFromInt(250), "quintal", decimal.NewFromInt(2200), nil, true, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lot.Status != domain.LotOpen {
		t.Errorf("published lot should be open, got %s", lot.Status)
	}
	if lot.ID == uuid.Nil {
		t.Error("lot id not assigned")
	}

	draft, err := domain.NewLot(seller, "paddy", "", decimal.NewFromInt(250), "quintal", decimal.NewFromInt(2200), nil, false, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if draft.Status != domain.LotDraft {
		t.Errorf("unpublished lot should be draft, got %s", draft.Status)
	}
}

func TestNewLot_Rejections(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)
	qty := decimal.NewFromInt(10)
	price := decimal.NewFromInt(100)

	cases := []struct {
		name string
		fn   func() (*domain.Lot, error)
	}{
		{"nil seller", func() (*domain.Lot, error) {
			return domain.NewLot(uuid.Nil, "wheat", "", qty, "kg", price, nil, true, now)
		}},
		{"blank crop", func() (*domain.Lot, error) {
			return domain.NewLot(uuid.New(), "  ", "", qty, "kg", price, nil, true, now)
		}},
		{"zero quantity", func() (*domain.Lot, error) {
			return domain.NewLot(uuid.New(), "wheat", "", decimal.Zero, "kg", price, nil, true, now)
		}},
		{"negative price", func() (*domain.Lot, error) {
			return domain.NewLot(uuid.New(), "wheat", "", qty, "kg", price.Neg(), nil, true, now)
		}},
		{"past expiry", func() (*domain.Lot, error) {
			return domain.NewLot(uuid.New(), "wheat", "", qty, "kg", price, &past, true, now)
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := tc.fn(); !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestLotStatusTerminal(t *testing.T) {
	for status, terminal := range map[domain.LotStatus]bool{
		domain.LotDraft:     false,
		domain.LotOpen:      false,
		domain.LotSold:      true,
		domain.LotExpired:   true,
		domain.LotWithdrawn: true,
	} {
		if status.Terminal() != terminal {
			t.Errorf("%s: Terminal() = %v, want %v", status, status.Terminal(), terminal)
		}
	}
}

func TestLotExpiredAt(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	later := now.Add(time.Hour)

	noExpiry := &domain.Lot{Status: domain.LotOpen}
	if noExpiry.ExpiredAt(now) {
		t.Error("lot without expiry can never expire")
	}

	lot := &domain.Lot{Status: domain.LotOpen, Expiry: &later}
	if lot.ExpiredAt(now) {
		t.Error("expiry in the future reported as passed")
	}
	if !lot.ExpiredAt(later) {
		t.Error("expiry instant itself counts as passed")
	}
	if !lot.ExpiredAt(later.Add(time.Second)) {
		t.Error("expiry in the past not reported")
	}
}
