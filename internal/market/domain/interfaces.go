package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LotFilter narrows marketplace listings. Zero values mean "any".
type LotFilter struct {
	Status   LotStatus
	CropType string
	SellerID uuid.UUID
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
}

// Store is the persistence interface for lots and bids. PostgreSQL is the
// source of truth; an in-memory implementation backs the tests.
//
// The conditional methods are the concurrency contract of the engine: each
// one is a single atomic transaction whose guards are evaluated against the
// committed row state, never against state read earlier by the caller. On a
// guard failure nothing is written.
type Store interface {
	// CreateLot persists a new lot.
	CreateLot(ctx context.Context, lot *Lot) error

	// GetLot retrieves a lot by id. Returns ErrLotNotFound.
	GetLot(ctx context.Context, id uuid.UUID) (*Lot, error)

	// ListLots returns lots matching the filter, newest first.
	ListLots(ctx context.Context, filter LotFilter) ([]*Lot, error)

	// GetBid retrieves a bid by id. Returns ErrBidNotFound.
	GetBid(ctx context.Context, id uuid.UUID) (*Bid, error)

	// ListBidsByLot returns all bids against a lot, oldest first.
	ListBidsByLot(ctx context.Context, lotID uuid.UUID) ([]*Bid, error)

	// ListBidsByBidder returns all bids placed by a bidder, newest first.
	ListBidsByBidder(ctx context.Context, bidderID uuid.UUID) ([]*Bid, error)

	// ListExpiredOpenLots returns ids of open lots whose expiry is at or
	// before now. Input for the sweep; each lot is then resolved in its own
	// transaction.
	ListExpiredOpenLots(ctx context.Context, now time.Time) ([]uuid.UUID, error)

	// InsertBid inserts a pending bid iff its lot is open and, when the lot
	// has an expiry, the expiry is still after bid.CreatedAt. The status
	// re-check happens inside the same transaction as the insert. Returns
	// ErrLotNotFound or ErrLotNotOpen.
	InsertBid(ctx context.Context, bid *Bid) error

	// AcceptBid atomically sets the target bid to accepted, every other
	// pending bid on the lot to rejected, and the lot to sold. Guards: lot
	// open, bid pending and belonging to the lot. Returns ErrLotNotFound,
	// ErrBidNotFound, ErrLotNotOpen or ErrBidNotPending; no partial effect
	// on any failure path.
	AcceptBid(ctx context.Context, lotID, bidID uuid.UUID) error

	// UpdateLotStatus is a compare-and-set on a single lot's status.
	// Returns ErrLotNotFound, or ErrConflict when the current status is not
	// `from`.
	UpdateLotStatus(ctx context.Context, id uuid.UUID, from, to LotStatus) error

	// UpdateBidStatus is a compare-and-set on a single bid's status.
	// Returns ErrBidNotFound, or ErrConflict when the current status is not
	// `from`.
	UpdateBidStatus(ctx context.Context, id uuid.UUID, from, to BidStatus) error

	// ResolveLot atomically moves an open lot to a terminal status and
	// cascade-rejects all of its pending bids in the same transaction.
	// Returns ErrLotNotFound, or ErrConflict when the lot is not open.
	ResolveLot(ctx context.Context, lotID uuid.UUID, to LotStatus) error
}
