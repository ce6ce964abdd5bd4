package storage

import (
	"context"

	"nft-auction-engine/internal/domain"
)

// AuctionStore provides access to auctions storage.
type AuctionStore interface {
	// Insert adds a new auction in OPEN state and assigns its id.
	// Ids are monotonically increasing and never reused.
	Insert(ctx context.Context, a *domain.Auction) (uint64, error)

	// GetByID retrieves an auction by id. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, auctionID uint64) (*domain.Auction, error)

	// GetByOwner retrieves all auctions created by owner, ordered by id ASC.
	GetByOwner(ctx context.Context, owner string) ([]*domain.Auction, error)

	// ListOpen retrieves all auctions still in OPEN state, ordered by id ASC.
	ListOpen(ctx context.Context) ([]*domain.Auction, error)

	// SetState transitions an auction from one state to another.
	// Returns ErrNotFound if the auction does not exist and
	// ErrStateConflict if it is not in the from state.
	SetState(ctx context.Context, auctionID uint64, from, to domain.AuctionState) error
}

// BidStore provides access to the open-ledger bids storage.
// Bids are append-only; only their state field ever changes.
type BidStore interface {
	// Append adds a bid to an auction's ledger and returns its index.
	Append(ctx context.Context, b *domain.Bid) (int, error)

	// GetByAuctionID retrieves all bids for an auction, ordered by index ASC.
	GetByAuctionID(ctx context.Context, auctionID uint64) ([]*domain.Bid, error)

	// GetByIndex retrieves one bid. Returns ErrNotFound if not exists.
	GetByIndex(ctx context.Context, auctionID uint64, index int) (*domain.Bid, error)

	// SetState transitions a bid from one state to another.
	// Returns ErrNotFound if the bid does not exist and
	// ErrStateConflict if it is not in the from state.
	SetState(ctx context.Context, auctionID uint64, index int, from, to domain.BidState) error
}

// WinningBidStore provides access to the leader-slot storage.
type WinningBidStore interface {
	// Get retrieves the current slot. Returns ErrNotFound if no bid
	// has ever been placed.
	Get(ctx context.Context, auctionID uint64) (*domain.WinningBid, error)

	// Put overwrites the slot with a new leader.
	Put(ctx context.Context, w *domain.WinningBid) error

	// SetState transitions the slot from one state to another.
	// Returns ErrNotFound if the slot is empty and ErrStateConflict
	// if it is not in the from state.
	SetState(ctx context.Context, auctionID uint64, from, to domain.BidState) error
}

// AllowlistStore provides access to the token allow-list.
type AllowlistStore interface {
	// Set marks a token mint as eligible. Idempotent.
	Set(ctx context.Context, mint string) error

	// IsAllowed reports whether a mint is eligible.
	IsAllowed(ctx context.Context, mint string) (bool, error)

	// List retrieves all allowed mints, sorted.
	List(ctx context.Context) ([]string, error)
}

// EventStore provides access to the append-only auction event audit log.
type EventStore interface {
	// Insert adds a new event. Returns ErrDuplicateKey if event_id exists.
	Insert(ctx context.Context, e *domain.AuctionEvent) error

	// GetByAuctionID retrieves all events for an auction, ordered by
	// timestamp ASC.
	GetByAuctionID(ctx context.Context, auctionID uint64) ([]*domain.AuctionEvent, error)

	// GetByTimeRange retrieves events within [start, end] (inclusive, ms).
	GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.AuctionEvent, error)
}
