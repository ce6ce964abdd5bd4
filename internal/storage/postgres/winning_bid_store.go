package postgres

import (
	"context"
	"fmt"

	"nft-auction-engine/internal/domain"
	"nft-auction-engine/internal/storage"
)

// WinningBidStore implements storage.WinningBidStore using PostgreSQL.
type WinningBidStore struct {
	pool *Pool
}

// NewWinningBidStore creates a new WinningBidStore.
func NewWinningBidStore(pool *Pool) *WinningBidStore {
	return &WinningBidStore{pool: pool}
}

// Compile-time interface check.
var _ storage.WinningBidStore = (*WinningBidStore)(nil)

// Get retrieves the current slot. Returns ErrNotFound if no bid was placed.
func (s *WinningBidStore) Get(ctx context.Context, auctionID uint64) (*domain.WinningBid, error) {
	query := `
		SELECT auction_id, bidder, amount, state, updated_at_ms
		FROM winning_bids
		WHERE auction_id = $1
	`

	var (
		w          domain.WinningBid
		amountText string
		state      string
	)
	err := s.pool.QueryRow(ctx, query, auctionID).
		Scan(&w.AuctionID, &w.Bidder, &amountText, &state, &w.UpdatedAtMS)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get winning bid: %w", err)
	}

	w.State = domain.BidState(state)
	w.Amount, err = amountFromText(amountText)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// Put overwrites the slot with a new leader.
func (s *WinningBidStore) Put(ctx context.Context, w *domain.WinningBid) error {
	if w == nil || w.Bidder == "" || w.Amount == nil {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO winning_bids (auction_id, bidder, amount, state, updated_at_ms)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (auction_id) DO UPDATE
		SET bidder = EXCLUDED.bidder,
		    amount = EXCLUDED.amount,
		    state = EXCLUDED.state,
		    updated_at_ms = EXCLUDED.updated_at_ms
	`

	_, err := s.pool.Exec(ctx, query,
		w.AuctionID,
		w.Bidder,
		amountToText(w.Amount),
		string(w.State),
		w.UpdatedAtMS,
	)
	if err != nil {
		return fmt.Errorf("put winning bid: %w", err)
	}
	return nil
}

// SetState transitions the slot from one state to another.
func (s *WinningBidStore) SetState(ctx context.Context, auctionID uint64, from, to domain.BidState) error {
	query := `UPDATE winning_bids SET state = $1 WHERE auction_id = $2 AND state = $3`

	tag, err := s.pool.Exec(ctx, query, string(to), auctionID, string(from))
	if err != nil {
		return fmt.Errorf("set winning bid state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := s.pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM winning_bids WHERE auction_id = $1)`, auctionID,
		).Scan(&exists); err != nil {
			return fmt.Errorf("check winning bid exists: %w", err)
		}
		if !exists {
			return storage.ErrNotFound
		}
		return storage.ErrStateConflict
	}
	return nil
}
