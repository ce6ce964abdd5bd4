package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"nft-auction-engine/internal/domain"
	"nft-auction-engine/internal/storage"
)

// BidStore implements storage.BidStore using PostgreSQL.
// The engine serializes writes per auction, so the next index can be
// computed inside the insert without a separate sequence.
type BidStore struct {
	pool *Pool
}

// NewBidStore creates a new BidStore.
func NewBidStore(pool *Pool) *BidStore {
	return &BidStore{pool: pool}
}

// Compile-time interface check.
var _ storage.BidStore = (*BidStore)(nil)

// Append adds a bid to an auction's ledger and returns its index.
func (s *BidStore) Append(ctx context.Context, b *domain.Bid) (int, error) {
	if b == nil || b.Bidder == "" || b.Amount == nil {
		return 0, storage.ErrInvalidInput
	}

	query := `
		INSERT INTO bids (auction_id, bid_index, bidder, amount, state, placed_at_ms)
		SELECT $1, COALESCE(MAX(bid_index) + 1, 0), $2, $3, $4, $5
		FROM bids WHERE auction_id = $1
		RETURNING bid_index
	`

	var index int
	err := s.pool.QueryRow(ctx, query,
		b.AuctionID,
		b.Bidder,
		amountToText(b.Amount),
		string(b.State),
		b.PlacedAtMS,
	).Scan(&index)
	if err != nil {
		if isDuplicateKeyError(err) {
			return 0, storage.ErrDuplicateKey
		}
		return 0, fmt.Errorf("append bid: %w", err)
	}
	b.Index = index
	return index, nil
}

// GetByAuctionID retrieves all bids for an auction, ordered by index ASC.
func (s *BidStore) GetByAuctionID(ctx context.Context, auctionID uint64) ([]*domain.Bid, error) {
	query := `
		SELECT auction_id, bid_index, bidder, amount, state, placed_at_ms
		FROM bids
		WHERE auction_id = $1
		ORDER BY bid_index ASC
	`

	rows, err := s.pool.Query(ctx, query, auctionID)
	if err != nil {
		return nil, fmt.Errorf("get bids by auction: %w", err)
	}
	defer rows.Close()

	var result []*domain.Bid
	for rows.Next() {
		b, err := scanBid(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bid: %w", err)
		}
		result = append(result, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bids: %w", err)
	}
	return result, nil
}

// GetByIndex retrieves one bid. Returns ErrNotFound if not exists.
func (s *BidStore) GetByIndex(ctx context.Context, auctionID uint64, index int) (*domain.Bid, error) {
	query := `
		SELECT auction_id, bid_index, bidder, amount, state, placed_at_ms
		FROM bids
		WHERE auction_id = $1 AND bid_index = $2
	`

	row := s.pool.QueryRow(ctx, query, auctionID, index)
	b, err := scanBid(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get bid by index: %w", err)
	}
	return b, nil
}

// SetState transitions a bid from one state to another.
func (s *BidStore) SetState(ctx context.Context, auctionID uint64, index int, from, to domain.BidState) error {
	query := `
		UPDATE bids SET state = $1
		WHERE auction_id = $2 AND bid_index = $3 AND state = $4
	`

	tag, err := s.pool.Exec(ctx, query, string(to), auctionID, index, string(from))
	if err != nil {
		return fmt.Errorf("set bid state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := s.pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM bids WHERE auction_id = $1 AND bid_index = $2)`,
			auctionID, index,
		).Scan(&exists); err != nil {
			return fmt.Errorf("check bid exists: %w", err)
		}
		if !exists {
			return storage.ErrNotFound
		}
		return storage.ErrStateConflict
	}
	return nil
}

func scanBid(row pgx.Row) (*domain.Bid, error) {
	var (
		b          domain.Bid
		amountText string
		state      string
	)
	err := row.Scan(&b.AuctionID, &b.Index, &b.Bidder, &amountText, &state, &b.PlacedAtMS)
	if err != nil {
		return nil, err
	}
	b.State = domain.BidState(state)
	b.Amount, err = amountFromText(amountText)
	if err != nil {
		return nil, err
	}
	return &b, nil
}
