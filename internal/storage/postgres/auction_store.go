package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"nft-auction-engine/internal/domain"
	"nft-auction-engine/internal/storage"
)

// AuctionStore implements storage.AuctionStore using PostgreSQL.
type AuctionStore struct {
	pool *Pool
}

// NewAuctionStore creates a new AuctionStore.
func NewAuctionStore(pool *Pool) *AuctionStore {
	return &AuctionStore{pool: pool}
}

// Compile-time interface check.
var _ storage.AuctionStore = (*AuctionStore)(nil)

const auctionColumns = `
	auction_id, owner_key, policy, asset_contract, asset_id,
	reserve_price, currency_kind, token_mint, deadline_ms, state, created_at_ms
`

// Insert adds a new auction and assigns its id from the auctions sequence.
func (s *AuctionStore) Insert(ctx context.Context, a *domain.Auction) (uint64, error) {
	if a == nil || a.Owner == "" {
		return 0, storage.ErrInvalidInput
	}

	query := `
		INSERT INTO auctions (
			owner_key, policy, asset_contract, asset_id,
			reserve_price, currency_kind, token_mint, deadline_ms, state, created_at_ms
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING auction_id
	`

	var tokenMint *string
	if a.Currency.TokenMint != "" {
		tokenMint = &a.Currency.TokenMint
	}

	var id uint64
	err := s.pool.QueryRow(ctx, query,
		a.Owner,
		string(a.Policy),
		a.AssetContract,
		int64(a.AssetID),
		amountToText(a.ReservePrice),
		string(a.Currency.Kind),
		tokenMint,
		a.DeadlineMS,
		string(a.State),
		a.CreatedAtMS,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert auction: %w", err)
	}
	a.ID = id
	return id, nil
}

// GetByID retrieves an auction by id. Returns ErrNotFound if not exists.
func (s *AuctionStore) GetByID(ctx context.Context, auctionID uint64) (*domain.Auction, error) {
	query := `SELECT ` + auctionColumns + ` FROM auctions WHERE auction_id = $1`

	row := s.pool.QueryRow(ctx, query, auctionID)
	a, err := scanAuction(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get auction by id: %w", err)
	}
	return a, nil
}

// GetByOwner retrieves all auctions created by owner, ordered by id ASC.
func (s *AuctionStore) GetByOwner(ctx context.Context, owner string) ([]*domain.Auction, error) {
	query := `SELECT ` + auctionColumns + ` FROM auctions WHERE owner_key = $1 ORDER BY auction_id ASC`

	rows, err := s.pool.Query(ctx, query, owner)
	if err != nil {
		return nil, fmt.Errorf("get auctions by owner: %w", err)
	}
	defer rows.Close()
	return scanAuctions(rows)
}

// ListOpen retrieves all auctions in OPEN state, ordered by id ASC.
func (s *AuctionStore) ListOpen(ctx context.Context) ([]*domain.Auction, error) {
	query := `SELECT ` + auctionColumns + ` FROM auctions WHERE state = $1 ORDER BY auction_id ASC`

	rows, err := s.pool.Query(ctx, query, string(domain.AuctionOpen))
	if err != nil {
		return nil, fmt.Errorf("list open auctions: %w", err)
	}
	defer rows.Close()
	return scanAuctions(rows)
}

// SetState transitions an auction from one state to another. The WHERE
// guard on the current state is the optimistic check backing the engine's
// check-then-transition discipline.
func (s *AuctionStore) SetState(ctx context.Context, auctionID uint64, from, to domain.AuctionState) error {
	query := `UPDATE auctions SET state = $1 WHERE auction_id = $2 AND state = $3`

	tag, err := s.pool.Exec(ctx, query, string(to), auctionID, string(from))
	if err != nil {
		return fmt.Errorf("set auction state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := s.pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM auctions WHERE auction_id = $1)`, auctionID,
		).Scan(&exists); err != nil {
			return fmt.Errorf("check auction exists: %w", err)
		}
		if !exists {
			return storage.ErrNotFound
		}
		return storage.ErrStateConflict
	}
	return nil
}

func scanAuction(row pgx.Row) (*domain.Auction, error) {
	var (
		a            domain.Auction
		assetID      int64
		reserveText  string
		currencyKind string
		tokenMint    *string
		policy       string
		state        string
	)
	err := row.Scan(
		&a.ID, &a.Owner, &policy, &a.AssetContract, &assetID,
		&reserveText, &currencyKind, &tokenMint, &a.DeadlineMS, &state, &a.CreatedAtMS,
	)
	if err != nil {
		return nil, err
	}

	a.AssetID = uint64(assetID)
	a.Policy = domain.Policy(policy)
	a.State = domain.AuctionState(state)
	a.Currency.Kind = domain.CurrencyKind(currencyKind)
	if tokenMint != nil {
		a.Currency.TokenMint = *tokenMint
	}
	a.ReservePrice, err = amountFromText(reserveText)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func scanAuctions(rows pgx.Rows) ([]*domain.Auction, error) {
	var result []*domain.Auction
	for rows.Next() {
		a, err := scanAuction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan auction: %w", err)
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate auctions: %w", err)
	}
	return result, nil
}
