package postgres

import (
	"context"
	"fmt"
	"time"

	"nft-auction-engine/internal/storage"
)

// AllowlistStore implements storage.AllowlistStore using PostgreSQL.
type AllowlistStore struct {
	pool *Pool
}

// NewAllowlistStore creates a new AllowlistStore.
func NewAllowlistStore(pool *Pool) *AllowlistStore {
	return &AllowlistStore{pool: pool}
}

// Compile-time interface check.
var _ storage.AllowlistStore = (*AllowlistStore)(nil)

// Set marks a token mint as eligible. Idempotent.
func (s *AllowlistStore) Set(ctx context.Context, mint string) error {
	if mint == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO allowed_tokens (token_mint, added_at_ms)
		VALUES ($1, $2)
		ON CONFLICT (token_mint) DO NOTHING
	`

	if _, err := s.pool.Exec(ctx, query, mint, time.Now().UnixMilli()); err != nil {
		return fmt.Errorf("set allowed token: %w", err)
	}
	return nil
}

// IsAllowed reports whether a mint is eligible.
func (s *AllowlistStore) IsAllowed(ctx context.Context, mint string) (bool, error) {
	var allowed bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM allowed_tokens WHERE token_mint = $1)`, mint,
	).Scan(&allowed)
	if err != nil {
		return false, fmt.Errorf("check allowed token: %w", err)
	}
	return allowed, nil
}

// List retrieves all allowed mints, sorted.
func (s *AllowlistStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT token_mint FROM allowed_tokens ORDER BY token_mint ASC`)
	if err != nil {
		return nil, fmt.Errorf("list allowed tokens: %w", err)
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		var mint string
		if err := rows.Scan(&mint); err != nil {
			return nil, fmt.Errorf("scan allowed token: %w", err)
		}
		result = append(result, mint)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate allowed tokens: %w", err)
	}
	return result, nil
}
