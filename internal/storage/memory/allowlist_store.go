package memory

import (
	"context"
	"sort"
	"sync"

	"nft-auction-engine/internal/storage"
)

// AllowlistStore is an in-memory implementation of storage.AllowlistStore.
type AllowlistStore struct {
	mu   sync.RWMutex
	data map[string]bool
}

// NewAllowlistStore creates a new in-memory allow-list store.
func NewAllowlistStore() *AllowlistStore {
	return &AllowlistStore{data: make(map[string]bool)}
}

// Compile-time interface check.
var _ storage.AllowlistStore = (*AllowlistStore)(nil)

// Set marks a token mint as eligible. Idempotent.
func (s *AllowlistStore) Set(_ context.Context, mint string) error {
	if mint == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[mint] = true
	return nil
}

// IsAllowed reports whether a mint is eligible.
func (s *AllowlistStore) IsAllowed(_ context.Context, mint string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data[mint], nil
}

// List retrieves all allowed mints, sorted.
func (s *AllowlistStore) List(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]string, 0, len(s.data))
	for mint := range s.data {
		result = append(result, mint)
	}
	sort.Strings(result)
	return result, nil
}
