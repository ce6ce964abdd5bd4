package memory

import (
	"context"
	"sort"
	"sync"

	"nft-auction-engine/internal/domain"
	"nft-auction-engine/internal/storage"
)

// AuctionStore is an in-memory implementation of storage.AuctionStore.
type AuctionStore struct {
	mu     sync.RWMutex
	data   map[uint64]*domain.Auction
	nextID uint64
}

// NewAuctionStore creates a new in-memory auction store.
func NewAuctionStore() *AuctionStore {
	return &AuctionStore{data: make(map[uint64]*domain.Auction)}
}

// Compile-time interface check.
var _ storage.AuctionStore = (*AuctionStore)(nil)

// Insert adds a new auction and assigns its id.
func (s *AuctionStore) Insert(_ context.Context, a *domain.Auction) (uint64, error) {
	if a == nil || a.Owner == "" {
		return 0, storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++

	cp := a.Clone()
	cp.ID = id
	s.data[id] = cp
	a.ID = id
	return id, nil
}

// GetByID retrieves an auction by id. Returns ErrNotFound if not exists.
func (s *AuctionStore) GetByID(_ context.Context, auctionID uint64) (*domain.Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, exists := s.data[auctionID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return a.Clone(), nil
}

// GetByOwner retrieves all auctions created by owner, ordered by id ASC.
func (s *AuctionStore) GetByOwner(_ context.Context, owner string) ([]*domain.Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Auction
	for _, a := range s.data {
		if a.Owner == owner {
			result = append(result, a.Clone())
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// ListOpen retrieves all auctions in OPEN state, ordered by id ASC.
func (s *AuctionStore) ListOpen(_ context.Context) ([]*domain.Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Auction
	for _, a := range s.data {
		if a.State == domain.AuctionOpen {
			result = append(result, a.Clone())
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// SetState transitions an auction from one state to another.
func (s *AuctionStore) SetState(_ context.Context, auctionID uint64, from, to domain.AuctionState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, exists := s.data[auctionID]
	if !exists {
		return storage.ErrNotFound
	}
	if a.State != from {
		return storage.ErrStateConflict
	}
	a.State = to
	return nil
}
