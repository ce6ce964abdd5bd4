package memory

import (
	"context"
	"sync"

	"nft-auction-engine/internal/domain"
	"nft-auction-engine/internal/storage"
)

// WinningBidStore is an in-memory implementation of storage.WinningBidStore.
type WinningBidStore struct {
	mu   sync.RWMutex
	data map[uint64]*domain.WinningBid // keyed by auction id
}

// NewWinningBidStore creates a new in-memory leader-slot store.
func NewWinningBidStore() *WinningBidStore {
	return &WinningBidStore{data: make(map[uint64]*domain.WinningBid)}
}

// Compile-time interface check.
var _ storage.WinningBidStore = (*WinningBidStore)(nil)

// Get retrieves the current slot. Returns ErrNotFound if no bid was placed.
func (s *WinningBidStore) Get(_ context.Context, auctionID uint64) (*domain.WinningBid, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w, exists := s.data[auctionID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return w.Clone(), nil
}

// Put overwrites the slot with a new leader.
func (s *WinningBidStore) Put(_ context.Context, w *domain.WinningBid) error {
	if w == nil || w.Bidder == "" || w.Amount == nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[w.AuctionID] = w.Clone()
	return nil
}

// SetState transitions the slot from one state to another.
func (s *WinningBidStore) SetState(_ context.Context, auctionID uint64, from, to domain.BidState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, exists := s.data[auctionID]
	if !exists {
		return storage.ErrNotFound
	}
	if w.State != from {
		return storage.ErrStateConflict
	}
	w.State = to
	return nil
}
