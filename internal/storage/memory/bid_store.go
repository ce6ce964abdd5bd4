package memory

import (
	"context"
	"sync"

	"nft-auction-engine/internal/domain"
	"nft-auction-engine/internal/storage"
)

// BidStore is an in-memory implementation of storage.BidStore.
// Bids are kept in submission order per auction; nothing is ever deleted.
type BidStore struct {
	mu   sync.RWMutex
	data map[uint64][]*domain.Bid // keyed by auction id, index == slice position
}

// NewBidStore creates a new in-memory bid store.
func NewBidStore() *BidStore {
	return &BidStore{data: make(map[uint64][]*domain.Bid)}
}

// Compile-time interface check.
var _ storage.BidStore = (*BidStore)(nil)

// Append adds a bid to an auction's ledger and returns its index.
func (s *BidStore) Append(_ context.Context, b *domain.Bid) (int, error) {
	if b == nil || b.Bidder == "" || b.Amount == nil {
		return 0, storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cp := b.Clone()
	cp.Index = len(s.data[b.AuctionID])
	s.data[b.AuctionID] = append(s.data[b.AuctionID], cp)
	b.Index = cp.Index
	return cp.Index, nil
}

// GetByAuctionID retrieves all bids for an auction, ordered by index ASC.
func (s *BidStore) GetByAuctionID(_ context.Context, auctionID uint64) ([]*domain.Bid, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bids := s.data[auctionID]
	result := make([]*domain.Bid, 0, len(bids))
	for _, b := range bids {
		result = append(result, b.Clone())
	}
	return result, nil
}

// GetByIndex retrieves one bid. Returns ErrNotFound if not exists.
func (s *BidStore) GetByIndex(_ context.Context, auctionID uint64, index int) (*domain.Bid, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bids := s.data[auctionID]
	if index < 0 || index >= len(bids) {
		return nil, storage.ErrNotFound
	}
	return bids[index].Clone(), nil
}

// SetState transitions a bid from one state to another.
func (s *BidStore) SetState(_ context.Context, auctionID uint64, index int, from, to domain.BidState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	bids := s.data[auctionID]
	if index < 0 || index >= len(bids) {
		return storage.ErrNotFound
	}
	if bids[index].State != from {
		return storage.ErrStateConflict
	}
	bids[index].State = to
	return nil
}
