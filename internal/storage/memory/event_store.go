package memory

import (
	"context"
	"sort"
	"sync"

	"nft-auction-engine/internal/domain"
	"nft-auction-engine/internal/storage"
)

// EventStore is an in-memory implementation of storage.EventStore.
type EventStore struct {
	mu   sync.RWMutex
	data map[string]*domain.AuctionEvent // keyed by event_id
}

// NewEventStore creates a new in-memory event store.
func NewEventStore() *EventStore {
	return &EventStore{data: make(map[string]*domain.AuctionEvent)}
}

// Compile-time interface check.
var _ storage.EventStore = (*EventStore)(nil)

// Insert adds a new event. Returns ErrDuplicateKey if event_id exists.
func (s *EventStore) Insert(_ context.Context, e *domain.AuctionEvent) error {
	if e == nil || e.EventID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[e.EventID]; exists {
		return storage.ErrDuplicateKey
	}
	s.data[e.EventID] = e.Clone()
	return nil
}

// GetByAuctionID retrieves all events for an auction, ordered by timestamp ASC.
func (s *EventStore) GetByAuctionID(_ context.Context, auctionID uint64) ([]*domain.AuctionEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.AuctionEvent
	for _, e := range s.data {
		if e.AuctionID == auctionID {
			result = append(result, e.Clone())
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].TimestampMS < result[j].TimestampMS
	})
	return result, nil
}

// GetByTimeRange retrieves events within [start, end] (inclusive).
func (s *EventStore) GetByTimeRange(_ context.Context, start, end int64) ([]*domain.AuctionEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.AuctionEvent
	for _, e := range s.data {
		if e.TimestampMS >= start && e.TimestampMS <= end {
			result = append(result, e.Clone())
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].TimestampMS < result[j].TimestampMS
	})
	return result, nil
}
