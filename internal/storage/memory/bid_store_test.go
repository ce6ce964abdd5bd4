package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/holiman/uint256"

	"nft-auction-engine/internal/domain"
	"nft-auction-engine/internal/storage"
)

func testBid(auctionID uint64, bidder string, amount uint64) *domain.Bid {
	return &domain.Bid{
		AuctionID:  auctionID,
		Bidder:     bidder,
		Amount:     uint256.NewInt(amount),
		State:      domain.BidActive,
		PlacedAtMS: 1_000_000,
	}
}

func TestBidStore_AppendAssignsIndexes(t *testing.T) {
	store := NewBidStore()
	ctx := context.Background()

	for i, bidder := range []string{"alice", "bob", "alice"} {
		b := testBid(1, bidder, uint64(100*(i+1)))
		index, err := store.Append(ctx, b)
		if err != nil {
			t.Fatalf("Append %d failed: %v", i, err)
		}
		if index != i {
			t.Errorf("Append %d returned index %d", i, index)
		}
		if b.Index != i {
			t.Errorf("index not written back: %d", b.Index)
		}
	}

	// Indexes are per auction.
	index, err := store.Append(ctx, testBid(2, "carol", 50))
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if index != 0 {
		t.Errorf("first bid on auction 2 got index %d", index)
	}

	bids, err := store.GetByAuctionID(ctx, 1)
	if err != nil {
		t.Fatalf("GetByAuctionID failed: %v", err)
	}
	if len(bids) != 3 {
		t.Fatalf("got %d bids, want 3", len(bids))
	}
	for i, b := range bids {
		if b.Index != i {
			t.Errorf("bid %d has index %d", i, b.Index)
		}
	}
}

func TestBidStore_GetByIndex(t *testing.T) {
	store := NewBidStore()
	ctx := context.Background()

	store.Append(ctx, testBid(1, "alice", 100))

	got, err := store.GetByIndex(ctx, 1, 0)
	if err != nil {
		t.Fatalf("GetByIndex failed: %v", err)
	}
	if got.Bidder != "alice" {
		t.Errorf("Bidder = %s, want alice", got.Bidder)
	}

	if _, err := store.GetByIndex(ctx, 1, 1); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("out of range: expected ErrNotFound, got %v", err)
	}
	if _, err := store.GetByIndex(ctx, 1, -1); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("negative index: expected ErrNotFound, got %v", err)
	}
	if _, err := store.GetByIndex(ctx, 9, 0); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("unknown auction: expected ErrNotFound, got %v", err)
	}
}

func TestBidStore_SetState(t *testing.T) {
	store := NewBidStore()
	ctx := context.Background()

	store.Append(ctx, testBid(1, "alice", 100))

	if err := store.SetState(ctx, 1, 0, domain.BidActive, domain.BidRefunded); err != nil {
		t.Fatalf("SetState failed: %v", err)
	}

	err := store.SetState(ctx, 1, 0, domain.BidActive, domain.BidRefunded)
	if !errors.Is(err, storage.ErrStateConflict) {
		t.Errorf("expected ErrStateConflict, got %v", err)
	}

	err = store.SetState(ctx, 1, 7, domain.BidActive, domain.BidRefunded)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestBidStore_InvalidInput(t *testing.T) {
	store := NewBidStore()
	ctx := context.Background()

	if _, err := store.Append(ctx, nil); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("nil bid: expected ErrInvalidInput, got %v", err)
	}
	if _, err := store.Append(ctx, &domain.Bid{AuctionID: 1, Bidder: "alice"}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("nil amount: expected ErrInvalidInput, got %v", err)
	}
}

func TestBidStore_CloneIsolation(t *testing.T) {
	store := NewBidStore()
	ctx := context.Background()

	b := testBid(1, "alice", 100)
	store.Append(ctx, b)
	b.Amount.SetUint64(999)

	got, err := store.GetByIndex(ctx, 1, 0)
	if err != nil {
		t.Fatalf("GetByIndex failed: %v", err)
	}
	if !got.Amount.Eq(uint256.NewInt(100)) {
		t.Errorf("stored amount mutated: %s", got.Amount.Dec())
	}
}
