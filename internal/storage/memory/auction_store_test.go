package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/holiman/uint256"

	"nft-auction-engine/internal/domain"
	"nft-auction-engine/internal/storage"
)

func testAuction(owner string) *domain.Auction {
	return &domain.Auction{
		Owner:         owner,
		Policy:        domain.PolicyOpenLedger,
		AssetContract: "coll1",
		AssetID:       1,
		ReservePrice:  uint256.NewInt(100),
		Currency:      domain.Native(),
		DeadlineMS:    2_000_000,
		State:         domain.AuctionOpen,
		CreatedAtMS:   1_000_000,
	}
}

func TestAuctionStore_InsertAssignsIDs(t *testing.T) {
	store := NewAuctionStore()
	ctx := context.Background()

	first := testAuction("alice")
	id1, err := store.Insert(ctx, first)
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	second := testAuction("bob")
	id2, err := store.Insert(ctx, second)
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	if id2 != id1+1 {
		t.Errorf("ids not sequential: %d then %d", id1, id2)
	}
	if first.ID != id1 || second.ID != id2 {
		t.Errorf("ids not written back: %d/%d vs %d/%d", first.ID, second.ID, id1, id2)
	}

	got, err := store.GetByID(ctx, id1)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Owner != "alice" {
		t.Errorf("Owner = %s, want alice", got.Owner)
	}
}

func TestAuctionStore_NotFound(t *testing.T) {
	store := NewAuctionStore()
	ctx := context.Background()

	_, err := store.GetByID(ctx, 99)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestAuctionStore_InvalidInput(t *testing.T) {
	store := NewAuctionStore()
	ctx := context.Background()

	if _, err := store.Insert(ctx, nil); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("nil auction: expected ErrInvalidInput, got %v", err)
	}
	if _, err := store.Insert(ctx, &domain.Auction{}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("empty owner: expected ErrInvalidInput, got %v", err)
	}
}

func TestAuctionStore_SetState(t *testing.T) {
	store := NewAuctionStore()
	ctx := context.Background()

	id, err := store.Insert(ctx, testAuction("alice"))
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	err = store.SetState(ctx, id, domain.AuctionOpen, domain.AuctionCompleted)
	if err != nil {
		t.Fatalf("SetState failed: %v", err)
	}

	// Second transition from OPEN conflicts.
	err = store.SetState(ctx, id, domain.AuctionOpen, domain.AuctionCompleted)
	if !errors.Is(err, storage.ErrStateConflict) {
		t.Errorf("expected ErrStateConflict, got %v", err)
	}

	err = store.SetState(ctx, 99, domain.AuctionOpen, domain.AuctionCompleted)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestAuctionStore_ListOpen(t *testing.T) {
	store := NewAuctionStore()
	ctx := context.Background()

	id1, _ := store.Insert(ctx, testAuction("alice"))
	id2, _ := store.Insert(ctx, testAuction("bob"))
	_ = store.SetState(ctx, id1, domain.AuctionOpen, domain.AuctionCompleted)

	open, err := store.ListOpen(ctx)
	if err != nil {
		t.Fatalf("ListOpen failed: %v", err)
	}
	if len(open) != 1 || open[0].ID != id2 {
		t.Errorf("ListOpen = %v, want only auction %d", open, id2)
	}
}

func TestAuctionStore_GetByOwner(t *testing.T) {
	store := NewAuctionStore()
	ctx := context.Background()

	store.Insert(ctx, testAuction("alice"))
	store.Insert(ctx, testAuction("bob"))
	store.Insert(ctx, testAuction("alice"))

	got, err := store.GetByOwner(ctx, "alice")
	if err != nil {
		t.Fatalf("GetByOwner failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d auctions, want 2", len(got))
	}
	if got[0].ID > got[1].ID {
		t.Errorf("results not ordered by id: %d, %d", got[0].ID, got[1].ID)
	}
}

func TestAuctionStore_CloneIsolation(t *testing.T) {
	store := NewAuctionStore()
	ctx := context.Background()

	a := testAuction("alice")
	id, _ := store.Insert(ctx, a)

	// Mutating the caller's copy must not touch the stored auction.
	a.ReservePrice.SetUint64(999)
	a.State = domain.AuctionCompleted

	got, err := store.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if !got.ReservePrice.Eq(uint256.NewInt(100)) || got.State != domain.AuctionOpen {
		t.Errorf("stored auction mutated through caller reference: %+v", got)
	}
}
