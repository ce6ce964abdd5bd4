package postgres

import (
	"context"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nft-auction-engine/internal/domain"
	"nft-auction-engine/internal/storage"
)

func testWinningBid(auctionID uint64, bidder string, amount uint64) *domain.WinningBid {
	return &domain.WinningBid{
		AuctionID:   auctionID,
		Bidder:      bidder,
		Amount:      uint256.NewInt(amount),
		State:       domain.BidActive,
		UpdatedAtMS: 1_700_000_001_000,
	}
}

func TestWinningBidStore_PutAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewWinningBidStore(pool)
	ctx := context.Background()
	auctionID := insertTestAuction(t, pool)

	err := store.Put(ctx, testWinningBid(auctionID, "BidderA", 100))
	require.NoError(t, err)

	w, err := store.Get(ctx, auctionID)
	require.NoError(t, err)
	assert.Equal(t, "BidderA", w.Bidder)
	assert.True(t, w.Amount.Eq(uint256.NewInt(100)))
	assert.Equal(t, domain.BidActive, w.State)
}

func TestWinningBidStore_PutOverwrites(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewWinningBidStore(pool)
	ctx := context.Background()
	auctionID := insertTestAuction(t, pool)

	require.NoError(t, store.Put(ctx, testWinningBid(auctionID, "BidderA", 100)))
	require.NoError(t, store.Put(ctx, testWinningBid(auctionID, "BidderB", 250)))

	w, err := store.Get(ctx, auctionID)
	require.NoError(t, err)
	assert.Equal(t, "BidderB", w.Bidder)
	assert.True(t, w.Amount.Eq(uint256.NewInt(250)))
}

func TestWinningBidStore_GetNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewWinningBidStore(pool)

	_, err := store.Get(context.Background(), 999)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestWinningBidStore_PutInvalid(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewWinningBidStore(pool)
	ctx := context.Background()
	auctionID := insertTestAuction(t, pool)

	assert.ErrorIs(t, store.Put(ctx, nil), storage.ErrInvalidInput)

	w := testWinningBid(auctionID, "", 100)
	assert.ErrorIs(t, store.Put(ctx, w), storage.ErrInvalidInput)

	w = testWinningBid(auctionID, "BidderA", 100)
	w.Amount = nil
	assert.ErrorIs(t, store.Put(ctx, w), storage.ErrInvalidInput)
}

func TestWinningBidStore_SetState(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewWinningBidStore(pool)
	ctx := context.Background()
	auctionID := insertTestAuction(t, pool)

	require.NoError(t, store.Put(ctx, testWinningBid(auctionID, "BidderA", 100)))

	err := store.SetState(ctx, auctionID, domain.BidActive, domain.BidWon)
	require.NoError(t, err)

	w, err := store.Get(ctx, auctionID)
	require.NoError(t, err)
	assert.Equal(t, domain.BidWon, w.State)

	err = store.SetState(ctx, auctionID, domain.BidActive, domain.BidWon)
	assert.ErrorIs(t, err, storage.ErrStateConflict)

	err = store.SetState(ctx, 999, domain.BidActive, domain.BidWon)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
