package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nft-auction-engine/internal/storage"
)

func TestAllowlistStore_SetAndIsAllowed(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewAllowlistStore(pool)
	ctx := context.Background()

	allowed, err := store.IsAllowed(ctx, "MintAddress111")
	require.NoError(t, err)
	assert.False(t, allowed)

	require.NoError(t, store.Set(ctx, "MintAddress111"))

	allowed, err = store.IsAllowed(ctx, "MintAddress111")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestAllowlistStore_SetIdempotent(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewAllowlistStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "MintAddress111"))
	require.NoError(t, store.Set(ctx, "MintAddress111"))

	mints, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"MintAddress111"}, mints)
}

func TestAllowlistStore_ListSorted(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewAllowlistStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "MintC"))
	require.NoError(t, store.Set(ctx, "MintA"))
	require.NoError(t, store.Set(ctx, "MintB"))

	mints, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"MintA", "MintB", "MintC"}, mints)
}

func TestAllowlistStore_SetInvalid(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewAllowlistStore(pool)

	err := store.Set(context.Background(), "")
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}
