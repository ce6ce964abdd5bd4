package memory

import (
	"context"
	"errors"
	"testing"

	"nft-auction-engine/internal/storage"
)

func TestAllowlistStore_SetIdempotent(t *testing.T) {
	store := NewAllowlistStore()
	ctx := context.Background()

	if err := store.Set(ctx, "mint1"); err != nil {
		t.Fatalf("first Set failed: %v", err)
	}
	if err := store.Set(ctx, "mint1"); err != nil {
		t.Fatalf("repeated Set failed: %v", err)
	}

	allowed, err := store.IsAllowed(ctx, "mint1")
	if err != nil || !allowed {
		t.Errorf("IsAllowed(mint1) = %v, %v; want true", allowed, err)
	}
	allowed, err = store.IsAllowed(ctx, "mint2")
	if err != nil || allowed {
		t.Errorf("IsAllowed(mint2) = %v, %v; want false", allowed, err)
	}
}

func TestAllowlistStore_ListSorted(t *testing.T) {
	store := NewAllowlistStore()
	ctx := context.Background()

	store.Set(ctx, "zmint")
	store.Set(ctx, "amint")

	mints, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(mints) != 2 || mints[0] != "amint" || mints[1] != "zmint" {
		t.Errorf("List = %v, want [amint zmint]", mints)
	}
}

func TestAllowlistStore_EmptyMint(t *testing.T) {
	store := NewAllowlistStore()
	ctx := context.Background()

	if err := store.Set(ctx, ""); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}
