package stub

import (
	"context"
	"fmt"
	"sync"

	"nft-auction-engine/internal/assets"
)

// Collection is an in-memory NFT collection with owner/operator semantics.
type Collection struct {
	mu        sync.Mutex
	owners    map[uint64]string
	operators map[string]map[string]bool // owner -> operator -> approved
}

// NewCollection creates an empty collection.
func NewCollection() *Collection {
	return &Collection{
		owners:    make(map[uint64]string),
		operators: make(map[string]map[string]bool),
	}
}

// Compile-time interface check.
var _ assets.NFTCollection = (*Collection)(nil)

// Mint assigns a new asset to owner. Test setup only.
func (c *Collection) Mint(owner string, assetID uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.owners[assetID] = owner
}

// SetApprovalForAll grants or revokes operator approval over owner's assets.
// Called by asset owners before handing an asset to the engine.
func (c *Collection) SetApprovalForAll(owner, operator string, approved bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.operators[owner] == nil {
		c.operators[owner] = make(map[string]bool)
	}
	c.operators[owner][operator] = approved
}

// TransferFrom moves assetID from its owner to another account.
func (c *Collection) TransferFrom(_ context.Context, operator, from, to string, assetID uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	owner, ok := c.owners[assetID]
	if !ok {
		return fmt.Errorf("asset %d: %w", assetID, assets.ErrUnknownAsset)
	}
	if owner != from {
		return fmt.Errorf("asset %d owned by %s, not %s: %w", assetID, owner, from, assets.ErrNotOwner)
	}
	if operator != owner && !c.operators[owner][operator] {
		return fmt.Errorf("operator %s for asset %d: %w", operator, assetID, assets.ErrNotApproved)
	}

	c.owners[assetID] = to
	return nil
}

// OwnerOf returns the current owner of assetID.
func (c *Collection) OwnerOf(_ context.Context, assetID uint64) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	owner, ok := c.owners[assetID]
	if !ok {
		return "", fmt.Errorf("asset %d: %w", assetID, assets.ErrUnknownAsset)
	}
	return owner, nil
}

// IsApprovedForAll reports whether operator may move owner's assets.
func (c *Collection) IsApprovedForAll(_ context.Context, owner, operator string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.operators[owner][operator], nil
}
