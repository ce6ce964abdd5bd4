package stub

import (
	"fmt"
	"sync"

	"nft-auction-engine/internal/assets"
)

// Registry maps contract account keys to stub ledger instances.
type Registry struct {
	mu          sync.RWMutex
	tokens      map[string]*Token
	collections map[string]*Collection
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		tokens:      make(map[string]*Token),
		collections: make(map[string]*Collection),
	}
}

// Compile-time interface check.
var _ assets.Registry = (*Registry)(nil)

// RegisterToken binds a mint address to a token ledger.
func (r *Registry) RegisterToken(mint string, token *Token) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[mint] = token
}

// RegisterCollection binds a collection address to an NFT collection.
func (r *Registry) RegisterCollection(addr string, collection *Collection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.collections[addr] = collection
}

// Token resolves a fungible-token mint address.
func (r *Registry) Token(mint string) (assets.FungibleToken, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tokens[mint]
	if !ok {
		return nil, fmt.Errorf("token mint %s: %w", mint, assets.ErrUnknownContract)
	}
	return t, nil
}

// Collection resolves an NFT collection address.
func (r *Registry) Collection(addr string) (assets.NFTCollection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.collections[addr]
	if !ok {
		return nil, fmt.Errorf("collection %s: %w", addr, assets.ErrUnknownContract)
	}
	return c, nil
}
