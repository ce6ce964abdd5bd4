// Package stub provides in-memory asset ledgers for tests and local mode.
package stub

import (
	"context"
	"fmt"
	"sync"

	"github.com/holiman/uint256"

	"nft-auction-engine/internal/assets"
)

// Token is an in-memory fungible-token ledger with standard
// balance/allowance semantics.
type Token struct {
	mu         sync.Mutex
	balances   map[string]*uint256.Int
	allowances map[string]map[string]*uint256.Int // owner -> spender -> amount
}

// NewToken creates an empty token ledger.
func NewToken() *Token {
	return &Token{
		balances:   make(map[string]*uint256.Int),
		allowances: make(map[string]map[string]*uint256.Int),
	}
}

// Compile-time interface check.
var _ assets.FungibleToken = (*Token)(nil)

// Mint credits amount to holder. Test setup only.
func (t *Token) Mint(holder string, amount *uint256.Int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.credit(holder, amount)
}

// Approve sets spender's allowance over owner's balance. Test setup only;
// the engine never calls this.
func (t *Token) Approve(owner, spender string, amount *uint256.Int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.allowances[owner] == nil {
		t.allowances[owner] = make(map[string]*uint256.Int)
	}
	t.allowances[owner][spender] = new(uint256.Int).Set(amount)
}

// Transfer moves amount from one holder to another.
func (t *Token) Transfer(_ context.Context, from, to string, amount *uint256.Int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.move(from, to, amount)
}

// TransferFrom moves amount out of from on behalf of spender.
func (t *Token) TransferFrom(_ context.Context, spender, from, to string, amount *uint256.Int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	allowance := t.allowanceOf(from, spender)
	if allowance.Lt(amount) {
		return fmt.Errorf("transfer %s from %s by %s: %w", amount.Dec(), from, spender, assets.ErrInsufficientAllowance)
	}
	if err := t.move(from, to, amount); err != nil {
		return err
	}
	t.allowances[from][spender] = new(uint256.Int).Sub(allowance, amount)
	return nil
}

// BalanceOf returns the holder's balance.
func (t *Token) BalanceOf(_ context.Context, holder string) (*uint256.Int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return new(uint256.Int).Set(t.balanceOf(holder)), nil
}

// Allowance returns what spender may still move out of owner.
func (t *Token) Allowance(_ context.Context, owner, spender string) (*uint256.Int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return new(uint256.Int).Set(t.allowanceOf(owner, spender)), nil
}

func (t *Token) balanceOf(holder string) *uint256.Int {
	if b, ok := t.balances[holder]; ok {
		return b
	}
	return uint256.NewInt(0)
}

func (t *Token) allowanceOf(owner, spender string) *uint256.Int {
	if m, ok := t.allowances[owner]; ok {
		if a, ok := m[spender]; ok {
			return a
		}
	}
	return uint256.NewInt(0)
}

func (t *Token) credit(holder string, amount *uint256.Int) {
	t.balances[holder] = new(uint256.Int).Add(t.balanceOf(holder), amount)
}

func (t *Token) move(from, to string, amount *uint256.Int) error {
	balance := t.balanceOf(from)
	if balance.Lt(amount) {
		return fmt.Errorf("transfer %s from %s: %w", amount.Dec(), from, assets.ErrInsufficientFunds)
	}
	t.balances[from] = new(uint256.Int).Sub(balance, amount)
	t.credit(to, amount)
	return nil
}
