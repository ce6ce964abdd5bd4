package stub

import (
	"context"
	"fmt"
	"sync"

	"github.com/holiman/uint256"

	"nft-auction-engine/internal/assets"
)

// Native is an in-memory native-currency balance book.
type Native struct {
	mu       sync.Mutex
	balances map[string]*uint256.Int
}

// NewNative creates an empty native ledger.
func NewNative() *Native {
	return &Native{balances: make(map[string]*uint256.Int)}
}

// Compile-time interface check.
var _ assets.NativeLedger = (*Native)(nil)

// Fund credits amount to an account. Test setup only.
func (n *Native) Fund(account string, amount *uint256.Int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.balances[account] = new(uint256.Int).Add(n.balanceOf(account), amount)
}

// Transfer moves amount of native currency between accounts.
func (n *Native) Transfer(_ context.Context, from, to string, amount *uint256.Int) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	balance := n.balanceOf(from)
	if balance.Lt(amount) {
		return fmt.Errorf("native transfer %s from %s: %w", amount.Dec(), from, assets.ErrInsufficientFunds)
	}
	n.balances[from] = new(uint256.Int).Sub(balance, amount)
	n.balances[to] = new(uint256.Int).Add(n.balanceOf(to), amount)
	return nil
}

// BalanceOf returns the account's native balance.
func (n *Native) BalanceOf(_ context.Context, account string) (*uint256.Int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return new(uint256.Int).Set(n.balanceOf(account)), nil
}

func (n *Native) balanceOf(account string) *uint256.Int {
	if b, ok := n.balances[account]; ok {
		return b
	}
	return uint256.NewInt(0)
}
