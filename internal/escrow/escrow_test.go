package escrow

import (
	"context"
	"errors"
	"testing"

	"github.com/holiman/uint256"

	"nft-auction-engine/internal/assets"
	"nft-auction-engine/internal/assets/stub"
	"nft-auction-engine/internal/domain"
)

func newTestAdapter() (*Adapter, *stub.Native, *stub.Token) {
	native := stub.NewNative()
	token := stub.NewToken()
	registry := stub.NewRegistry()
	registry.RegisterToken("mint1", token)
	return NewAdapter(native, registry, "custodian"), native, token
}

func TestAdapter_PullRelease_Native(t *testing.T) {
	ctx := context.Background()
	adapter, native, _ := newTestAdapter()
	native.Fund("bidder", uint256.NewInt(100))

	if err := adapter.Pull(ctx, domain.Native(), "bidder", uint256.NewInt(60)); err != nil {
		t.Fatalf("Pull failed: %v", err)
	}
	held, _ := native.BalanceOf(ctx, "custodian")
	if !held.Eq(uint256.NewInt(60)) {
		t.Errorf("custodian holds %s, want 60", held.Dec())
	}

	if err := adapter.Release(ctx, domain.Native(), "seller", uint256.NewInt(60)); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	sellerBalance, _ := native.BalanceOf(ctx, "seller")
	if !sellerBalance.Eq(uint256.NewInt(60)) {
		t.Errorf("seller holds %s, want 60", sellerBalance.Dec())
	}
}

func TestAdapter_PullToken_RequiresAllowance(t *testing.T) {
	ctx := context.Background()
	adapter, _, token := newTestAdapter()
	token.Mint("bidder", uint256.NewInt(100))

	err := adapter.Pull(ctx, domain.Token("mint1"), "bidder", uint256.NewInt(50))
	if !errors.Is(err, assets.ErrInsufficientAllowance) {
		t.Fatalf("expected ErrInsufficientAllowance, got %v", err)
	}

	token.Approve("bidder", adapter.Custodian(), uint256.NewInt(50))
	if err := adapter.Pull(ctx, domain.Token("mint1"), "bidder", uint256.NewInt(50)); err != nil {
		t.Fatalf("Pull with allowance failed: %v", err)
	}

	held, _ := token.BalanceOf(ctx, adapter.Custodian())
	if !held.Eq(uint256.NewInt(50)) {
		t.Errorf("custodian holds %s, want 50", held.Dec())
	}
}

func TestAdapter_UnknownMint(t *testing.T) {
	ctx := context.Background()
	adapter, _, _ := newTestAdapter()

	err := adapter.Pull(ctx, domain.Token("missing"), "bidder", uint256.NewInt(1))
	if !errors.Is(err, assets.ErrUnknownContract) {
		t.Errorf("Pull: expected ErrUnknownContract, got %v", err)
	}
	err = adapter.Release(ctx, domain.Token("missing"), "seller", uint256.NewInt(1))
	if !errors.Is(err, assets.ErrUnknownContract) {
		t.Errorf("Release: expected ErrUnknownContract, got %v", err)
	}
}
