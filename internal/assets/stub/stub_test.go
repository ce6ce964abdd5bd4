package stub

import (
	"context"
	"errors"
	"testing"

	"github.com/holiman/uint256"

	"nft-auction-engine/internal/assets"
)

func TestToken_TransferFrom_ConsumesAllowance(t *testing.T) {
	ctx := context.Background()
	token := NewToken()

	token.Mint("alice", uint256.NewInt(100))
	token.Approve("alice", "spender", uint256.NewInt(60))

	err := token.TransferFrom(ctx, "spender", "alice", "bob", uint256.NewInt(40))
	if err != nil {
		t.Fatalf("TransferFrom failed: %v", err)
	}

	remaining, err := token.Allowance(ctx, "alice", "spender")
	if err != nil {
		t.Fatalf("Allowance failed: %v", err)
	}
	if !remaining.Eq(uint256.NewInt(20)) {
		t.Errorf("allowance after transfer = %s, want 20", remaining.Dec())
	}

	// Second pull exceeds the remaining allowance.
	err = token.TransferFrom(ctx, "spender", "alice", "bob", uint256.NewInt(40))
	if !errors.Is(err, assets.ErrInsufficientAllowance) {
		t.Errorf("expected ErrInsufficientAllowance, got %v", err)
	}
}

func TestToken_TransferFrom_InsufficientFunds(t *testing.T) {
	ctx := context.Background()
	token := NewToken()

	token.Mint("alice", uint256.NewInt(10))
	token.Approve("alice", "spender", uint256.NewInt(100))

	err := token.TransferFrom(ctx, "spender", "alice", "bob", uint256.NewInt(50))
	if !errors.Is(err, assets.ErrInsufficientFunds) {
		t.Errorf("expected ErrInsufficientFunds, got %v", err)
	}
}

func TestNative_Transfer(t *testing.T) {
	ctx := context.Background()
	native := NewNative()
	native.Fund("alice", uint256.NewInt(100))

	if err := native.Transfer(ctx, "alice", "bob", uint256.NewInt(30)); err != nil {
		t.Fatalf("Transfer failed: %v", err)
	}

	aliceBalance, _ := native.BalanceOf(ctx, "alice")
	bobBalance, _ := native.BalanceOf(ctx, "bob")
	if !aliceBalance.Eq(uint256.NewInt(70)) || !bobBalance.Eq(uint256.NewInt(30)) {
		t.Errorf("balances after transfer: alice=%s bob=%s", aliceBalance.Dec(), bobBalance.Dec())
	}

	err := native.Transfer(ctx, "alice", "bob", uint256.NewInt(1000))
	if !errors.Is(err, assets.ErrInsufficientFunds) {
		t.Errorf("expected ErrInsufficientFunds, got %v", err)
	}
}

func TestCollection_TransferFrom(t *testing.T) {
	ctx := context.Background()
	coll := NewCollection()
	coll.Mint("alice", 7)

	// Unapproved operator cannot move the asset.
	err := coll.TransferFrom(ctx, "operator", "alice", "bob", 7)
	if !errors.Is(err, assets.ErrNotApproved) {
		t.Fatalf("expected ErrNotApproved, got %v", err)
	}

	coll.SetApprovalForAll("alice", "operator", true)
	if err := coll.TransferFrom(ctx, "operator", "alice", "bob", 7); err != nil {
		t.Fatalf("TransferFrom failed: %v", err)
	}

	owner, err := coll.OwnerOf(ctx, 7)
	if err != nil {
		t.Fatalf("OwnerOf failed: %v", err)
	}
	if owner != "bob" {
		t.Errorf("owner = %s, want bob", owner)
	}

	// The old approval does not carry over to the new owner.
	err = coll.TransferFrom(ctx, "operator", "bob", "alice", 7)
	if !errors.Is(err, assets.ErrNotApproved) {
		t.Errorf("expected ErrNotApproved after ownership change, got %v", err)
	}
}

func TestCollection_TransferFrom_WrongFrom(t *testing.T) {
	ctx := context.Background()
	coll := NewCollection()
	coll.Mint("alice", 1)

	err := coll.TransferFrom(ctx, "alice", "bob", "carol", 1)
	if !errors.Is(err, assets.ErrNotOwner) {
		t.Errorf("expected ErrNotOwner, got %v", err)
	}
}

func TestCollection_UnknownAsset(t *testing.T) {
	ctx := context.Background()
	coll := NewCollection()

	_, err := coll.OwnerOf(ctx, 99)
	if !errors.Is(err, assets.ErrUnknownAsset) {
		t.Errorf("expected ErrUnknownAsset, got %v", err)
	}
}

func TestRegistry_Resolve(t *testing.T) {
	reg := NewRegistry()
	token := NewToken()
	coll := NewCollection()
	reg.RegisterToken("mint1", token)
	reg.RegisterCollection("coll1", coll)

	if _, err := reg.Token("mint1"); err != nil {
		t.Errorf("Token(mint1) failed: %v", err)
	}
	if _, err := reg.Collection("coll1"); err != nil {
		t.Errorf("Collection(coll1) failed: %v", err)
	}
	if _, err := reg.Token("unknown"); !errors.Is(err, assets.ErrUnknownContract) {
		t.Errorf("expected ErrUnknownContract, got %v", err)
	}
	if _, err := reg.Collection("unknown"); !errors.Is(err, assets.ErrUnknownContract) {
		t.Errorf("expected ErrUnknownContract, got %v", err)
	}
}
