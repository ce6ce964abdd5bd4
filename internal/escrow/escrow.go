// Package escrow is the engine's transfer adapter: one code path for
// moving escrowed value in and out of custody, regardless of whether an
// auction is denominated in native currency or a fungible token.
package escrow

import (
	"context"
	"fmt"

	"github.com/holiman/uint256"

	"nft-auction-engine/internal/assets"
	"nft-auction-engine/internal/domain"
)

// Adapter moves value between bidder/seller accounts and the engine's
// custodian account.
type Adapter struct {
	native    assets.NativeLedger
	registry  assets.Registry
	custodian string
}

// NewAdapter creates an adapter custodying value under the given account.
func NewAdapter(native assets.NativeLedger, registry assets.Registry, custodian string) *Adapter {
	return &Adapter{
		native:    native,
		registry:  registry,
		custodian: custodian,
	}
}

// Custodian returns the engine's custody account key.
func (a *Adapter) Custodian() string {
	return a.custodian
}

// Pull moves amount from an external account into custody. Token pulls go
// through TransferFrom with the custodian as spender, so they require a
// pre-existing allowance.
func (a *Adapter) Pull(ctx context.Context, cur domain.Currency, from string, amount *uint256.Int) error {
	switch cur.Kind {
	case domain.CurrencyNative:
		if err := a.native.Transfer(ctx, from, a.custodian, amount); err != nil {
			return fmt.Errorf("pull native %s from %s: %w", amount.Dec(), from, err)
		}
		return nil
	case domain.CurrencyToken:
		token, err := a.registry.Token(cur.TokenMint)
		if err != nil {
			return fmt.Errorf("resolve token %s: %w", cur.TokenMint, err)
		}
		if err := token.TransferFrom(ctx, a.custodian, from, a.custodian, amount); err != nil {
			return fmt.Errorf("pull token %s from %s: %w", amount.Dec(), from, err)
		}
		return nil
	default:
		return fmt.Errorf("unknown currency kind %q", cur.Kind)
	}
}

// Release moves amount out of custody to an external account.
func (a *Adapter) Release(ctx context.Context, cur domain.Currency, to string, amount *uint256.Int) error {
	switch cur.Kind {
	case domain.CurrencyNative:
		if err := a.native.Transfer(ctx, a.custodian, to, amount); err != nil {
			return fmt.Errorf("release native %s to %s: %w", amount.Dec(), to, err)
		}
		return nil
	case domain.CurrencyToken:
		token, err := a.registry.Token(cur.TokenMint)
		if err != nil {
			return fmt.Errorf("resolve token %s: %w", cur.TokenMint, err)
		}
		if err := token.Transfer(ctx, a.custodian, to, amount); err != nil {
			return fmt.Errorf("release token %s to %s: %w", amount.Dec(), to, err)
		}
		return nil
	default:
		return fmt.Errorf("unknown currency kind %q", cur.Kind)
	}
}
