// Package assets defines the capability interfaces of the external asset
// ledgers the engine moves value through. The engine never assumes a
// concrete implementation, decimal precision, or chain; it consumes these
// contracts and nothing more.
package assets

import (
	"context"
	"errors"

	"github.com/holiman/uint256"
)

// Transfer errors surfaced by collaborator implementations.
var (
	// ErrInsufficientFunds is returned when a holder's balance cannot
	// cover a transfer.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrInsufficientAllowance is returned when a spender's allowance
	// cannot cover a TransferFrom.
	ErrInsufficientAllowance = errors.New("insufficient allowance")

	// ErrNotOwner is returned when an asset transfer names a from-account
	// that does not own the asset.
	ErrNotOwner = errors.New("not the asset owner")

	// ErrNotApproved is returned when the operator lacks approval to move
	// the asset.
	ErrNotApproved = errors.New("operator not approved")

	// ErrUnknownAsset is returned for an asset id that does not exist.
	ErrUnknownAsset = errors.New("unknown asset")

	// ErrUnknownContract is returned by a Registry for an unregistered
	// mint or collection address.
	ErrUnknownContract = errors.New("unknown contract")
)

// FungibleToken is the transfer surface of a fungible-token ledger.
// Amounts are opaque smallest-unit integers.
type FungibleToken interface {
	// Transfer moves amount from one holder to another.
	Transfer(ctx context.Context, from, to string, amount *uint256.Int) error

	// TransferFrom moves amount out of from on behalf of spender,
	// consuming spender's allowance granted by from.
	TransferFrom(ctx context.Context, spender, from, to string, amount *uint256.Int) error

	// BalanceOf returns the holder's balance.
	BalanceOf(ctx context.Context, holder string) (*uint256.Int, error)

	// Allowance returns what spender may still move out of owner.
	Allowance(ctx context.Context, owner, spender string) (*uint256.Int, error)
}

// NFTCollection is the transfer surface of a non-fungible asset collection.
// Operator approval must have been granted by the asset owner before the
// engine is asked to move anything; the engine never requests approval.
type NFTCollection interface {
	// TransferFrom moves assetID from its owner to another account,
	// authorized by operator being the owner or an approved operator.
	TransferFrom(ctx context.Context, operator, from, to string, assetID uint64) error

	// OwnerOf returns the current owner of assetID.
	OwnerOf(ctx context.Context, assetID uint64) (string, error)

	// IsApprovedForAll reports whether operator may move owner's assets.
	IsApprovedForAll(ctx context.Context, owner, operator string) (bool, error)
}

// NativeLedger is the balance book of the network's native currency.
type NativeLedger interface {
	// Transfer moves amount of native currency between accounts.
	Transfer(ctx context.Context, from, to string, amount *uint256.Int) error

	// BalanceOf returns the account's native balance.
	BalanceOf(ctx context.Context, account string) (*uint256.Int, error)
}

// Registry resolves contract account keys to ledger instances.
type Registry interface {
	// Token resolves a fungible-token mint address.
	// Returns ErrUnknownContract if the mint is not registered.
	Token(mint string) (FungibleToken, error)

	// Collection resolves an NFT collection address.
	// Returns ErrUnknownContract if the collection is not registered.
	Collection(addr string) (NFTCollection, error)
}
