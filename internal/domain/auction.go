package domain

import "github.com/holiman/uint256"

// AuctionState is the lifecycle state of an auction.
// OPEN transitions to COMPLETED exactly once, irreversibly.
type AuctionState string

const (
	AuctionOpen      AuctionState = "OPEN"
	AuctionCompleted AuctionState = "COMPLETED"
)

// Policy selects the escrow strategy for an auction at creation time.
type Policy string

const (
	// PolicyOpenLedger appends every bid to an escrowed ledger;
	// losing bids are refunded through explicit claims after settlement.
	PolicyOpenLedger Policy = "OPEN_LEDGER"

	// PolicyLeaderSlot keeps a single winning slot per auction;
	// accepting a strictly higher bid refunds the displaced leader
	// within the same operation.
	PolicyLeaderSlot Policy = "LEADER_SLOT"
)

// CurrencyKind distinguishes native-currency auctions from token auctions.
type CurrencyKind string

const (
	CurrencyNative CurrencyKind = "NATIVE"
	CurrencyToken  CurrencyKind = "TOKEN"
)

// Currency identifies the denomination of an auction's bids.
// TokenMint is empty for native-currency auctions.
type Currency struct {
	Kind      CurrencyKind
	TokenMint string
}

// Native returns the native-currency denomination.
func Native() Currency {
	return Currency{Kind: CurrencyNative}
}

// Token returns a token denomination for the given mint address.
func Token(mint string) Currency {
	return Currency{Kind: CurrencyToken, TokenMint: mint}
}

// Auction represents one auction's terms and lifecycle state.
// All fields except State are immutable after creation.
// Corresponds to the auctions table in PostgreSQL.
type Auction struct {
	ID            uint64       // monotonically assigned by the store
	Owner         string       // seller account key (base58)
	Policy        Policy       // escrow strategy, fixed at creation
	AssetContract string       // NFT collection account key
	AssetID       uint64       // asset id within the collection
	ReservePrice  *uint256.Int // minimum acceptable bid, smallest units
	Currency      Currency
	DeadlineMS    int64 // Unix timestamp in milliseconds
	State         AuctionState
	CreatedAtMS   int64
}

// Clone returns a deep copy so stores can hand out records without
// sharing the amount pointer.
func (a *Auction) Clone() *Auction {
	if a == nil {
		return nil
	}
	cp := *a
	if a.ReservePrice != nil {
		cp.ReservePrice = new(uint256.Int).Set(a.ReservePrice)
	}
	return &cp
}
