package domain

import "github.com/holiman/uint256"

// BidState is the lifecycle state of an escrowed bid.
type BidState string

const (
	BidActive   BidState = "ACTIVE"
	BidWon      BidState = "WON"
	BidRefunded BidState = "REFUNDED"
)

// Bid is one entry in an open-ledger auction's bid list. Bids are retained
// permanently; Index is the append position and never reused.
// Corresponds to the bids table in PostgreSQL.
type Bid struct {
	AuctionID  uint64
	Index      int
	Bidder     string // account key (base58)
	Amount     *uint256.Int
	State      BidState
	PlacedAtMS int64
}

// Clone returns a deep copy of the bid.
func (b *Bid) Clone() *Bid {
	if b == nil {
		return nil
	}
	cp := *b
	if b.Amount != nil {
		cp.Amount = new(uint256.Int).Set(b.Amount)
	}
	return &cp
}

// WinningBid is the single leader slot of a leader-slot auction.
// At most one escrowed amount exists per auction at any time; a displaced
// leader is refunded before the slot is overwritten.
type WinningBid struct {
	AuctionID   uint64
	Bidder      string
	Amount      *uint256.Int
	State       BidState // ACTIVE or WON, never REFUNDED
	UpdatedAtMS int64
}

// Clone returns a deep copy of the slot.
func (w *WinningBid) Clone() *WinningBid {
	if w == nil {
		return nil
	}
	cp := *w
	if w.Amount != nil {
		cp.Amount = new(uint256.Int).Set(w.Amount)
	}
	return &cp
}
