package domain

import "github.com/holiman/uint256"

// EventKind classifies auction lifecycle events.
type EventKind string

const (
	EventAuctionCreated EventKind = "AUCTION_CREATED"
	EventBidPlaced      EventKind = "BID_PLACED"
	EventBidRefunded    EventKind = "BID_REFUNDED"
	EventAuctionSettled EventKind = "AUCTION_SETTLED"
)

// AuctionEvent is one append-only audit record of an engine mutation.
// Corresponds to the auction_events table in ClickHouse.
type AuctionEvent struct {
	EventID      string // uuid
	AuctionID    uint64
	Kind         EventKind
	Actor        string // account that triggered the mutation
	Counterparty string // recipient of funds or asset, if any
	Amount       *uint256.Int
	Currency     Currency
	TimestampMS  int64
}

// Clone returns a deep copy of the event.
func (e *AuctionEvent) Clone() *AuctionEvent {
	if e == nil {
		return nil
	}
	cp := *e
	if e.Amount != nil {
		cp.Amount = new(uint256.Int).Set(e.Amount)
	}
	return &cp
}
