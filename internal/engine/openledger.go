package engine

import (
	"context"
	"fmt"

	"github.com/holiman/uint256"

	"nft-auction-engine/internal/domain"
)

// openLedgerPolicy is the Generation 1 escrow strategy: every bid is
// appended to a permanent ledger and escrowed individually. The ledger
// enforces no ordering between bids; the winner is selected at completion
// time, and losing bids wait for explicit refund claims.
type openLedgerPolicy struct {
	e *Engine
}

func (p *openLedgerPolicy) placeBid(ctx context.Context, a *domain.Auction, bidder string, amount *uint256.Int) error {
	e := p.e

	if err := e.escrow.Pull(ctx, a.Currency, bidder, amount); err != nil {
		e.reject("transfer")
		return e.rejected("bid", fmt.Errorf("escrow bid on auction %d: %w", a.ID, err))
	}

	b := &domain.Bid{
		AuctionID:  a.ID,
		Bidder:     bidder,
		Amount:     new(uint256.Int).Set(amount),
		State:      domain.BidActive,
		PlacedAtMS: e.now(),
	}
	index, err := e.bids.Append(ctx, b)
	if err != nil {
		// Recording failed: hand the escrowed amount back.
		if rerr := e.escrow.Release(ctx, a.Currency, bidder, amount); rerr != nil {
			e.logger.Printf("CRITICAL: bid escrow stranded for %s on auction %d: %v", bidder, a.ID, rerr)
		}
		return fmt.Errorf("record bid on auction %d: %w", a.ID, err)
	}

	if e.metrics != nil {
		e.metrics.BidsPlaced.WithLabelValues(string(domain.PolicyOpenLedger)).Inc()
	}
	e.emit(&domain.AuctionEvent{
		AuctionID: a.ID,
		Kind:      domain.EventBidPlaced,
		Actor:     bidder,
		Amount:    new(uint256.Int).Set(amount),
		Currency:  a.Currency,
	})
	e.logger.Printf("auction %d: bid %d by %s for %s", a.ID, index, bidder, amount.Dec())
	return nil
}

func (p *openLedgerPolicy) complete(ctx context.Context, a *domain.Auction, caller string) error {
	e := p.e

	if caller != a.Owner {
		return fmt.Errorf("complete auction %d by %s: %w", a.ID, caller, ErrUnauthorized)
	}

	all, err := e.bids.GetByAuctionID(ctx, a.ID)
	if err != nil {
		return fmt.Errorf("load bids for auction %d: %w", a.ID, err)
	}
	winner := selectWinner(all)
	if winner == nil {
		return fmt.Errorf("complete auction %d: %w", a.ID, ErrNoBids)
	}

	if err := e.bids.SetState(ctx, a.ID, winner.Index, domain.BidActive, domain.BidWon); err != nil {
		return fmt.Errorf("mark bid %d/%d won: %w", a.ID, winner.Index, err)
	}
	revert := func() {
		if rerr := e.bids.SetState(ctx, a.ID, winner.Index, domain.BidWon, domain.BidActive); rerr != nil {
			e.logger.Printf("CRITICAL: bid %d/%d stuck WON after failed settlement: %v", a.ID, winner.Index, rerr)
		}
	}
	return e.settle(ctx, a, winner.Bidder, winner.Amount, revert)
}

// selectWinner returns the highest-amount ACTIVE bid; ties go to the
// earliest submitted. Refunded bids are out of escrow and never win.
func selectWinner(bids []*domain.Bid) *domain.Bid {
	var best *domain.Bid
	for _, b := range bids {
		if b.State != domain.BidActive {
			continue
		}
		if best == nil || b.Amount.Gt(best.Amount) {
			best = b
		}
	}
	return best
}
