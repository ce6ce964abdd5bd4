package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/holiman/uint256"

	"nft-auction-engine/internal/domain"
	"nft-auction-engine/internal/storage"
)

// leaderSlotPolicy is the Generation 2 escrow strategy: one winning slot
// per auction. A bid must strictly exceed the current leader (or meet the
// reserve on the first bid); accepting it refunds the displaced leader
// within the same call, so at most one bid is ever locked per auction.
type leaderSlotPolicy struct {
	e *Engine
}

func (p *leaderSlotPolicy) placeBid(ctx context.Context, a *domain.Auction, bidder string, amount *uint256.Int) error {
	e := p.e

	prev, err := e.slots.Get(ctx, a.ID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("load winning bid for auction %d: %w", a.ID, err)
	}
	if prev == nil {
		if amount.Lt(a.ReservePrice) {
			e.reject("below_reserve")
			return fmt.Errorf("bid %s below reserve %s on auction %d: %w",
				amount.Dec(), a.ReservePrice.Dec(), a.ID, ErrBidTooLow)
		}
	} else if !amount.Gt(prev.Amount) {
		e.reject("below_leader")
		return fmt.Errorf("bid %s does not exceed leader %s on auction %d: %w",
			amount.Dec(), prev.Amount.Dec(), a.ID, ErrBidTooLow)
	}

	if err := e.escrow.Pull(ctx, a.Currency, bidder, amount); err != nil {
		e.reject("transfer")
		return e.rejected("bid", fmt.Errorf("escrow bid on auction %d: %w", a.ID, err))
	}

	next := &domain.WinningBid{
		AuctionID:   a.ID,
		Bidder:      bidder,
		Amount:      new(uint256.Int).Set(amount),
		State:       domain.BidActive,
		UpdatedAtMS: e.now(),
	}
	if err := e.slots.Put(ctx, next); err != nil {
		if rerr := e.escrow.Release(ctx, a.Currency, bidder, amount); rerr != nil {
			e.logger.Printf("CRITICAL: bid escrow stranded for %s on auction %d: %v", bidder, a.ID, rerr)
		}
		return fmt.Errorf("record winning bid on auction %d: %w", a.ID, err)
	}

	// Slot committed; now return the displaced leader's escrow. A failed
	// refund unwinds the whole call so the prior state is preserved.
	if prev != nil {
		if err := e.escrow.Release(ctx, a.Currency, prev.Bidder, prev.Amount); err != nil {
			if rerr := e.slots.Put(ctx, prev); rerr != nil {
				e.logger.Printf("CRITICAL: auction %d slot not restored after failed refund: %v", a.ID, rerr)
			}
			if rerr := e.escrow.Release(ctx, a.Currency, bidder, amount); rerr != nil {
				e.logger.Printf("CRITICAL: bid escrow stranded for %s on auction %d: %v", bidder, a.ID, rerr)
			}
			return e.rejected("refund", fmt.Errorf("refund displaced leader %s on auction %d: %w", prev.Bidder, a.ID, err))
		}
		if e.metrics != nil {
			e.metrics.RefundsIssued.WithLabelValues("auto").Inc()
		}
		e.emit(&domain.AuctionEvent{
			AuctionID:    a.ID,
			Kind:         domain.EventBidRefunded,
			Actor:        bidder,
			Counterparty: prev.Bidder,
			Amount:       new(uint256.Int).Set(prev.Amount),
			Currency:     a.Currency,
		})
	}

	if e.metrics != nil {
		e.metrics.BidsPlaced.WithLabelValues(string(domain.PolicyLeaderSlot)).Inc()
	}
	e.emit(&domain.AuctionEvent{
		AuctionID: a.ID,
		Kind:      domain.EventBidPlaced,
		Actor:     bidder,
		Amount:    new(uint256.Int).Set(amount),
		Currency:  a.Currency,
	})
	return nil
}

func (p *leaderSlotPolicy) complete(ctx context.Context, a *domain.Auction, caller string) error {
	e := p.e

	slot, err := e.slots.Get(ctx, a.ID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// Nothing was ever escrowed; the asset stays in custody.
			return fmt.Errorf("complete auction %d: %w", a.ID, ErrNoBids)
		}
		return fmt.Errorf("load winning bid for auction %d: %w", a.ID, err)
	}
	if caller != a.Owner && caller != slot.Bidder {
		return fmt.Errorf("complete auction %d by %s: %w", a.ID, caller, ErrUnauthorized)
	}

	if err := e.slots.SetState(ctx, a.ID, domain.BidActive, domain.BidWon); err != nil {
		if errors.Is(err, storage.ErrStateConflict) {
			return fmt.Errorf("auction %d: %w", a.ID, ErrAlreadySettled)
		}
		return fmt.Errorf("mark winning bid won for auction %d: %w", a.ID, err)
	}
	revert := func() {
		if rerr := e.slots.SetState(ctx, a.ID, domain.BidWon, domain.BidActive); rerr != nil {
			e.logger.Printf("CRITICAL: auction %d slot stuck WON after failed settlement: %v", a.ID, rerr)
		}
	}
	return e.settle(ctx, a, slot.Bidder, slot.Amount, revert)
}
