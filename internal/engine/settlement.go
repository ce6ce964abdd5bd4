package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/holiman/uint256"

	"nft-auction-engine/internal/domain"
	"nft-auction-engine/internal/storage"
)

// settle performs the terminal transition shared by both policies: the
// auction flips to COMPLETED, the custodied asset goes to the winner and
// the escrowed proceeds go to the seller. The winning bid's own transition
// must already be committed; revertWinner undoes it if settlement fails
// before any value moved.
func (e *Engine) settle(ctx context.Context, a *domain.Auction, winner string, proceeds *uint256.Int, revertWinner func()) error {
	if err := e.auctions.SetState(ctx, a.ID, domain.AuctionOpen, domain.AuctionCompleted); err != nil {
		revertWinner()
		if errors.Is(err, storage.ErrStateConflict) {
			return fmt.Errorf("auction %d: %w", a.ID, ErrAlreadySettled)
		}
		return fmt.Errorf("complete auction %d: %w", a.ID, err)
	}

	// Asset out first: if this fails nothing has moved yet and the whole
	// transition is reverted. The proceeds release afterwards can only
	// fail if custody itself was broken; that is logged, not unwound.
	collection, err := e.registry.Collection(a.AssetContract)
	if err == nil {
		err = collection.TransferFrom(ctx, e.escrow.Custodian(), e.escrow.Custodian(), winner, a.AssetID)
	}
	if err != nil {
		if rerr := e.auctions.SetState(ctx, a.ID, domain.AuctionCompleted, domain.AuctionOpen); rerr != nil {
			e.logger.Printf("CRITICAL: auction %d stuck COMPLETED after failed asset transfer: %v", a.ID, rerr)
		}
		revertWinner()
		return e.rejected("settlement", fmt.Errorf("transfer asset %d to %s: %w", a.AssetID, winner, err))
	}

	if err := e.escrow.Release(ctx, a.Currency, a.Owner, proceeds); err != nil {
		// The asset already left custody; the winner has not approved the
		// custodian, so it cannot be pulled back. Custody of the proceeds
		// is intact, only their release failed.
		e.logger.Printf("CRITICAL: auction %d settled but proceeds release to %s failed: %v", a.ID, a.Owner, err)
		return e.rejected("settlement", fmt.Errorf("release proceeds to %s: %w", a.Owner, err))
	}

	e.emit(&domain.AuctionEvent{
		AuctionID:    a.ID,
		Kind:         domain.EventAuctionSettled,
		Actor:        winner,
		Counterparty: a.Owner,
		Amount:       new(uint256.Int).Set(proceeds),
		Currency:     a.Currency,
	})
	return nil
}
