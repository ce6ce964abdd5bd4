// Package engine implements the auction state machine: asset custody,
// bid escrow, refunds and atomic settlement. All state-changing operations
// on one auction are serialized behind a per-auction lock; state transitions
// are committed to storage before any outbound transfer is issued.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/holiman/uint256"

	"nft-auction-engine/internal/assets"
	"nft-auction-engine/internal/domain"
	"nft-auction-engine/internal/escrow"
	"nft-auction-engine/internal/observability"
	"nft-auction-engine/internal/storage"
)

// EventSink receives audit events for every successful mutation.
// Publishing must not block engine operations.
type EventSink interface {
	Publish(e *domain.AuctionEvent)
}

// Config holds the engine's injected dependencies. Admin is the single
// administrator identity fixed at construction; there is no role mechanism
// beyond it.
type Config struct {
	Admin     string
	Clock     func() int64 // unix ms; defaults to wall clock
	Auctions  storage.AuctionStore
	Bids      storage.BidStore
	Slots     storage.WinningBidStore
	Allowlist storage.AllowlistStore
	Escrow    *escrow.Adapter
	Registry  assets.Registry
	Events    EventSink
	Metrics   *observability.Metrics
	Logger    *log.Logger
}

// Engine is the auction engine. Construct with New.
type Engine struct {
	admin     string
	now       func() int64
	auctions  storage.AuctionStore
	bids      storage.BidStore
	slots     storage.WinningBidStore
	allowlist storage.AllowlistStore
	escrow    *escrow.Adapter
	registry  assets.Registry
	events    EventSink
	metrics   *observability.Metrics
	logger    *log.Logger

	policies map[domain.Policy]auctionPolicy

	lockMu sync.Mutex
	locks  map[uint64]*sync.Mutex
}

// auctionPolicy is the per-generation escrow strategy. The engine validates
// everything policy-independent (existence, open state, deadline, attached
// value) before dispatching; policies own bid recording and settlement
// selection.
type auctionPolicy interface {
	placeBid(ctx context.Context, a *domain.Auction, bidder string, amount *uint256.Int) error
	complete(ctx context.Context, a *domain.Auction, caller string) error
}

// New validates the configuration and creates an engine.
func New(cfg Config) (*Engine, error) {
	if cfg.Admin == "" {
		return nil, fmt.Errorf("engine config: admin account required")
	}
	if cfg.Auctions == nil || cfg.Bids == nil || cfg.Slots == nil || cfg.Allowlist == nil {
		return nil, fmt.Errorf("engine config: all stores required")
	}
	if cfg.Escrow == nil {
		return nil, fmt.Errorf("engine config: escrow adapter required")
	}
	if cfg.Registry == nil {
		return nil, fmt.Errorf("engine config: asset registry required")
	}
	if cfg.Clock == nil {
		cfg.Clock = func() int64 { return time.Now().UnixMilli() }
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard, "", 0)
	}

	e := &Engine{
		admin:     cfg.Admin,
		now:       cfg.Clock,
		auctions:  cfg.Auctions,
		bids:      cfg.Bids,
		slots:     cfg.Slots,
		allowlist: cfg.Allowlist,
		escrow:    cfg.Escrow,
		registry:  cfg.Registry,
		events:    cfg.Events,
		metrics:   cfg.Metrics,
		logger:    cfg.Logger,
		locks:     make(map[uint64]*sync.Mutex),
	}
	e.policies = map[domain.Policy]auctionPolicy{
		domain.PolicyOpenLedger: &openLedgerPolicy{e: e},
		domain.PolicyLeaderSlot: &leaderSlotPolicy{e: e},
	}
	return e, nil
}

// SetAllowedToken marks a token mint as eligible for token-denominated
// auctions. Administrator only; idempotent.
func (e *Engine) SetAllowedToken(ctx context.Context, caller, mint string) error {
	if caller != e.admin {
		return fmt.Errorf("set allowed token by %s: %w", caller, ErrUnauthorized)
	}
	if mint == "" {
		return fmt.Errorf("set allowed token: %w: empty mint", storage.ErrInvalidInput)
	}
	if err := e.allowlist.Set(ctx, mint); err != nil {
		return fmt.Errorf("set allowed token %s: %w", mint, err)
	}
	return nil
}

// IsAllowedToken reports whether a mint is allow-listed. Pure lookup.
func (e *Engine) IsAllowedToken(ctx context.Context, mint string) (bool, error) {
	return e.allowlist.IsAllowed(ctx, mint)
}

// ListAllowedTokens returns all allow-listed mints.
func (e *Engine) ListAllowedTokens(ctx context.Context) ([]string, error) {
	return e.allowlist.List(ctx)
}

// CreateAuctionParams are the immutable terms of a new auction.
type CreateAuctionParams struct {
	Owner         string
	Policy        domain.Policy
	AssetContract string
	AssetID       uint64
	ReservePrice  *uint256.Int
	Currency      domain.Currency
	DeadlineMS    int64
}

// CreateAuction pulls the asset into custody and records a new OPEN
// auction. If the asset pull fails no record is created; if recording fails
// the asset is returned. Returns the assigned auction id.
func (e *Engine) CreateAuction(ctx context.Context, p CreateAuctionParams) (uint64, error) {
	defer e.observe("create_auction")()

	if _, ok := e.policies[p.Policy]; !ok {
		return 0, fmt.Errorf("create auction: %w: unknown policy %q", storage.ErrInvalidInput, p.Policy)
	}
	if p.Owner == "" || p.AssetContract == "" {
		return 0, fmt.Errorf("create auction: %w: owner and asset contract required", storage.ErrInvalidInput)
	}
	if p.ReservePrice == nil {
		return 0, fmt.Errorf("create auction: %w: reserve price required", storage.ErrInvalidInput)
	}
	now := e.now()
	if p.DeadlineMS <= now {
		return 0, fmt.Errorf("create auction: deadline %d, now %d: %w", p.DeadlineMS, now, ErrBadDeadline)
	}
	switch p.Currency.Kind {
	case domain.CurrencyNative:
		if p.Currency.TokenMint != "" {
			return 0, fmt.Errorf("create auction: %w: native auction with token mint", storage.ErrInvalidInput)
		}
	case domain.CurrencyToken:
		allowed, err := e.allowlist.IsAllowed(ctx, p.Currency.TokenMint)
		if err != nil {
			return 0, fmt.Errorf("create auction: check allow-list: %w", err)
		}
		if !allowed {
			return 0, fmt.Errorf("create auction: mint %s: %w", p.Currency.TokenMint, ErrTokenNotAllowed)
		}
	default:
		return 0, fmt.Errorf("create auction: %w: unknown currency kind %q", storage.ErrInvalidInput, p.Currency.Kind)
	}

	collection, err := e.registry.Collection(p.AssetContract)
	if err != nil {
		return 0, e.rejected("create_auction", fmt.Errorf("create auction: %w", err))
	}

	// Pull the asset into custody before any record exists. Requires the
	// owner to have approved the custodian as operator beforehand.
	custodian := e.escrow.Custodian()
	if err := collection.TransferFrom(ctx, custodian, p.Owner, custodian, p.AssetID); err != nil {
		return 0, e.rejected("create_auction", fmt.Errorf("pull asset %d: %w", p.AssetID, err))
	}

	a := &domain.Auction{
		Owner:         p.Owner,
		Policy:        p.Policy,
		AssetContract: p.AssetContract,
		AssetID:       p.AssetID,
		ReservePrice:  new(uint256.Int).Set(p.ReservePrice),
		Currency:      p.Currency,
		DeadlineMS:    p.DeadlineMS,
		State:         domain.AuctionOpen,
		CreatedAtMS:   now,
	}
	id, err := e.auctions.Insert(ctx, a)
	if err != nil {
		// Recording failed: return the asset so creation is all-or-nothing.
		if rerr := collection.TransferFrom(ctx, custodian, custodian, p.Owner, p.AssetID); rerr != nil {
			e.logger.Printf("CRITICAL: asset %d stranded in custody after failed insert: %v", p.AssetID, rerr)
		}
		return 0, fmt.Errorf("create auction: insert: %w", err)
	}

	if e.metrics != nil {
		e.metrics.AuctionsCreated.WithLabelValues(string(p.Policy), string(p.Currency.Kind)).Inc()
		e.metrics.OpenAuctions.Inc()
	}
	e.emit(&domain.AuctionEvent{
		AuctionID: id,
		Kind:      domain.EventAuctionCreated,
		Actor:     p.Owner,
		Currency:  p.Currency,
		Amount:    new(uint256.Int).Set(p.ReservePrice),
	})
	return id, nil
}

// BidAuction escrows a bid on an open auction. For native-currency auctions
// attached must equal amount exactly; for token auctions attached must be
// nil and the amount is pulled through the bidder's allowance.
func (e *Engine) BidAuction(ctx context.Context, auctionID uint64, bidder string, amount, attached *uint256.Int) error {
	defer e.observe("bid_auction")()

	unlock := e.lock(auctionID)
	defer unlock()

	a, err := e.loadOpen(ctx, auctionID)
	if err != nil {
		return err
	}
	if e.now() >= a.DeadlineMS {
		e.reject("expired")
		return fmt.Errorf("bid on auction %d: %w", auctionID, ErrAuctionExpired)
	}
	if amount == nil || amount.IsZero() {
		e.reject("zero_amount")
		return fmt.Errorf("bid on auction %d: %w: zero amount", auctionID, storage.ErrInvalidInput)
	}
	switch a.Currency.Kind {
	case domain.CurrencyNative:
		if attached == nil || !attached.Eq(amount) {
			e.reject("value_mismatch")
			return fmt.Errorf("bid on auction %d: %w", auctionID, ErrValueMismatch)
		}
	case domain.CurrencyToken:
		if attached != nil && !attached.IsZero() {
			e.reject("value_mismatch")
			return fmt.Errorf("bid on auction %d: native value on token auction: %w", auctionID, ErrValueMismatch)
		}
	}

	return e.policies[a.Policy].placeBid(ctx, a, bidder, amount)
}

// CompleteAuction settles an auction after its deadline: the winning bid
// transitions to WON, proceeds go to the seller and the asset to the winner,
// and the auction becomes COMPLETED. Exactly one completion ever succeeds.
func (e *Engine) CompleteAuction(ctx context.Context, auctionID uint64, caller string) error {
	defer e.observe("complete_auction")()

	unlock := e.lock(auctionID)
	defer unlock()

	a, err := e.loadOpen(ctx, auctionID)
	if err != nil {
		return err
	}
	now := e.now()
	if now < a.DeadlineMS {
		return fmt.Errorf("complete auction %d before deadline: %w", auctionID, ErrNotReady)
	}

	if err := e.policies[a.Policy].complete(ctx, a, caller); err != nil {
		return err
	}

	if e.metrics != nil {
		e.metrics.AuctionsSettled.WithLabelValues(string(a.Policy)).Inc()
		e.metrics.OpenAuctions.Dec()
		e.metrics.SettlementDelay.Observe(float64(now-a.DeadlineMS) / 1000)
	}
	return nil
}

// ClaimRefundBid returns a non-winning escrowed bid to its bidder.
// Open-ledger auctions only. Callable by anyone; funds always go to the
// recorded bidder.
func (e *Engine) ClaimRefundBid(ctx context.Context, auctionID uint64, bidIndex int) error {
	defer e.observe("claim_refund")()

	unlock := e.lock(auctionID)
	defer unlock()

	a, err := e.auctions.GetByID(ctx, auctionID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("auction %d: %w", auctionID, ErrNotFound)
		}
		return fmt.Errorf("load auction %d: %w", auctionID, err)
	}
	if a.Policy != domain.PolicyOpenLedger {
		return fmt.Errorf("auction %d has no claim path: %w", auctionID, ErrNotEligible)
	}

	b, err := e.bids.GetByIndex(ctx, auctionID, bidIndex)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("bid %d/%d: %w", auctionID, bidIndex, ErrNotFound)
		}
		return fmt.Errorf("load bid %d/%d: %w", auctionID, bidIndex, err)
	}
	switch b.State {
	case domain.BidWon:
		return fmt.Errorf("bid %d/%d won the auction: %w", auctionID, bidIndex, ErrNotEligible)
	case domain.BidRefunded:
		return fmt.Errorf("bid %d/%d: %w", auctionID, bidIndex, ErrAlreadyRefunded)
	}

	// Commit the transition before releasing funds so a reentrant claim
	// can never observe the bid as still refundable.
	if err := e.bids.SetState(ctx, auctionID, bidIndex, domain.BidActive, domain.BidRefunded); err != nil {
		if errors.Is(err, storage.ErrStateConflict) {
			return fmt.Errorf("bid %d/%d: %w", auctionID, bidIndex, ErrAlreadyRefunded)
		}
		return fmt.Errorf("mark bid %d/%d refunded: %w", auctionID, bidIndex, err)
	}
	if err := e.escrow.Release(ctx, a.Currency, b.Bidder, b.Amount); err != nil {
		if rerr := e.bids.SetState(ctx, auctionID, bidIndex, domain.BidRefunded, domain.BidActive); rerr != nil {
			e.logger.Printf("CRITICAL: bid %d/%d stuck in REFUNDED after failed release: %v", auctionID, bidIndex, rerr)
		}
		return e.rejected("claim_refund", fmt.Errorf("refund bid %d/%d: %w", auctionID, bidIndex, err))
	}

	if e.metrics != nil {
		e.metrics.RefundsIssued.WithLabelValues("claim").Inc()
	}
	e.emit(&domain.AuctionEvent{
		AuctionID:    auctionID,
		Kind:         domain.EventBidRefunded,
		Actor:        b.Bidder,
		Counterparty: b.Bidder,
		Amount:       new(uint256.Int).Set(b.Amount),
		Currency:     a.Currency,
	})
	return nil
}

// GetAuction retrieves an auction by id.
func (e *Engine) GetAuction(ctx context.Context, auctionID uint64) (*domain.Auction, error) {
	a, err := e.auctions.GetByID(ctx, auctionID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("auction %d: %w", auctionID, ErrNotFound)
		}
		return nil, err
	}
	return a, nil
}

// ListOpenAuctions retrieves all auctions still accepting bids or awaiting
// settlement.
func (e *Engine) ListOpenAuctions(ctx context.Context) ([]*domain.Auction, error) {
	return e.auctions.ListOpen(ctx)
}

// ListBids retrieves an open-ledger auction's bid list in submission order.
func (e *Engine) ListBids(ctx context.Context, auctionID uint64) ([]*domain.Bid, error) {
	return e.bids.GetByAuctionID(ctx, auctionID)
}

// GetWinningBid retrieves a leader-slot auction's current slot.
func (e *Engine) GetWinningBid(ctx context.Context, auctionID uint64) (*domain.WinningBid, error) {
	w, err := e.slots.Get(ctx, auctionID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("winning bid for auction %d: %w", auctionID, ErrNotFound)
		}
		return nil, err
	}
	return w, nil
}

// loadOpen fetches an auction and requires it to be OPEN.
func (e *Engine) loadOpen(ctx context.Context, auctionID uint64) (*domain.Auction, error) {
	a, err := e.auctions.GetByID(ctx, auctionID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("auction %d: %w", auctionID, ErrNotFound)
		}
		return nil, fmt.Errorf("load auction %d: %w", auctionID, err)
	}
	if a.State != domain.AuctionOpen {
		return nil, fmt.Errorf("auction %d: %w", auctionID, ErrAlreadySettled)
	}
	return a, nil
}

// lock serializes all mutations of one auction.
func (e *Engine) lock(auctionID uint64) func() {
	e.lockMu.Lock()
	l, ok := e.locks[auctionID]
	if !ok {
		l = &sync.Mutex{}
		e.locks[auctionID] = l
	}
	e.lockMu.Unlock()

	l.Lock()
	return l.Unlock
}

// emit publishes an audit event, filling id and timestamp.
func (e *Engine) emit(ev *domain.AuctionEvent) {
	if e.events == nil {
		return
	}
	ev.EventID = uuid.NewString()
	ev.TimestampMS = e.now()
	e.events.Publish(ev)
}

// rejected wraps a collaborator failure into ErrTransferRejected and counts it.
func (e *Engine) rejected(operation string, err error) error {
	if e.metrics != nil {
		e.metrics.TransferErrors.WithLabelValues(operation).Inc()
	}
	return fmt.Errorf("%w: %s", ErrTransferRejected, err)
}

// reject counts a rejected bid by reason.
func (e *Engine) reject(reason string) {
	if e.metrics != nil {
		e.metrics.BidsRejected.WithLabelValues(reason).Inc()
	}
}

// observe times an engine operation.
func (e *Engine) observe(operation string) func() {
	if e.metrics == nil {
		return func() {}
	}
	start := time.Now()
	return func() {
		e.metrics.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}
}
