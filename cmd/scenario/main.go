// Package main drives scripted auction runs against the stub asset chain:
// one open-ledger auction in native currency and one leader-slot auction in
// an allow-listed token, from creation through settlement and refunds. It
// verifies value conservation at the end and exits non-zero on violation.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/holiman/uint256"

	"nft-auction-engine/internal/assets/stub"
	"nft-auction-engine/internal/domain"
	"nft-auction-engine/internal/engine"
	"nft-auction-engine/internal/escrow"
	"nft-auction-engine/internal/keys"
	"nft-auction-engine/internal/storage/memory"
)

func main() {
	reserve := flag.String("reserve", "1.5", "Reserve price, human decimal units")
	bids := flag.String("bids", "1.5,2,2.5,4", "Comma-separated bid amounts, human decimal units")
	decimals := flag.Int("decimals", 9, "Decimal places of the currency")
	flag.Parse()

	logger := log.New(os.Stderr, "[scenario] ", log.LstdFlags)

	reservePrice, err := domain.ParseAmount(*reserve, int32(*decimals))
	if err != nil {
		logger.Fatalf("parse --reserve: %v", err)
	}
	var amounts []*uint256.Int
	for _, part := range strings.Split(*bids, ",") {
		a, err := domain.ParseAmount(strings.TrimSpace(part), int32(*decimals))
		if err != nil {
			logger.Fatalf("parse --bids entry %q: %v", part, err)
		}
		amounts = append(amounts, a)
	}
	if len(amounts) < 2 {
		logger.Fatal("--bids needs at least two amounts")
	}

	r := newRun(logger, reservePrice, amounts, int32(*decimals))

	if err := r.runOpenLedger(context.Background()); err != nil {
		logger.Fatalf("open-ledger scenario: %v", err)
	}
	if err := r.runLeaderSlot(context.Background()); err != nil {
		logger.Fatalf("leader-slot scenario: %v", err)
	}
	if err := r.checkConservation(context.Background()); err != nil {
		logger.Fatalf("conservation: %v", err)
	}

	fmt.Println("OK")
}

type run struct {
	logger   *log.Logger
	reserve  *uint256.Int
	amounts  []*uint256.Int
	decimals int32

	clock     int64
	engine    *engine.Engine
	native    *stub.Native
	token     *stub.Token
	nft       *stub.Collection
	custodian string
	collAddr  string
	tokenMint string
	admin     string
	owner     string
	bidders   []string

	initialPerAccount *uint256.Int
}

func newRun(logger *log.Logger, reserve *uint256.Int, amounts []*uint256.Int, decimals int32) *run {
	r := &run{
		logger:   logger,
		reserve:  reserve,
		amounts:  amounts,
		decimals: decimals,
		clock:    1_000_000,
	}

	r.admin = mustKey(logger)
	r.owner = mustKey(logger)
	r.custodian = mustKey(logger)
	r.collAddr = mustKey(logger)
	r.tokenMint = mustKey(logger)
	for range amounts {
		r.bidders = append(r.bidders, mustKey(logger))
	}

	r.native = stub.NewNative()
	r.token = stub.NewToken()
	r.nft = stub.NewCollection()
	registry := stub.NewRegistry()
	registry.RegisterCollection(r.collAddr, r.nft)
	registry.RegisterToken(r.tokenMint, r.token)

	// Fund every bidder with double the largest bid so both scenarios fit.
	largest := new(uint256.Int)
	for _, a := range amounts {
		if a.Gt(largest) {
			largest.Set(a)
		}
	}
	r.initialPerAccount = new(uint256.Int).Mul(largest, uint256.NewInt(4))
	for _, b := range r.bidders {
		r.native.Fund(b, r.initialPerAccount)
		r.token.Mint(b, r.initialPerAccount)
		r.token.Approve(b, r.custodian, r.initialPerAccount)
	}

	r.nft.Mint(r.owner, 1)
	r.nft.Mint(r.owner, 2)
	r.nft.SetApprovalForAll(r.owner, r.custodian, true)

	eng, err := engine.New(engine.Config{
		Admin:     r.admin,
		Clock:     func() int64 { return r.clock },
		Auctions:  memory.NewAuctionStore(),
		Bids:      memory.NewBidStore(),
		Slots:     memory.NewWinningBidStore(),
		Allowlist: memory.NewAllowlistStore(),
		Escrow:    escrow.NewAdapter(r.native, registry, r.custodian),
		Registry:  registry,
		Logger:    logger,
	})
	if err != nil {
		logger.Fatalf("create engine: %v", err)
	}
	r.engine = eng
	return r
}

// runOpenLedger auctions asset 1 in native currency: every bid is escrowed,
// the owner settles after the deadline, losers claim refunds explicitly.
func (r *run) runOpenLedger(ctx context.Context) error {
	deadline := r.clock + 60_000
	id, err := r.engine.CreateAuction(ctx, engine.CreateAuctionParams{
		Owner:         r.owner,
		Policy:        domain.PolicyOpenLedger,
		AssetContract: r.collAddr,
		AssetID:       1,
		ReservePrice:  r.reserve,
		Currency:      domain.Native(),
		DeadlineMS:    deadline,
	})
	if err != nil {
		return fmt.Errorf("create: %w", err)
	}
	r.logger.Printf("open-ledger auction %d created, reserve %s", id, domain.FormatAmount(r.reserve, r.decimals))

	for i, amount := range r.amounts {
		if err := r.engine.BidAuction(ctx, id, r.bidders[i], amount, amount); err != nil {
			return fmt.Errorf("bid %d: %w", i, err)
		}
		r.logger.Printf("bid %d: %s by %s", i, domain.FormatAmount(amount, r.decimals), short(r.bidders[i]))
	}

	r.clock = deadline + 1
	if err := r.engine.CompleteAuction(ctx, id, r.owner); err != nil {
		return fmt.Errorf("complete: %w", err)
	}

	bids, err := r.engine.ListBids(ctx, id)
	if err != nil {
		return fmt.Errorf("list bids: %w", err)
	}
	for _, b := range bids {
		if b.State != domain.BidActive {
			continue
		}
		if err := r.engine.ClaimRefundBid(ctx, id, b.Index); err != nil {
			return fmt.Errorf("claim refund %d: %w", b.Index, err)
		}
		r.logger.Printf("refund claimed for bid %d (%s)", b.Index, short(b.Bidder))
	}

	winnerOwner, err := r.nft.OwnerOf(ctx, 1)
	if err != nil {
		return fmt.Errorf("owner of asset 1: %w", err)
	}
	r.logger.Printf("open-ledger settled, asset 1 now owned by %s", short(winnerOwner))
	return nil
}

// runLeaderSlot auctions asset 2 in the allow-listed token: each higher bid
// displaces the leader and refunds it in the same operation.
func (r *run) runLeaderSlot(ctx context.Context) error {
	if err := r.engine.SetAllowedToken(ctx, r.admin, r.tokenMint); err != nil {
		return fmt.Errorf("allow token: %w", err)
	}

	deadline := r.clock + 60_000
	id, err := r.engine.CreateAuction(ctx, engine.CreateAuctionParams{
		Owner:         r.owner,
		Policy:        domain.PolicyLeaderSlot,
		AssetContract: r.collAddr,
		AssetID:       2,
		ReservePrice:  r.reserve,
		Currency:      domain.Token(r.tokenMint),
		DeadlineMS:    deadline,
	})
	if err != nil {
		return fmt.Errorf("create: %w", err)
	}
	r.logger.Printf("leader-slot auction %d created", id)

	for i, amount := range r.amounts {
		err := r.engine.BidAuction(ctx, id, r.bidders[i], amount, nil)
		if err != nil {
			// Equal or lower follow-up bids are rejected by design; skip them.
			if i > 0 && !amount.Gt(r.amounts[i-1]) {
				r.logger.Printf("bid %d rejected as expected: %v", i, err)
				continue
			}
			return fmt.Errorf("bid %d: %w", i, err)
		}
		r.logger.Printf("leader now %s at %s", short(r.bidders[i]), domain.FormatAmount(amount, r.decimals))
	}

	r.clock = deadline + 1
	if err := r.engine.CompleteAuction(ctx, id, r.owner); err != nil {
		return fmt.Errorf("complete: %w", err)
	}

	winnerOwner, err := r.nft.OwnerOf(ctx, 2)
	if err != nil {
		return fmt.Errorf("owner of asset 2: %w", err)
	}
	r.logger.Printf("leader-slot settled, asset 2 now owned by %s", short(winnerOwner))
	return nil
}

// checkConservation verifies no value was created or destroyed: the
// custodian holds nothing after settlement and everything escrowed sits with
// either the auction owner or the refunded bidders.
func (r *run) checkConservation(ctx context.Context) error {
	for name, book := range map[string]interface {
		BalanceOf(context.Context, string) (*uint256.Int, error)
	}{"native": r.native, "token": r.token} {
		held, err := book.BalanceOf(ctx, r.custodian)
		if err != nil {
			return err
		}
		if !held.IsZero() {
			return fmt.Errorf("%s: custodian still holds %s", name, held.Dec())
		}

		total := new(uint256.Int)
		for _, account := range append([]string{r.owner}, r.bidders...) {
			b, err := book.BalanceOf(ctx, account)
			if err != nil {
				return err
			}
			total.Add(total, b)
		}
		expected := new(uint256.Int).Mul(r.initialPerAccount, uint256.NewInt(uint64(len(r.bidders))))
		if !total.Eq(expected) {
			return fmt.Errorf("%s: total %s, expected %s", name, total.Dec(), expected.Dec())
		}
		r.logger.Printf("%s conservation holds: %s", name, total.Dec())
	}
	return nil
}

func short(key string) string {
	if len(key) <= 8 {
		return key
	}
	return key[:8]
}

func mustKey(logger *log.Logger) string {
	k, err := keys.Generate()
	if err != nil {
		logger.Fatalf("generate key: %v", err)
	}
	return k
}
