// Package main provides the unified auction engine server:
// - JSON API plus websocket event feed
// - Postgres-backed ledgers with a ClickHouse audit log, or all in-memory
// - a local stub asset chain with seeded demo accounts
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/holiman/uint256"
	"github.com/joho/godotenv"

	"nft-auction-engine/internal/assets/stub"
	"nft-auction-engine/internal/engine"
	"nft-auction-engine/internal/escrow"
	"nft-auction-engine/internal/events"
	"nft-auction-engine/internal/httpapi"
	"nft-auction-engine/internal/keys"
	"nft-auction-engine/internal/observability"
	"nft-auction-engine/internal/storage"
	chstore "nft-auction-engine/internal/storage/clickhouse"
	"nft-auction-engine/internal/storage/memory"
	"nft-auction-engine/internal/storage/migrations"
	pgstore "nft-auction-engine/internal/storage/postgres"
)

// allStores holds all storage implementations.
type allStores struct {
	auctionStore    storage.AuctionStore
	bidStore        storage.BidStore
	winningBidStore storage.WinningBidStore
	allowlistStore  storage.AllowlistStore
	eventStore      storage.EventStore
}

// chain holds the local stub asset chain the engine settles against.
type chain struct {
	native     *stub.Native
	registry   *stub.Registry
	collection *stub.Collection
	token      *stub.Token
	custodian  string
	collAddr   string
	tokenMint  string
	accounts   []string
}

func main() {
	// Load .env file if exists; system env vars take precedence.
	godotenv.Load()

	listenAddr := flag.String("listen-addr", envOr("LISTEN_ADDR", ":8080"), "API HTTP address")
	metricsAddr := flag.String("metrics-addr", envOr("METRICS_ADDR", ":9090"), "Prometheus metrics HTTP address")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string (optional audit log)")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL")
	adminKey := flag.String("admin-key", os.Getenv("ADMIN_KEY"), "Administrator account key (generated when empty)")
	seedAccounts := flag.Int("seed-accounts", 4, "Number of demo accounts to create on the stub chain")
	seedBalance := flag.String("seed-balance", "1000000000", "Native balance for each demo account, base units")
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	if !*useMemory && *postgresDSN == "" {
		logger.Fatal("--postgres-dsn is required (use --use-memory for in-memory storage)")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stores, cleanup, err := createStores(ctx, *postgresDSN, *clickhouseDSN, *useMemory, logger)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	admin := *adminKey
	if admin == "" {
		admin, err = keys.Generate()
		if err != nil {
			logger.Fatalf("Failed to generate admin key: %v", err)
		}
		logger.Printf("Generated admin key: %s", admin)
	} else if err := keys.Validate(admin); err != nil {
		logger.Fatalf("Invalid --admin-key: %v", err)
	}

	balance, err := uint256.FromDecimal(*seedBalance)
	if err != nil {
		logger.Fatalf("Invalid --seed-balance: %v", err)
	}
	ch, err := buildChain(*seedAccounts, balance, logger)
	if err != nil {
		logger.Fatalf("Failed to build stub chain: %v", err)
	}

	metrics := observability.NewMetrics("")

	recorder := events.NewRecorder(events.RecorderOptions{
		Stores:  []storage.EventStore{stores.eventStore},
		Metrics: metrics,
		Logger:  logger,
	})
	defer recorder.Close()

	eng, err := engine.New(engine.Config{
		Admin:     admin,
		Auctions:  stores.auctionStore,
		Bids:      stores.bidStore,
		Slots:     stores.winningBidStore,
		Allowlist: stores.allowlistStore,
		Escrow:    escrow.NewAdapter(ch.native, ch.registry, ch.custodian),
		Registry:  ch.registry,
		Events:    recorder,
		Metrics:   metrics,
		Logger:    logger,
	})
	if err != nil {
		logger.Fatalf("Failed to create engine: %v", err)
	}

	api := httpapi.NewServer(eng, recorder, logger)
	started := time.Now()

	mux := api.Routes()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /status", func(w http.ResponseWriter, r *http.Request) {
		storageMode := "postgres"
		if *useMemory {
			storageMode = "memory"
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(statusResponse{
			Status:       "running",
			Uptime:       time.Since(started).String(),
			Storage:      storageMode,
			AuditLog:     *clickhouseDSN != "" && !*useMemory,
			Custodian:    ch.custodian,
			DemoAccounts: ch.accounts,
			NFTContract:  ch.collAddr,
			TokenMint:    ch.tokenMint,
		})
	})

	apiServer := &http.Server{Addr: *listenAddr, Handler: mux}
	metricsServer := &http.Server{Addr: *metricsAddr, Handler: metricsMux()}

	errCh := make(chan error, 2)
	go func() {
		logger.Printf("API listening on %s", *listenAddr)
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("api server: %w", err)
		}
	}()
	go func() {
		logger.Printf("Metrics listening on %s", *metricsAddr)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("metrics server: %w", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
	case err := <-errCh:
		logger.Printf("Server error: %v", err)
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Printf("API shutdown: %v", err)
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logger.Printf("Metrics shutdown: %v", err)
	}

	logger.Println("Shutdown complete")
}

type statusResponse struct {
	Status       string   `json:"status"`
	Uptime       string   `json:"uptime"`
	Storage      string   `json:"storage"`
	AuditLog     bool     `json:"audit_log"`
	Custodian    string   `json:"custodian"`
	DemoAccounts []string `json:"demo_accounts"`
	NFTContract  string   `json:"nft_contract"`
	TokenMint    string   `json:"token_mint"`
}

func metricsMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.Handler())
	return mux
}

// createStores creates all required stores, applying migrations for the
// database-backed mode.
func createStores(ctx context.Context, postgresDSN, clickhouseDSN string, useMemory bool, logger *log.Logger) (*allStores, func(), error) {
	if useMemory {
		stores := &allStores{
			auctionStore:    memory.NewAuctionStore(),
			bidStore:        memory.NewBidStore(),
			winningBidStore: memory.NewWinningBidStore(),
			allowlistStore:  memory.NewAllowlistStore(),
			eventStore:      memory.NewEventStore(),
		}
		return stores, func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("run postgres migrations: %w", err)
	}

	stores := &allStores{
		auctionStore:    pgstore.NewAuctionStore(pool),
		bidStore:        pgstore.NewBidStore(pool),
		winningBidStore: pgstore.NewWinningBidStore(pool),
		allowlistStore:  pgstore.NewAllowlistStore(pool),
	}

	var chConn *chstore.Conn
	if clickhouseDSN != "" {
		chConn, err = migrations.RunClickhouseMigrations(ctx, clickhouseDSN)
		if err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("run clickhouse migrations: %w", err)
		}
		stores.eventStore = chstore.NewEventStore(chConn)
	} else {
		logger.Println("No ClickHouse DSN, keeping audit log in memory")
		stores.eventStore = memory.NewEventStore()
	}

	cleanup := func() {
		if chConn != nil {
			chConn.Close()
		}
		pool.Close()
	}
	return stores, cleanup, nil
}

// buildChain creates the stub asset chain: a native ledger, one NFT
// collection, one fungible token, and funded demo accounts holding the
// first asset ids.
func buildChain(accounts int, balance *uint256.Int, logger *log.Logger) (*chain, error) {
	custodian, err := keys.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate custodian key: %w", err)
	}
	collAddr, err := keys.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate collection address: %w", err)
	}
	tokenMint, err := keys.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate token mint: %w", err)
	}

	native := stub.NewNative()
	collection := stub.NewCollection()
	token := stub.NewToken()
	registry := stub.NewRegistry()
	registry.RegisterCollection(collAddr, collection)
	registry.RegisterToken(tokenMint, token)

	ch := &chain{
		native:     native,
		registry:   registry,
		collection: collection,
		token:      token,
		custodian:  custodian,
		collAddr:   collAddr,
		tokenMint:  tokenMint,
	}

	for i := 0; i < accounts; i++ {
		account, err := keys.Generate()
		if err != nil {
			return nil, fmt.Errorf("generate demo account: %w", err)
		}
		native.Fund(account, balance)
		token.Mint(account, balance)
		token.Approve(account, custodian, balance)
		collection.Mint(account, uint64(i+1))
		collection.SetApprovalForAll(account, custodian, true)
		ch.accounts = append(ch.accounts, account)
	}

	logger.Printf("Stub chain ready: custodian=%s collection=%s token=%s accounts=%s",
		custodian, collAddr, tokenMint, strings.Join(ch.accounts, ","))
	return ch, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
