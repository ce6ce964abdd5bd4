// Package httpapi exposes the auction engine over JSON HTTP plus a
// websocket event feed. Caller identity travels in the X-Account-Key
// header and is validated as a base58 account key before any engine call.
package httpapi

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/holiman/uint256"

	"nft-auction-engine/internal/domain"
	"nft-auction-engine/internal/engine"
	"nft-auction-engine/internal/events"
	"nft-auction-engine/internal/keys"
	"nft-auction-engine/internal/storage"
)

const accountKeyHeader = "X-Account-Key"

// Server wires engine operations to HTTP routes.
type Server struct {
	engine   *engine.Engine
	recorder *events.Recorder
	logger   *log.Logger
}

// NewServer creates an API server. recorder may be nil; the websocket feed
// then reports unavailable.
func NewServer(eng *engine.Engine, recorder *events.Recorder, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{engine: eng, recorder: recorder, logger: logger}
}

// Routes registers all API routes on a new mux.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/auctions", s.handleCreateAuction)
	mux.HandleFunc("GET /v1/auctions", s.handleListAuctions)
	mux.HandleFunc("GET /v1/auctions/{id}", s.handleGetAuction)
	mux.HandleFunc("POST /v1/auctions/{id}/bids", s.handlePlaceBid)
	mux.HandleFunc("GET /v1/auctions/{id}/bids", s.handleListBids)
	mux.HandleFunc("GET /v1/auctions/{id}/winning-bid", s.handleGetWinningBid)
	mux.HandleFunc("POST /v1/auctions/{id}/complete", s.handleComplete)
	mux.HandleFunc("POST /v1/auctions/{id}/bids/{index}/refund", s.handleRefund)
	mux.HandleFunc("GET /v1/allowed-tokens", s.handleListAllowedTokens)
	mux.HandleFunc("POST /v1/allowed-tokens", s.handleSetAllowedToken)
	mux.HandleFunc("GET /v1/events/ws", s.handleEventFeed)

	return mux
}

type currencyJSON struct {
	Kind      string `json:"kind"`
	TokenMint string `json:"token_mint,omitempty"`
}

type auctionJSON struct {
	ID            uint64       `json:"id"`
	Owner         string       `json:"owner"`
	Policy        string       `json:"policy"`
	AssetContract string       `json:"asset_contract"`
	AssetID       uint64       `json:"asset_id"`
	ReservePrice  string       `json:"reserve_price"`
	Currency      currencyJSON `json:"currency"`
	DeadlineMS    int64        `json:"deadline_ms"`
	State         string       `json:"state"`
	CreatedAtMS   int64        `json:"created_at_ms"`
}

type bidJSON struct {
	AuctionID  uint64 `json:"auction_id"`
	Index      int    `json:"index"`
	Bidder     string `json:"bidder"`
	Amount     string `json:"amount"`
	State      string `json:"state"`
	PlacedAtMS int64  `json:"placed_at_ms"`
}

type winningBidJSON struct {
	AuctionID   uint64 `json:"auction_id"`
	Bidder      string `json:"bidder"`
	Amount      string `json:"amount"`
	State       string `json:"state"`
	UpdatedAtMS int64  `json:"updated_at_ms"`
}

type errorJSON struct {
	Error string `json:"error"`
}

func auctionToJSON(a *domain.Auction) auctionJSON {
	return auctionJSON{
		ID:            a.ID,
		Owner:         a.Owner,
		Policy:        string(a.Policy),
		AssetContract: a.AssetContract,
		AssetID:       a.AssetID,
		ReservePrice:  a.ReservePrice.Dec(),
		Currency: currencyJSON{
			Kind:      string(a.Currency.Kind),
			TokenMint: a.Currency.TokenMint,
		},
		DeadlineMS:  a.DeadlineMS,
		State:       string(a.State),
		CreatedAtMS: a.CreatedAtMS,
	}
}

func bidToJSON(b *domain.Bid) bidJSON {
	return bidJSON{
		AuctionID:  b.AuctionID,
		Index:      b.Index,
		Bidder:     b.Bidder,
		Amount:     b.Amount.Dec(),
		State:      string(b.State),
		PlacedAtMS: b.PlacedAtMS,
	}
}

type createAuctionRequest struct {
	Policy        string       `json:"policy"`
	AssetContract string       `json:"asset_contract"`
	AssetID       uint64       `json:"asset_id"`
	ReservePrice  string       `json:"reserve_price"`
	Currency      currencyJSON `json:"currency"`
	DeadlineMS    int64        `json:"deadline_ms"`
}

func (s *Server) handleCreateAuction(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.callerKey(w, r)
	if !ok {
		return
	}

	var req createAuctionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	reserve, err := uint256.FromDecimal(req.ReservePrice)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid reserve_price")
		return
	}

	currency := domain.Currency{
		Kind:      domain.CurrencyKind(req.Currency.Kind),
		TokenMint: req.Currency.TokenMint,
	}

	id, err := s.engine.CreateAuction(r.Context(), engine.CreateAuctionParams{
		Owner:         caller,
		Policy:        domain.Policy(req.Policy),
		AssetContract: req.AssetContract,
		AssetID:       req.AssetID,
		ReservePrice:  reserve,
		Currency:      currency,
		DeadlineMS:    req.DeadlineMS,
	})
	if err != nil {
		s.writeEngineError(w, err)
		return
	}

	a, err := s.engine.GetAuction(r.Context(), id)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, auctionToJSON(a))
}

func (s *Server) handleListAuctions(w http.ResponseWriter, r *http.Request) {
	auctions, err := s.engine.ListOpenAuctions(r.Context())
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	out := make([]auctionJSON, 0, len(auctions))
	for _, a := range auctions {
		out = append(out, auctionToJSON(a))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetAuction(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	a, err := s.engine.GetAuction(r.Context(), id)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, auctionToJSON(a))
}

type placeBidRequest struct {
	Amount   string `json:"amount"`
	Attached string `json:"attached,omitempty"` // native value sent with the bid
}

func (s *Server) handlePlaceBid(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.callerKey(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req placeBidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	amount, err := uint256.FromDecimal(req.Amount)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid amount")
		return
	}
	var attached *uint256.Int
	if req.Attached != "" {
		attached, err = uint256.FromDecimal(req.Attached)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "invalid attached value")
			return
		}
	}

	if err := s.engine.BidAuction(r.Context(), id, caller, amount, attached); err != nil {
		s.writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListBids(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	bids, err := s.engine.ListBids(r.Context(), id)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	out := make([]bidJSON, 0, len(bids))
	for _, b := range bids {
		out = append(out, bidToJSON(b))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetWinningBid(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	wb, err := s.engine.GetWinningBid(r.Context(), id)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, winningBidJSON{
		AuctionID:   wb.AuctionID,
		Bidder:      wb.Bidder,
		Amount:      wb.Amount.Dec(),
		State:       string(wb.State),
		UpdatedAtMS: wb.UpdatedAtMS,
	})
}

func (s *Server) handleComplete(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.callerKey(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := s.engine.CompleteAuction(r.Context(), id, caller); err != nil {
		s.writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRefund(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.callerKey(w, r); !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	indexStr := r.PathValue("index")
	index, err := strconv.Atoi(indexStr)
	if err != nil || index < 0 {
		writeError(w, http.StatusBadRequest, "invalid bid index")
		return
	}
	if err := s.engine.ClaimRefundBid(r.Context(), id, index); err != nil {
		s.writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type allowTokenRequest struct {
	TokenMint string `json:"token_mint"`
}

func (s *Server) handleSetAllowedToken(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.callerKey(w, r)
	if !ok {
		return
	}
	var req allowTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.engine.SetAllowedToken(r.Context(), caller, req.TokenMint); err != nil {
		s.writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListAllowedTokens(w http.ResponseWriter, r *http.Request) {
	mints, err := s.engine.ListAllowedTokens(r.Context())
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	if mints == nil {
		mints = []string{}
	}
	writeJSON(w, http.StatusOK, mints)
}

// callerKey extracts and validates the caller identity header. Writes a 401
// and returns false when absent or malformed.
func (s *Server) callerKey(w http.ResponseWriter, r *http.Request) (string, bool) {
	key := r.Header.Get(accountKeyHeader)
	if key == "" {
		writeError(w, http.StatusUnauthorized, "missing "+accountKeyHeader+" header")
		return "", false
	}
	if err := keys.Validate(key); err != nil {
		writeError(w, http.StatusUnauthorized, "invalid account key")
		return "", false
	}
	return key, true
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (uint64, bool) {
	id, err := strconv.ParseUint(r.PathValue(name), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid auction id")
		return 0, false
	}
	return id, true
}

// writeEngineError maps engine error taxonomy to HTTP statuses.
func (s *Server) writeEngineError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, engine.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, engine.ErrNotFound), errors.Is(err, storage.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, engine.ErrBidTooLow):
		status = http.StatusPaymentRequired
	case errors.Is(err, engine.ErrNotReady),
		errors.Is(err, engine.ErrAuctionExpired),
		errors.Is(err, engine.ErrAlreadySettled),
		errors.Is(err, engine.ErrAlreadyRefunded),
		errors.Is(err, engine.ErrNotEligible),
		errors.Is(err, engine.ErrNoBids),
		errors.Is(err, storage.ErrStateConflict):
		status = http.StatusConflict
	case errors.Is(err, engine.ErrBadDeadline),
		errors.Is(err, engine.ErrTokenNotAllowed),
		errors.Is(err, engine.ErrValueMismatch),
		errors.Is(err, storage.ErrInvalidInput):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, engine.ErrTransferRejected):
		status = http.StatusBadGateway
	}

	if status == http.StatusInternalServerError {
		s.logger.Printf("[api] Internal error: %v", err)
		writeError(w, status, "internal error")
		return
	}
	writeError(w, status, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorJSON{Error: msg})
}
