package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"nft-auction-engine/internal/domain"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type eventJSON struct {
	EventID      string       `json:"event_id"`
	AuctionID    uint64       `json:"auction_id"`
	Kind         string       `json:"kind"`
	Actor        string       `json:"actor,omitempty"`
	Counterparty string       `json:"counterparty,omitempty"`
	Amount       string       `json:"amount"`
	Currency     currencyJSON `json:"currency"`
	TimestampMS  int64        `json:"timestamp_ms"`
}

func eventToJSON(e *domain.AuctionEvent) eventJSON {
	amount := "0"
	if e.Amount != nil {
		amount = e.Amount.Dec()
	}
	return eventJSON{
		EventID:      e.EventID,
		AuctionID:    e.AuctionID,
		Kind:         string(e.Kind),
		Actor:        e.Actor,
		Counterparty: e.Counterparty,
		Amount:       amount,
		Currency: currencyJSON{
			Kind:      string(e.Currency.Kind),
			TokenMint: e.Currency.TokenMint,
		},
		TimestampMS: e.TimestampMS,
	}
}

// handleEventFeed streams auction events over a websocket. Each connection
// holds its own recorder subscription; clients that fall behind miss events
// rather than stall the recorder.
func (s *Server) handleEventFeed(w http.ResponseWriter, r *http.Request) {
	if s.recorder == nil {
		writeError(w, http.StatusServiceUnavailable, "event feed unavailable")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Printf("[api] Websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	feed, cancel := s.recorder.Subscribe()
	defer cancel()

	done := make(chan struct{})

	// Read loop exists only to notice the client going away.
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case e, ok := <-feed:
			if !ok {
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"))
				return
			}
			payload, err := json.Marshal(eventToJSON(e))
			if err != nil {
				continue
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		case <-r.Context().Done():
			return
		}
	}
}
