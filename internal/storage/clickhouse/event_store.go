package clickhouse

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/holiman/uint256"

	"nft-auction-engine/internal/domain"
	"nft-auction-engine/internal/storage"
)

// EventStore implements storage.EventStore using ClickHouse.
// MergeTree does not enforce uniqueness; event ids are uuids generated by
// the engine, so collisions do not occur in practice and duplicates are
// tolerated by readers.
type EventStore struct {
	conn *Conn
}

// NewEventStore creates a new EventStore.
func NewEventStore(conn *Conn) *EventStore {
	return &EventStore{conn: conn}
}

// Compile-time interface check.
var _ storage.EventStore = (*EventStore)(nil)

const eventColumns = `
	event_id, auction_id, kind, actor, counterparty,
	amount, currency_kind, token_mint, timestamp_ms
`

// Insert adds a new event.
func (s *EventStore) Insert(ctx context.Context, e *domain.AuctionEvent) error {
	if e == nil || e.EventID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO auction_events (` + eventColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	amount := "0"
	if e.Amount != nil {
		amount = e.Amount.Dec()
	}
	err := s.conn.Exec(ctx, query,
		e.EventID,
		e.AuctionID,
		string(e.Kind),
		e.Actor,
		e.Counterparty,
		amount,
		string(e.Currency.Kind),
		e.Currency.TokenMint,
		e.TimestampMS,
	)
	if err != nil {
		return fmt.Errorf("insert auction event: %w", err)
	}
	return nil
}

// GetByAuctionID retrieves all events for an auction, ordered by timestamp ASC.
func (s *EventStore) GetByAuctionID(ctx context.Context, auctionID uint64) ([]*domain.AuctionEvent, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM auction_events
		WHERE auction_id = ?
		ORDER BY timestamp_ms ASC
	`

	rows, err := s.conn.Query(ctx, query, auctionID)
	if err != nil {
		return nil, fmt.Errorf("get events by auction: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// GetByTimeRange retrieves events within [start, end] (inclusive, ms).
func (s *EventStore) GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.AuctionEvent, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM auction_events
		WHERE timestamp_ms >= ? AND timestamp_ms <= ?
		ORDER BY timestamp_ms ASC
	`

	rows, err := s.conn.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("get events by time range: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func scanEvents(rows driver.Rows) ([]*domain.AuctionEvent, error) {
	var result []*domain.AuctionEvent
	for rows.Next() {
		var (
			e            domain.AuctionEvent
			kind         string
			amountText   string
			currencyKind string
		)
		err := rows.Scan(
			&e.EventID, &e.AuctionID, &kind, &e.Actor, &e.Counterparty,
			&amountText, &currencyKind, &e.Currency.TokenMint, &e.TimestampMS,
		)
		if err != nil {
			return nil, fmt.Errorf("scan auction event: %w", err)
		}
		e.Kind = domain.EventKind(kind)
		e.Currency.Kind = domain.CurrencyKind(currencyKind)
		amount, err := uint256.FromDecimal(amountText)
		if err != nil {
			return nil, fmt.Errorf("parse stored amount %q: %w", amountText, err)
		}
		e.Amount = amount
		result = append(result, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate auction events: %w", err)
	}
	return result, nil
}
