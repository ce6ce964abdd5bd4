// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the engine.
type Metrics struct {
	// Auction lifecycle metrics
	AuctionsCreated *prometheus.CounterVec
	AuctionsSettled *prometheus.CounterVec
	OpenAuctions    prometheus.Gauge

	// Bid metrics
	BidsPlaced   *prometheus.CounterVec
	BidsRejected *prometheus.CounterVec

	// Escrow metrics
	RefundsIssued   *prometheus.CounterVec
	TransferErrors  *prometheus.CounterVec
	EventSinkErrors prometheus.Counter

	// Latency metrics
	OperationDuration *prometheus.HistogramVec
	SettlementDelay   prometheus.Histogram
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "auction_engine"
	}

	return &Metrics{
		AuctionsCreated: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auctions",
			Name:      "created_total",
			Help:      "Total number of auctions created by policy and currency kind",
		}, []string{"policy", "currency"}),
		AuctionsSettled: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auctions",
			Name:      "settled_total",
			Help:      "Total number of auctions settled by policy",
		}, []string{"policy"}),
		OpenAuctions: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "auctions",
			Name:      "open",
			Help:      "Number of auctions currently in OPEN state",
		}),

		BidsPlaced: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bids",
			Name:      "placed_total",
			Help:      "Total number of bids accepted by policy",
		}, []string{"policy"}),
		BidsRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bids",
			Name:      "rejected_total",
			Help:      "Total number of bids rejected by reason",
		}, []string{"reason"}),

		RefundsIssued: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "escrow",
			Name:      "refunds_total",
			Help:      "Total number of refunds issued by mode (auto on overbid, or explicit claim)",
		}, []string{"mode"}),
		TransferErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "escrow",
			Name:      "transfer_errors_total",
			Help:      "Total number of rejected collaborator transfers by operation",
		}, []string{"operation"}),
		EventSinkErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "sink_errors_total",
			Help:      "Total number of event records that failed to persist",
		}),

		OperationDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "operation_duration_seconds",
			Help:      "Engine operation latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		SettlementDelay: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "auctions",
			Name:      "settlement_delay_seconds",
			Help:      "Delay between the deadline and the settlement call",
			Buckets:   []float64{1, 10, 60, 300, 1800, 3600, 21600, 86400},
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
