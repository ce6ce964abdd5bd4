// Package events fans auction audit events out to persistent storage and
// live subscribers. Publishing never blocks engine operations: events flow
// through a buffered channel and are dropped (and counted) under backpressure.
package events

import (
	"context"
	"log"
	"sync"
	"time"

	"nft-auction-engine/internal/domain"
	"nft-auction-engine/internal/observability"
	"nft-auction-engine/internal/storage"
)

const (
	defaultBuffer  = 256
	subBuffer      = 32
	persistTimeout = 5 * time.Second
)

// Recorder persists events to one or more EventStores and broadcasts them to
// subscribers. It implements engine.EventSink.
type Recorder struct {
	stores  []storage.EventStore
	metrics *observability.Metrics
	logger  *log.Logger

	ch   chan *domain.AuctionEvent
	done chan struct{}

	mu      sync.RWMutex
	subs    map[uint64]chan *domain.AuctionEvent
	nextSub uint64
	closed  bool
}

// RecorderOptions contains configuration for creating a Recorder.
type RecorderOptions struct {
	Stores  []storage.EventStore // nil entries are skipped
	Metrics *observability.Metrics
	Logger  *log.Logger
	Buffer  int // publish channel capacity; defaults to 256
}

// NewRecorder creates a Recorder and starts its delivery loop.
func NewRecorder(opts RecorderOptions) *Recorder {
	buffer := opts.Buffer
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	var stores []storage.EventStore
	for _, st := range opts.Stores {
		if st != nil {
			stores = append(stores, st)
		}
	}

	r := &Recorder{
		stores:  stores,
		metrics: opts.Metrics,
		logger:  logger,
		ch:      make(chan *domain.AuctionEvent, buffer),
		done:    make(chan struct{}),
		subs:    make(map[uint64]chan *domain.AuctionEvent),
	}
	go r.run()
	return r
}

// Publish enqueues an event for delivery. It never blocks: if the buffer is
// full the event is dropped and counted.
func (r *Recorder) Publish(e *domain.AuctionEvent) {
	if e == nil {
		return
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return
	}
	select {
	case r.ch <- e:
	default:
		r.countError()
		r.logger.Printf("[events] Dropped event %s for auction %d: buffer full", e.Kind, e.AuctionID)
	}
}

// Subscribe registers a live event feed. The returned cancel function must be
// called to release the subscription; the channel is closed on cancel or when
// the recorder shuts down. Slow subscribers miss events rather than stall
// delivery.
func (r *Recorder) Subscribe() (<-chan *domain.AuctionEvent, func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		ch := make(chan *domain.AuctionEvent)
		close(ch)
		return ch, func() {}
	}

	id := r.nextSub
	r.nextSub++
	ch := make(chan *domain.AuctionEvent, subBuffer)
	r.subs[id] = ch

	cancel := func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if sub, ok := r.subs[id]; ok {
			delete(r.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Close stops the delivery loop after draining buffered events and closes all
// subscriber channels.
func (r *Recorder) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	r.mu.Unlock()

	close(r.ch)
	<-r.done

	r.mu.Lock()
	defer r.mu.Unlock()
	for id, sub := range r.subs {
		delete(r.subs, id)
		close(sub)
	}
}

func (r *Recorder) run() {
	defer close(r.done)
	for e := range r.ch {
		r.persist(e)
		r.broadcast(e)
	}
}

func (r *Recorder) persist(e *domain.AuctionEvent) {
	for _, st := range r.stores {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		err := st.Insert(ctx, e)
		cancel()
		if err != nil {
			r.countError()
			r.logger.Printf("[events] Persist event %s for auction %d: %v", e.Kind, e.AuctionID, err)
		}
	}
}

func (r *Recorder) broadcast(e *domain.AuctionEvent) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, sub := range r.subs {
		select {
		case sub <- e.Clone():
		default:
			// subscriber is behind; skip rather than block delivery
		}
	}
}

func (r *Recorder) countError() {
	if r.metrics != nil {
		r.metrics.EventSinkErrors.Inc()
	}
}
