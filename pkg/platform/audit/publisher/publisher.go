// Package publisher delivers audit events to an audit.Store either inline or
// through a bounded background buffer.
package publisher

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	audit "empverify/pkg/platform/audit"
)

const defaultBatchSize = 64

var (
	eventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "empverify_audit_events_dropped_total",
		Help: "Audit events dropped because the async buffer was full",
	})
	persistFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "empverify_audit_persist_failures_total",
		Help: "Audit events the store failed to accept",
	})
)

// Publisher emits audit events to a store. Without WithAsyncBuffer every Emit
// writes through synchronously.
type Publisher struct {
	store  audit.Store
	logger *slog.Logger

	buffer  *ringBuffer
	notify  chan struct{}
	done    chan struct{}
	closeMu sync.Once
	wg      sync.WaitGroup
}

type Option func(*Publisher)

// WithAsyncBuffer makes Emit non-blocking with a buffer of capacity events.
func WithAsyncBuffer(capacity int) Option {
	return func(p *Publisher) {
		p.buffer = newRingBuffer(capacity)
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{
		store:  store,
		logger: slog.Default(),
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.buffer != nil {
		p.wg.Add(1)
		go p.drainLoop()
	}
	return p
}

// Emit stamps the event and writes or enqueues it.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if p.buffer == nil {
		if err := p.store.Append(ctx, event); err != nil {
			persistFailures.Inc()
			return err
		}
		return nil
	}
	if p.buffer.enqueue(event) {
		eventsDropped.Inc()
	}
	select {
	case p.notify <- struct{}{}:
	default:
	}
	return nil
}

// Pending returns the number of buffered events not yet written.
func (p *Publisher) Pending() int {
	if p.buffer == nil {
		return 0
	}
	return p.buffer.len()
}

// Dropped returns how many buffered events were discarded for newer ones.
func (p *Publisher) Dropped() int64 {
	if p.buffer == nil {
		return 0
	}
	return p.buffer.droppedTotal()
}

// Close stops the background loop after draining the buffer.
func (p *Publisher) Close() {
	p.closeMu.Do(func() {
		close(p.done)
	})
	p.wg.Wait()
}

func (p *Publisher) drainLoop() {
	defer p.wg.Done()
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-p.done:
			p.flush()
			return
		case <-p.notify:
			p.flush()
		case <-ticker.C:
			p.flush()
		}
	}
}

func (p *Publisher) flush() {
	ctx := context.Background()
	for {
		batch := p.buffer.dequeueBatch(defaultBatchSize)
		if len(batch) == 0 {
			return
		}
		for _, event := range batch {
			if err := p.store.Append(ctx, event); err != nil {
				persistFailures.Inc()
				p.logger.Error("failed to persist audit event",
					"action", event.Action,
					"event_id", event.ID,
					"error", err,
				)
			}
		}
	}
}
