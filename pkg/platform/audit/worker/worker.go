package worker

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"empverify/pkg/platform/audit/store/postgres"
)

// Sink receives outbox payloads.
type Sink interface {
	PublishRaw(ctx context.Context, key, action string, payload []byte) error
}

// OutboxRelay forwards unpublished audit_outbox rows to a sink on a fixed
// interval. A failed send leaves the row unpublished for the next tick.
type OutboxRelay struct {
	outbox    *postgres.Store
	sink      Sink
	logger    *slog.Logger
	interval  time.Duration
	batchSize int
}

type Option func(*OutboxRelay)

func WithInterval(d time.Duration) Option {
	return func(r *OutboxRelay) { r.interval = d }
}

func WithBatchSize(n int) Option {
	return func(r *OutboxRelay) { r.batchSize = n }
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *OutboxRelay) { r.logger = logger }
}

func NewOutboxRelay(outbox *postgres.Store, sink Sink, opts ...Option) *OutboxRelay {
	r := &OutboxRelay{
		outbox:    outbox,
		sink:      sink,
		logger:    slog.Default(),
		interval:  time.Second,
		batchSize: 100,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run relays until ctx is cancelled.
func (r *OutboxRelay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			n, err := r.RelayOnce(ctx)
			if err != nil {
				r.logger.WarnContext(ctx, "audit outbox relay failed", "error", err)
				continue
			}
			if n > 0 {
				r.logger.DebugContext(ctx, "audit outbox relayed", "count", n)
			}
		}
	}
}

// RelayOnce forwards one batch and returns how many rows were published.
func (r *OutboxRelay) RelayOnce(ctx context.Context) (int, error) {
	tx, err := r.outbox.DB().BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return 0, fmt.Errorf("begin outbox relay: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	entries, err := r.outbox.FetchUnpublished(ctx, tx, r.batchSize)
	if err != nil {
		return 0, err
	}

	published := make([]uuid.UUID, 0, len(entries))
	for _, e := range entries {
		if err := r.sink.PublishRaw(ctx, e.PartitionKey, e.Action, e.Payload); err != nil {
			// Keep order: stop at the first failure and retry from here next tick.
			r.logger.WarnContext(ctx, "audit outbox publish failed", "id", e.ID, "error", err)
			break
		}
		published = append(published, e.ID)
	}
	if len(published) == 0 {
		return 0, nil
	}
	if err := r.outbox.MarkPublished(ctx, tx, published, time.Now()); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit outbox relay: %w", err)
	}
	return len(published), nil
}
