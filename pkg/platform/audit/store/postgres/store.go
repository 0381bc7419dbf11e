package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	audit "empverify/pkg/platform/audit"
	txcontext "empverify/pkg/platform/tx"
)

// Store implements audit.Store with the transactional outbox pattern. Events
// land in audit_outbox, inside the caller's transaction when one is in the
// context, and the outbox relay forwards them to Kafka.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// Entry is an unpublished outbox row.
type Entry struct {
	ID           uuid.UUID
	Action       string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

// Append writes an audit event to the outbox.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	id, err := uuid.Parse(event.ID)
	if err != nil {
		id = uuid.New()
		event.ID = id.String()
	}
	if event.Category == "" {
		event.Category = audit.AuditEvent(event.Action).Category()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	query := `
		INSERT INTO audit_outbox (id, action, category, partition_key, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING
	`
	_, err = s.execer(ctx).ExecContext(ctx, query,
		id,
		event.Action,
		string(event.Category),
		event.PartitionKey(),
		payload,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("insert outbox entry: %w", err)
	}
	return nil
}

// FetchUnpublished returns up to limit unpublished entries, oldest first.
// Rows are locked with SKIP LOCKED so concurrent relays do not double-send.
func (s *Store) FetchUnpublished(ctx context.Context, tx *sql.Tx, limit int) ([]Entry, error) {
	query := `
		SELECT id, action, partition_key, payload, created_at
		FROM audit_outbox
		WHERE published_at IS NULL
		ORDER BY created_at
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`
	rows, err := tx.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query outbox: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Action, &e.PartitionKey, &e.Payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan outbox entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outbox: %w", err)
	}
	return entries, nil
}

// MarkPublished stamps entries as delivered.
func (s *Store) MarkPublished(ctx context.Context, tx *sql.Tx, ids []uuid.UUID, at time.Time) error {
	for _, id := range ids {
		if _, err := tx.ExecContext(ctx, `UPDATE audit_outbox SET published_at = $2 WHERE id = $1`, id, at); err != nil {
			return fmt.Errorf("mark outbox entry published: %w", err)
		}
	}
	return nil
}

// DB exposes the handle the relay opens transactions on.
func (s *Store) DB() *sql.DB {
	return s.db
}
