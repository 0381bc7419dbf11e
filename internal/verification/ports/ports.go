// Package ports defines the interfaces the verification module consumes.
package ports

import (
	"context"
	"time"

	"empverify/internal/verification/models"
	"empverify/pkg/platform/audit"
)

// AttemptLedger is the durable per-pair failure counter. Implementations must
// make IncrementFailure and Reset single atomic operations in the backing store.
type AttemptLedger interface {
	// Get returns the pair's state, or nil when the pair has never failed.
	Get(ctx context.Context, pair models.Pair) (*models.AttemptState, error)

	// IncrementFailure adds one failure. JustBlocked comes from the same atomic
	// operation; AlreadyBlocked means nothing was counted.
	IncrementFailure(ctx context.Context, pair models.Pair, maxAttempts int, now time.Time) (*models.FailureResult, error)

	// Reset zeroes an unblocked pair's counter. Blocked pairs are left alone.
	Reset(ctx context.Context, pair models.Pair, now time.Time) (*models.ResetResult, error)

	// Clear deletes the pair's state. Returns sentinel.ErrNotFound if absent.
	Clear(ctx context.Context, pair models.Pair) error

	// ListBlocked returns blocked pairs, most recently blocked first.
	ListBlocked(ctx context.Context, limit int) ([]*models.AttemptState, error)
}

// SubjectLookup resolves a subject ID to its canonical record.
// A missing subject is reported as sentinel.ErrNotFound.
type SubjectLookup interface {
	LookupSubject(ctx context.Context, subjectID string) (*models.CanonicalRecord, error)
}

// AuditPublisher emits audit events for verification decisions.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}
