// Package ports defines what the appeal module needs from other modules.
package ports

import (
	"context"

	"github.com/google/uuid"

	"empverify/internal/appeal/models"
	verificationModels "empverify/internal/verification/models"
	"empverify/pkg/platform/audit"
)

type Store interface {
	Create(ctx context.Context, appeal *models.Appeal) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Appeal, error)
	UpdateResolution(ctx context.Context, appeal *models.Appeal) error
	ListByRequester(ctx context.Context, requesterID string) ([]*models.Appeal, error)
	ListByStatus(ctx context.Context, status models.Status) ([]*models.Appeal, error)
}

// AttemptAdmin reads and clears the attempt ledger entry an appeal is about.
type AttemptAdmin interface {
	Inspect(ctx context.Context, requesterID, subjectID string) (*verificationModels.AttemptState, error)
	Clear(ctx context.Context, requesterID, subjectID, reason string) error
}

type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}
