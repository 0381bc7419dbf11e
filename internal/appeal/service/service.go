package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"empverify/internal/appeal/models"
	"empverify/internal/appeal/ports"
	verificationModels "empverify/internal/verification/models"
	dErrors "empverify/pkg/domain-errors"
	"empverify/pkg/platform/audit"
	"empverify/pkg/platform/sentinel"
	txcontext "empverify/pkg/platform/tx"
	"empverify/pkg/requestcontext"
)

// FileRequest is a verifier's appeal against a failed verification.
type FileRequest struct {
	RequesterID   string
	SubjectID     string
	Reason        string
	ClaimedFields map[string]string
}

type Service struct {
	store          ports.Store
	attempts       ports.AttemptAdmin
	tx             ports.TxRunner
	auditPublisher ports.AuditPublisher
	logger         *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher ports.AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithTxRunner(runner ports.TxRunner) Option {
	return func(s *Service) {
		if runner != nil {
			s.tx = runner
		}
	}
}

func New(store ports.Store, attempts ports.AttemptAdmin, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("appeal store is required")
	}
	if attempts == nil {
		return nil, errors.New("attempt admin is required")
	}
	svc := &Service{
		store:    store,
		attempts: attempts,
		tx:       txcontext.NoopRunner{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// File opens a pending appeal. The pair must have recorded failures, and only
// one pending appeal per pair may exist.
func (s *Service) File(ctx context.Context, req FileRequest) (*models.Appeal, error) {
	pair, err := verificationModels.NewPair(req.RequesterID, req.SubjectID)
	if err != nil {
		return nil, err
	}
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "reason is required")
	}

	state, err := s.attempts.Inspect(ctx, pair.RequesterID, pair.SubjectID)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "no failed verification to appeal for this employee")
		}
		return nil, err
	}
	if state.ConsecutiveFailures == 0 && !state.Blocked {
		return nil, dErrors.New(dErrors.CodeNotFound, "no failed verification to appeal for this employee")
	}

	appeal := &models.Appeal{
		ID:            uuid.New(),
		RequesterID:   pair.RequesterID,
		SubjectID:     pair.SubjectID,
		Reason:        reason,
		ClaimedFields: req.ClaimedFields,
		Status:        models.StatusPending,
		CreatedAt:     requestcontext.Now(ctx),
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.Create(ctx, appeal); err != nil {
			return err
		}
		audit.LogAndEmit(ctx, s.logger, s.auditPublisher, audit.EventAppealFiled, audit.Event{
			RequesterID: appeal.RequesterID,
			SubjectID:   appeal.SubjectID,
			ActorID:     appeal.RequesterID,
			Decision:    string(models.StatusPending),
			Reason:      appeal.ID.String(),
		})
		return nil
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "a pending appeal already exists for this employee")
		}
		return nil, s.storeError(ctx, "file appeal", err)
	}
	return appeal, nil
}

func (s *Service) ListMine(ctx context.Context, requesterID string) ([]*models.Appeal, error) {
	appeals, err := s.store.ListByRequester(ctx, requesterID)
	if err != nil {
		return nil, s.storeError(ctx, "list appeals", err)
	}
	return appeals, nil
}

// List returns appeals with the given status; empty means all.
func (s *Service) List(ctx context.Context, status models.Status) ([]*models.Appeal, error) {
	if status != "" && !status.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "status must be one of: pending approved rejected")
	}
	appeals, err := s.store.ListByStatus(ctx, status)
	if err != nil {
		return nil, s.storeError(ctx, "list appeals", err)
	}
	return appeals, nil
}

// Resolve approves or rejects a pending appeal. Approval clears the pair's
// attempt ledger entry in the same transaction as the status change.
func (s *Service) Resolve(ctx context.Context, id uuid.UUID, decision models.Decision, note string) (*models.Appeal, error) {
	if !decision.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "decision must be one of: approve reject")
	}
	actor := requestcontext.Principal(ctx).ID

	var resolved *models.Appeal
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		appeal, err := s.store.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if !appeal.IsPending() {
			return sentinel.ErrConflict
		}
		appeal.Resolve(decision, strings.TrimSpace(note), actor, requestcontext.Now(ctx))
		if err := s.store.UpdateResolution(ctx, appeal); err != nil {
			return err
		}

		if decision == models.DecisionApprove {
			err := s.attempts.Clear(ctx, appeal.RequesterID, appeal.SubjectID, "appeal approved: "+appeal.ID.String())
			if err != nil && !dErrors.HasCode(err, dErrors.CodeNotFound) {
				return err
			}
		}

		audit.LogAndEmit(ctx, s.logger, s.auditPublisher, audit.EventAppealResolved, audit.Event{
			RequesterID: appeal.RequesterID,
			SubjectID:   appeal.SubjectID,
			ActorID:     actor,
			Decision:    string(appeal.Status),
			Reason:      appeal.ResolutionNote,
		})
		resolved = appeal
		return nil
	})
	switch {
	case err == nil:
		return resolved, nil
	case errors.Is(err, sentinel.ErrNotFound):
		return nil, dErrors.New(dErrors.CodeNotFound, "appeal not found")
	case errors.Is(err, sentinel.ErrConflict):
		return nil, dErrors.New(dErrors.CodeConflict, "appeal is already resolved")
	case dErrors.HasCode(err, dErrors.CodeUnavailable):
		return nil, err
	}
	return nil, s.storeError(ctx, "resolve appeal", err)
}

func (s *Service) storeError(ctx context.Context, op string, err error) error {
	s.logger.ErrorContext(ctx, "appeal store failure",
		"op", op,
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)
	return dErrors.Wrap(err, dErrors.CodeUnavailable, "appeals unavailable")
}
