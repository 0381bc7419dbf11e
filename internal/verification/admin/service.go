// Package admin lets HR administrators inspect and clear attempt ledger entries.
package admin

import (
	"context"
	"errors"
	"log/slog"

	"empverify/internal/verification/metrics"
	"empverify/internal/verification/models"
	"empverify/internal/verification/ports"
	dErrors "empverify/pkg/domain-errors"
	"empverify/pkg/platform/audit"
	"empverify/pkg/platform/sentinel"
	"empverify/pkg/requestcontext"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

type Service struct {
	ledger         ports.AttemptLedger
	auditPublisher ports.AuditPublisher
	logger         *slog.Logger
	metrics        *metrics.Metrics
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

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func New(ledger ports.AttemptLedger, opts ...Option) (*Service, error) {
	if ledger == nil {
		return nil, errors.New("attempt ledger is required")
	}
	svc := &Service{ledger: ledger, logger: slog.Default()}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Inspect returns the pair's ledger state.
func (s *Service) Inspect(ctx context.Context, requesterID, subjectID string) (*models.AttemptState, error) {
	pair, err := models.NewPair(requesterID, subjectID)
	if err != nil {
		return nil, err
	}
	state, err := s.ledger.Get(ctx, pair)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "attempt ledger unavailable")
	}
	if state == nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "no attempts recorded for this pair")
	}
	return state, nil
}

// ListBlocked returns blocked pairs, most recent first. limit is clamped to [1, 500].
func (s *Service) ListBlocked(ctx context.Context, limit int) ([]*models.AttemptState, error) {
	switch {
	case limit <= 0:
		limit = defaultListLimit
	case limit > maxListLimit:
		limit = maxListLimit
	}
	states, err := s.ledger.ListBlocked(ctx, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "attempt ledger unavailable")
	}
	return states, nil
}

// Clear deletes the pair's ledger entry, unblocking it. reason ends up in the audit trail.
func (s *Service) Clear(ctx context.Context, requesterID, subjectID, reason string) error {
	pair, err := models.NewPair(requesterID, subjectID)
	if err != nil {
		return err
	}
	if err := s.ledger.Clear(ctx, pair); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "no attempts recorded for this pair")
		}
		s.logger.ErrorContext(ctx, "failed to clear attempts",
			"requester_id", pair.RequesterID,
			"subject_id", pair.SubjectID,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "attempt ledger unavailable")
	}

	if s.metrics != nil {
		s.metrics.IncrementPairsCleared()
	}
	audit.LogAndEmit(ctx, s.logger, s.auditPublisher, audit.EventAttemptsCleared, audit.Event{
		RequesterID: pair.RequesterID,
		SubjectID:   pair.SubjectID,
		ActorID:     requestcontext.Principal(ctx).ID,
		Decision:    "cleared",
		Reason:      reason,
	})
	return nil
}
