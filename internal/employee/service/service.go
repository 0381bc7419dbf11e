package service

import (
	"context"
	"errors"
	"log/slog"

	"empverify/internal/employee/models"
	dErrors "empverify/pkg/domain-errors"
	"empverify/pkg/platform/audit"
	"empverify/pkg/platform/sentinel"
	txcontext "empverify/pkg/platform/tx"
	"empverify/pkg/requestcontext"
)

// Store persists canonical employee records.
type Store interface {
	FindByID(ctx context.Context, employeeID string) (*models.Record, error)
	Upsert(ctx context.Context, record *models.Record) error
}

// TxRunner runs fn in a transaction shared by the store and the audit outbox.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Service struct {
	store          Store
	tx             TxRunner
	auditPublisher AuditPublisher
	logger         *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithTxRunner(runner TxRunner) Option {
	return func(s *Service) {
		if runner != nil {
			s.tx = runner
		}
	}
}

func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("employee store is required")
	}
	svc := &Service{store: store, tx: txcontext.NoopRunner{}, logger: slog.Default()}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Get returns the record for employeeID. Missing records are CodeNotFound;
// store failures are CodeUnavailable.
func (s *Service) Get(ctx context.Context, employeeID string) (*models.Record, error) {
	rec, err := s.store.FindByID(ctx, models.NormalizeID(employeeID))
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "employee not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "employee records unavailable")
	}
	return rec, nil
}

// Upsert validates and stores a record and audits the change in the same transaction.
func (s *Service) Upsert(ctx context.Context, record *models.Record) (*models.Record, error) {
	rec := *record
	rec.Normalize()
	if err := rec.Validate(); err != nil {
		return nil, err
	}
	rec.UpdatedAt = requestcontext.Now(ctx)

	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.Upsert(ctx, &rec); err != nil {
			return err
		}
		audit.LogAndEmit(ctx, s.logger, s.auditPublisher, audit.EventEmployeeUpserted, audit.Event{
			SubjectID: rec.EmployeeID,
			ActorID:   requestcontext.Principal(ctx).ID,
			Decision:  "upserted",
		})
		return nil
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to upsert employee",
			"employee_id", rec.EmployeeID,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "employee records unavailable")
	}
	return &rec, nil
}

// Import upserts a batch of records, stopping at the first failure. It
// returns how many records were written.
func (s *Service) Import(ctx context.Context, records []models.Record) (int, error) {
	for i := range records {
		if _, err := s.Upsert(ctx, &records[i]); err != nil {
			return i, err
		}
	}
	return len(records), nil
}
