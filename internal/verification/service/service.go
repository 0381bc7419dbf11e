package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"empverify/internal/verification/compare"
	"empverify/internal/verification/metrics"
	"empverify/internal/verification/models"
	"empverify/internal/verification/ports"
	dErrors "empverify/pkg/domain-errors"
	"empverify/pkg/platform/audit"
	"empverify/pkg/platform/sentinel"
	"empverify/pkg/requestcontext"
)

const defaultStoreTimeout = 2 * time.Second

// Request is one verification attempt.
type Request struct {
	RequesterID string
	SubjectID   string
	Fields      map[string]string
}

// Service is the validation gate: it compares a submission against the
// subject's record and counts failures per (requester, subject) pair.
type Service struct {
	ledger         ports.AttemptLedger
	lookup         ports.SubjectLookup
	auditPublisher ports.AuditPublisher
	logger         *slog.Logger
	metrics        *metrics.Metrics
	tracer         trace.Tracer
	maxAttempts    int
	storeTimeout   time.Duration
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

func WithMaxAttempts(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// WithStoreTimeout bounds every ledger and lookup call.
func WithStoreTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.storeTimeout = d
		}
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

func New(ledger ports.AttemptLedger, lookup ports.SubjectLookup, opts ...Option) (*Service, error) {
	if ledger == nil {
		return nil, errors.New("attempt ledger is required")
	}
	if lookup == nil {
		return nil, errors.New("subject lookup is required")
	}

	svc := &Service{
		ledger:       ledger,
		lookup:       lookup,
		logger:       slog.Default(),
		tracer:       otel.Tracer("empverify/verification"),
		maxAttempts:  models.DefaultMaxAttempts,
		storeTimeout: defaultStoreTimeout,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// MaxAttempts is the failure threshold the gate blocks at.
func (s *Service) MaxAttempts() int {
	return s.maxAttempts
}

// Validate decides one attempt. Ledger and lookup outages are returned as
// CodeUnavailable errors and no outcome: an attempt that could not be counted
// is never reported as an ordinary rejection.
func (s *Service) Validate(ctx context.Context, req Request) (outcome models.Outcome, err error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "verification.Validate")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetAttributes(attribute.String("verification.outcome", string(outcome.Kind())))
			if s.metrics != nil {
				s.metrics.ObserveOutcome(string(outcome.Kind()), time.Since(start).Seconds())
			}
		}
		span.End()
	}()

	pair, err := models.NewPair(req.RequesterID, req.SubjectID)
	if err != nil {
		return models.InvalidRequest{Reason: dErrors.MessageOf(err)}, nil
	}
	if err := compare.ValidateSubmission(req.Fields); err != nil {
		return models.InvalidRequest{Reason: dErrors.MessageOf(err)}, nil
	}
	span.SetAttributes(
		attribute.String("verification.requester_id", pair.RequesterID),
		attribute.String("verification.subject_id", pair.SubjectID),
	)

	state, err := s.getState(ctx, pair)
	if err != nil {
		return nil, err
	}
	if state.IsBlocked() {
		s.logBlockedAttempt(ctx, pair)
		return models.Blocked{}, nil
	}

	record, err := s.lookupSubject(ctx, pair.SubjectID)
	if err != nil {
		return nil, err
	}

	report := compare.Compare(req.Fields, record)
	if record == nil || !report.AllMatched() {
		return s.recordFailure(ctx, pair)
	}
	return s.recordSuccess(ctx, pair, report)
}

func (s *Service) getState(ctx context.Context, pair models.Pair) (*models.AttemptState, error) {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	state, err := s.ledger.Get(ctx, pair)
	if err != nil {
		return nil, s.ledgerUnavailable(ctx, "get", pair, err)
	}
	return state, nil
}

func (s *Service) lookupSubject(ctx context.Context, subjectID string) (*models.CanonicalRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	record, err := s.lookup.LookupSubject(ctx, subjectID)
	if errors.Is(err, sentinel.ErrNotFound) {
		// Not found is an ordinary failed attempt.
		return nil, nil
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "subject lookup failed",
			"subject_id", subjectID,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "employee records unavailable")
	}
	return record, nil
}

func (s *Service) recordFailure(ctx context.Context, pair models.Pair) (models.Outcome, error) {
	now := requestcontext.Now(ctx)
	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	res, err := s.ledger.IncrementFailure(storeCtx, pair, s.maxAttempts, now)
	if err != nil {
		return nil, s.ledgerUnavailable(ctx, "increment", pair, err)
	}

	switch {
	case res.AlreadyBlocked:
		s.logBlockedAttempt(ctx, pair)
		return models.Blocked{}, nil
	case res.JustBlocked:
		if s.metrics != nil {
			s.metrics.IncrementPairsBlocked()
		}
		audit.LogAndEmit(ctx, s.logger, s.auditPublisher, audit.EventPairBlocked, audit.Event{
			RequesterID: pair.RequesterID,
			SubjectID:   pair.SubjectID,
			Decision:    string(models.KindJustBlocked),
			Reason:      "max_attempts_reached",
		})
		return models.JustBlocked{}, nil
	}

	remaining := res.State.RemainingAttempts(s.maxAttempts)
	audit.LogAndEmit(ctx, s.logger, s.auditPublisher, audit.EventVerificationRejected, audit.Event{
		RequesterID: pair.RequesterID,
		SubjectID:   pair.SubjectID,
		Decision:    string(models.KindRejected),
		Reason:      "mismatch",
	})
	return models.Rejected{RemainingAttempts: remaining}, nil
}

func (s *Service) recordSuccess(ctx context.Context, pair models.Pair, report models.Report) (models.Outcome, error) {
	now := requestcontext.Now(ctx)
	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	res, err := s.ledger.Reset(storeCtx, pair, now)
	if err != nil {
		return nil, s.ledgerUnavailable(ctx, "reset", pair, err)
	}
	if res.Blocked {
		// A concurrent failure blocked the pair between the pre-check and now.
		s.logBlockedAttempt(ctx, pair)
		return models.Blocked{}, nil
	}

	audit.LogAndEmit(ctx, s.logger, s.auditPublisher, audit.EventVerificationAccepted, audit.Event{
		RequesterID: pair.RequesterID,
		SubjectID:   pair.SubjectID,
		Decision:    string(models.KindAccepted),
	})
	return models.Accepted{Report: report}, nil
}

func (s *Service) logBlockedAttempt(ctx context.Context, pair models.Pair) {
	audit.LogAndEmit(ctx, s.logger, s.auditPublisher, audit.EventBlockedAttempt, audit.Event{
		RequesterID: pair.RequesterID,
		SubjectID:   pair.SubjectID,
		Decision:    string(models.KindBlocked),
	})
}

func (s *Service) ledgerUnavailable(ctx context.Context, op string, pair models.Pair, err error) error {
	if s.metrics != nil {
		s.metrics.IncrementLedgerError(op)
	}
	s.logger.ErrorContext(ctx, "attempt ledger unavailable",
		"op", op,
		"requester_id", pair.RequesterID,
		"subject_id", pair.SubjectID,
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)
	return dErrors.Wrap(err, dErrors.CodeUnavailable, "attempt ledger unavailable")
}
