package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"empverify/internal/verification/models"
	"empverify/pkg/platform/sentinel"
)

// PostgresStore persists attempt states in PostgreSQL. Every mutation is a
// single statement so concurrent handlers in different processes serialize on
// the row lock rather than on application locks.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const attemptColumns = `requester_id, subject_id, consecutive_failures, blocked, blocked_at, last_attempt_at`

func (s *PostgresStore) Get(ctx context.Context, pair models.Pair) (*models.AttemptState, error) {
	query := `SELECT ` + attemptColumns + ` FROM attempt_states WHERE requester_id = $1 AND subject_id = $2`
	state, err := scanAttemptState(s.db.QueryRowContext(ctx, query, pair.RequesterID, pair.SubjectID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get attempt state: %w", err)
	}
	return state, nil
}

// IncrementFailure adds one failure in a single upsert. The conflict branch
// only fires while the row is unblocked, so once blocked no row comes back and
// the counter never moves past the threshold. blocked_at is written only on
// the increment that reaches maxAttempts.
func (s *PostgresStore) IncrementFailure(ctx context.Context, pair models.Pair, maxAttempts int, now time.Time) (*models.FailureResult, error) {
	query := `
		INSERT INTO attempt_states AS t (requester_id, subject_id, consecutive_failures, blocked, blocked_at, last_attempt_at)
		VALUES ($1, $2, 1, 1 >= $3, CASE WHEN 1 >= $3 THEN $4::timestamptz END, $4)
		ON CONFLICT (requester_id, subject_id) DO UPDATE SET
			consecutive_failures = t.consecutive_failures + 1,
			blocked = t.consecutive_failures + 1 >= $3,
			blocked_at = CASE WHEN t.consecutive_failures + 1 >= $3 THEN $4::timestamptz ELSE NULL END,
			last_attempt_at = $4
		WHERE NOT t.blocked
		RETURNING ` + attemptColumns

	state, err := scanAttemptState(s.db.QueryRowContext(ctx, query, pair.RequesterID, pair.SubjectID, maxAttempts, now))
	if errors.Is(err, sql.ErrNoRows) {
		current, getErr := s.Get(ctx, pair)
		if getErr != nil {
			return nil, getErr
		}
		return &models.FailureResult{State: current, AlreadyBlocked: true}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("increment attempt failure: %w", err)
	}
	return &models.FailureResult{
		State:       state,
		JustBlocked: state.Blocked,
	}, nil
}

// Reset zeroes an unblocked pair. A blocked pair is left alone and reported.
func (s *PostgresStore) Reset(ctx context.Context, pair models.Pair, now time.Time) (*models.ResetResult, error) {
	query := `
		UPDATE attempt_states
		SET consecutive_failures = 0, blocked_at = NULL, last_attempt_at = $3
		WHERE requester_id = $1 AND subject_id = $2 AND NOT blocked
	`
	res, err := s.db.ExecContext(ctx, query, pair.RequesterID, pair.SubjectID, now)
	if err != nil {
		return nil, fmt.Errorf("reset attempt state: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("reset attempt state rows affected: %w", err)
	}
	if rows > 0 {
		return &models.ResetResult{}, nil
	}

	// No row touched: either the pair never failed or it is blocked.
	current, err := s.Get(ctx, pair)
	if err != nil {
		return nil, err
	}
	return &models.ResetResult{Blocked: current.IsBlocked()}, nil
}

func (s *PostgresStore) Clear(ctx context.Context, pair models.Pair) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM attempt_states WHERE requester_id = $1 AND subject_id = $2`, pair.RequesterID, pair.SubjectID)
	if err != nil {
		return fmt.Errorf("clear attempt state: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("clear attempt state rows affected: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListBlocked(ctx context.Context, limit int) ([]*models.AttemptState, error) {
	query := `SELECT ` + attemptColumns + ` FROM attempt_states WHERE blocked ORDER BY blocked_at DESC, requester_id, subject_id LIMIT $1`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list blocked attempt states: %w", err)
	}
	defer rows.Close()

	var states []*models.AttemptState
	for rows.Next() {
		state, err := scanAttemptState(rows)
		if err != nil {
			return nil, fmt.Errorf("scan blocked attempt state: %w", err)
		}
		states = append(states, state)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate blocked attempt states: %w", err)
	}
	return states, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAttemptState(row scanner) (*models.AttemptState, error) {
	var state models.AttemptState
	var blockedAt sql.NullTime
	if err := row.Scan(
		&state.RequesterID,
		&state.SubjectID,
		&state.ConsecutiveFailures,
		&state.Blocked,
		&blockedAt,
		&state.LastAttemptAt,
	); err != nil {
		return nil, err
	}
	if blockedAt.Valid {
		t := blockedAt.Time
		state.BlockedAt = &t
	}
	return &state, nil
}
