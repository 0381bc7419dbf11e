package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"empverify/internal/appeal/models"
	"empverify/pkg/platform/sentinel"
	txcontext "empverify/pkg/platform/tx"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const appealColumns = `id, requester_id, subject_id, reason, claimed_fields, status, resolution_note, resolved_by, created_at, resolved_at`

// Create inserts a pending appeal. The partial unique index on pending
// appeals turns a second pending appeal for the pair into sentinel.ErrConflict.
func (s *PostgresStore) Create(ctx context.Context, appeal *models.Appeal) error {
	claimed, err := json.Marshal(appeal.ClaimedFields)
	if err != nil {
		return fmt.Errorf("marshal claimed fields: %w", err)
	}
	query := `INSERT INTO appeals (` + appealColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err = s.execer(ctx).ExecContext(ctx, query,
		appeal.ID,
		appeal.RequesterID,
		appeal.SubjectID,
		appeal.Reason,
		claimed,
		string(appeal.Status),
		appeal.ResolutionNote,
		appeal.ResolvedBy,
		appeal.CreatedAt,
		appeal.ResolvedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert appeal: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Appeal, error) {
	query := `SELECT ` + appealColumns + ` FROM appeals WHERE id = $1`
	appeal, err := scanAppeal(s.execer(ctx).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find appeal: %w", err)
	}
	return appeal, nil
}

// UpdateResolution writes the resolution only while the row is still pending,
// so two admins resolving the same appeal cannot both succeed.
func (s *PostgresStore) UpdateResolution(ctx context.Context, appeal *models.Appeal) error {
	query := `
		UPDATE appeals
		SET status = $2, resolution_note = $3, resolved_by = $4, resolved_at = $5
		WHERE id = $1 AND status = 'pending'`
	res, err := s.execer(ctx).ExecContext(ctx, query,
		appeal.ID,
		string(appeal.Status),
		appeal.ResolutionNote,
		appeal.ResolvedBy,
		appeal.ResolvedAt,
	)
	if err != nil {
		return fmt.Errorf("update appeal: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update appeal rows affected: %w", err)
	}
	if n == 0 {
		if _, err := s.FindByID(ctx, appeal.ID); err != nil {
			return err
		}
		return sentinel.ErrConflict
	}
	return nil
}

func (s *PostgresStore) ListByRequester(ctx context.Context, requesterID string) ([]*models.Appeal, error) {
	query := `SELECT ` + appealColumns + ` FROM appeals WHERE requester_id = $1 ORDER BY created_at DESC`
	return s.query(ctx, query, requesterID)
}

func (s *PostgresStore) ListByStatus(ctx context.Context, status models.Status) ([]*models.Appeal, error) {
	if status == "" {
		return s.query(ctx, `SELECT `+appealColumns+` FROM appeals ORDER BY created_at ASC`)
	}
	query := `SELECT ` + appealColumns + ` FROM appeals WHERE status = $1 ORDER BY created_at ASC`
	return s.query(ctx, query, string(status))
}

func (s *PostgresStore) query(ctx context.Context, query string, args ...any) ([]*models.Appeal, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list appeals: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Appeal, 0)
	for rows.Next() {
		a, err := scanAppeal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan appeal: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate appeals: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAppeal(row rowScanner) (*models.Appeal, error) {
	var (
		a          models.Appeal
		claimed    []byte
		status     string
		resolvedAt sql.NullTime
	)
	if err := row.Scan(
		&a.ID,
		&a.RequesterID,
		&a.SubjectID,
		&a.Reason,
		&claimed,
		&status,
		&a.ResolutionNote,
		&a.ResolvedBy,
		&a.CreatedAt,
		&resolvedAt,
	); err != nil {
		return nil, err
	}
	a.Status = models.Status(status)
	if len(claimed) > 0 {
		if err := json.Unmarshal(claimed, &a.ClaimedFields); err != nil {
			return nil, fmt.Errorf("decode claimed fields: %w", err)
		}
	}
	if resolvedAt.Valid {
		t := resolvedAt.Time
		a.ResolvedAt = &t
	}
	return &a, nil
}
