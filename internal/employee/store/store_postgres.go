package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"empverify/internal/employee/models"
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
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const employeeColumns = `employee_id, full_name, designation, department, date_of_joining, date_of_leaving, status, updated_at`

func (s *PostgresStore) FindByID(ctx context.Context, employeeID string) (*models.Record, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE employee_id = $1`
	var rec models.Record
	err := s.execer(ctx).QueryRowContext(ctx, query, employeeID).Scan(
		&rec.EmployeeID,
		&rec.FullName,
		&rec.Designation,
		&rec.Department,
		&rec.DateOfJoining,
		&rec.DateOfLeaving,
		&rec.Status,
		&rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find employee: %w", err)
	}
	return &rec, nil
}

func (s *PostgresStore) Upsert(ctx context.Context, record *models.Record) error {
	query := `
		INSERT INTO employees (` + employeeColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (employee_id) DO UPDATE SET
			full_name = EXCLUDED.full_name,
			designation = EXCLUDED.designation,
			department = EXCLUDED.department,
			date_of_joining = EXCLUDED.date_of_joining,
			date_of_leaving = EXCLUDED.date_of_leaving,
			status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		record.EmployeeID,
		record.FullName,
		record.Designation,
		record.Department,
		record.DateOfJoining,
		record.DateOfLeaving,
		record.Status,
		record.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert employee: %w", err)
	}
	return nil
}
