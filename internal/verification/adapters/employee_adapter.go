package adapters

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	employeeModels "empverify/internal/employee/models"
	"empverify/internal/verification/models"
	"empverify/internal/verification/ports"
)

// EmployeeReader is the read side of the employee record store.
type EmployeeReader interface {
	FindByID(ctx context.Context, employeeID string) (*employeeModels.Record, error)
}

// EmployeeAdapter is an in-process adapter implementing ports.SubjectLookup
// over the employee record store. sentinel.ErrNotFound passes through untouched.
type EmployeeAdapter struct {
	records EmployeeReader
}

func NewEmployeeAdapter(records EmployeeReader) ports.SubjectLookup {
	return &EmployeeAdapter{records: records}
}

func (a *EmployeeAdapter) LookupSubject(ctx context.Context, subjectID string) (*models.CanonicalRecord, error) {
	ctx, span := otel.Tracer("empverify/verification").Start(ctx, "verification.LookupSubject")
	defer span.End()
	span.SetAttributes(attribute.String("verification.subject_id", subjectID))

	rec, err := a.records.FindByID(ctx, subjectID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return &models.CanonicalRecord{
		EmployeeID:    rec.EmployeeID,
		FullName:      rec.FullName,
		Designation:   rec.Designation,
		Department:    rec.Department,
		DateOfJoining: rec.DateOfJoining,
		DateOfLeaving: rec.DateOfLeaving,
		Status:        rec.Status,
	}, nil
}
