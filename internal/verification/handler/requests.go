package handler

import (
	"strings"

	"empverify/internal/verification/models"
	dErrors "empverify/pkg/domain-errors"
)

// VerifyRequest is the body of POST /v1/verifications.
type VerifyRequest struct {
	EmployeeID string            `json:"employee_id" validate:"required,max=64"`
	Fields     map[string]string `json:"fields" validate:"required"`
}

func (r *VerifyRequest) Normalize() {
	r.EmployeeID = models.NormalizeSubjectID(r.EmployeeID)
	for k, v := range r.Fields {
		r.Fields[k] = strings.TrimSpace(v)
	}
}

func (r *VerifyRequest) Validate() error {
	if len(r.Fields) == 0 {
		return dErrors.New(dErrors.CodeValidation, "fields must not be empty")
	}
	return nil
}

// ClearRequest is the optional body of DELETE /admin/attempts/{requesterID}/{subjectID}.
type ClearRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

func (r *ClearRequest) Normalize() {
	r.Reason = strings.TrimSpace(r.Reason)
}

func (r *ClearRequest) Validate() error { return nil }
