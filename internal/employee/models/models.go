package models

import (
	"strings"
	"time"

	dErrors "empverify/pkg/domain-errors"
)

const dateLayout = "2006-01-02"

// Employment statuses recorded by HR.
const (
	StatusActive     = "active"
	StatusResigned   = "resigned"
	StatusTerminated = "terminated"
	StatusRetired    = "retired"
)

// Record is the authoritative employment record HR maintains for an employee.
type Record struct {
	EmployeeID    string    `json:"employee_id" yaml:"employee_id"`
	FullName      string    `json:"full_name" yaml:"full_name"`
	Designation   string    `json:"designation" yaml:"designation"`
	Department    string    `json:"department" yaml:"department"`
	DateOfJoining string    `json:"date_of_joining" yaml:"date_of_joining"`
	DateOfLeaving string    `json:"date_of_leaving" yaml:"date_of_leaving"`
	Status        string    `json:"status" yaml:"status"`
	UpdatedAt     time.Time `json:"updated_at" yaml:"-"`
}

// Normalize trims every field and uppercases the employee ID.
func (r *Record) Normalize() {
	r.EmployeeID = NormalizeID(r.EmployeeID)
	r.FullName = strings.TrimSpace(r.FullName)
	r.Designation = strings.TrimSpace(r.Designation)
	r.Department = strings.TrimSpace(r.Department)
	r.DateOfJoining = strings.TrimSpace(r.DateOfJoining)
	r.DateOfLeaving = strings.TrimSpace(r.DateOfLeaving)
	r.Status = strings.ToLower(strings.TrimSpace(r.Status))
}

// Validate checks required fields and date formats. Dates are optional but
// must be YYYY-MM-DD when present, and leaving cannot precede joining.
func (r *Record) Validate() error {
	if r.EmployeeID == "" {
		return dErrors.New(dErrors.CodeValidation, "employee_id is required")
	}
	if r.FullName == "" {
		return dErrors.New(dErrors.CodeValidation, "full_name is required")
	}
	joined, err := parseDate("date_of_joining", r.DateOfJoining)
	if err != nil {
		return err
	}
	left, err := parseDate("date_of_leaving", r.DateOfLeaving)
	if err != nil {
		return err
	}
	if !joined.IsZero() && !left.IsZero() && left.Before(joined) {
		return dErrors.New(dErrors.CodeValidation, "date_of_leaving is before date_of_joining")
	}
	switch r.Status {
	case "", StatusActive, StatusResigned, StatusTerminated, StatusRetired:
	default:
		return dErrors.New(dErrors.CodeValidation, "status must be one of: active resigned terminated retired")
	}
	return nil
}

func parseDate(field, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, dErrors.New(dErrors.CodeValidation, field+" must be YYYY-MM-DD")
	}
	return t, nil
}

// NormalizeID trims and uppercases an employee ID.
func NormalizeID(employeeID string) string {
	return strings.ToUpper(strings.TrimSpace(employeeID))
}
