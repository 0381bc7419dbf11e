package models

import "slices"

// Verifiable field names accepted in submissions.
const (
	FieldEmployeeID    = "employee_id"
	FieldFullName      = "full_name"
	FieldDesignation   = "designation"
	FieldDepartment    = "department"
	FieldDateOfJoining = "date_of_joining"
	FieldDateOfLeaving = "date_of_leaving"
	FieldStatus        = "status"
)

// FieldOrder is the order fields appear in comparison reports.
var FieldOrder = []string{
	FieldEmployeeID,
	FieldFullName,
	FieldDesignation,
	FieldDepartment,
	FieldDateOfJoining,
	FieldDateOfLeaving,
	FieldStatus,
}

// IsKnownField reports whether name is a verifiable field.
func IsKnownField(name string) bool {
	return slices.Contains(FieldOrder, name)
}

// CanonicalRecord is the authoritative employment record for a subject.
type CanonicalRecord struct {
	EmployeeID    string
	FullName      string
	Designation   string
	Department    string
	DateOfJoining string
	DateOfLeaving string
	Status        string
}

// Value returns the record's value for a field name, or "" for unknown names.
func (r *CanonicalRecord) Value(field string) string {
	switch field {
	case FieldEmployeeID:
		return r.EmployeeID
	case FieldFullName:
		return r.FullName
	case FieldDesignation:
		return r.Designation
	case FieldDepartment:
		return r.Department
	case FieldDateOfJoining:
		return r.DateOfJoining
	case FieldDateOfLeaving:
		return r.DateOfLeaving
	case FieldStatus:
		return r.Status
	}
	return ""
}

type MatchStatus string

const (
	StatusMatch    MatchStatus = "match"
	StatusMismatch MatchStatus = "mismatch"
)

// FieldResult is one row of a comparison report.
type FieldResult struct {
	Field     string      `json:"field"`
	Submitted string      `json:"submitted"`
	Status    MatchStatus `json:"status"`
}

// Report is the field-level comparison of a submission against a record.
type Report struct {
	Fields  []FieldResult `json:"fields"`
	Matched int           `json:"matched"`
	Total   int           `json:"total"`
	Score   int           `json:"score"`
}

// AllMatched reports whether every compared field matched.
func (r Report) AllMatched() bool {
	return r.Total > 0 && r.Matched == r.Total
}
