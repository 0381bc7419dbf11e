// Package compare builds field-level match reports for verification submissions.
package compare

import (
	"math"
	"sort"
	"strings"

	"empverify/internal/verification/models"
	"empverify/internal/verification/normalize"
	dErrors "empverify/pkg/domain-errors"
)

// ValidateSubmission checks that a submission names only known fields and
// carries a non-blank full name.
func ValidateSubmission(submitted map[string]string) error {
	var unknown []string
	for name := range submitted {
		if !models.IsKnownField(name) {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return dErrors.New(dErrors.CodeInvalidInput, "unknown fields: "+strings.Join(unknown, ", "))
	}
	if strings.TrimSpace(submitted[models.FieldFullName]) == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "full_name is required")
	}
	return nil
}

// Compare matches each submitted field against record in models.FieldOrder.
// A nil record (subject not found) reports every field as a mismatch so callers
// cannot tell a missing subject from a wrong answer.
func Compare(submitted map[string]string, record *models.CanonicalRecord) models.Report {
	report := models.Report{Fields: make([]models.FieldResult, 0, len(submitted))}
	for _, field := range models.FieldOrder {
		value, ok := submitted[field]
		if !ok {
			continue
		}
		status := models.StatusMismatch
		if record != nil && normalize.Equal(value, record.Value(field)) {
			status = models.StatusMatch
			report.Matched++
		}
		report.Fields = append(report.Fields, models.FieldResult{
			Field:     field,
			Submitted: value,
			Status:    status,
		})
	}
	report.Total = len(report.Fields)
	report.Score = Score(report.Matched, report.Total)
	return report
}

// Score is round(100 * matched / total); zero when nothing was compared.
func Score(matched, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(matched) / float64(total)))
}
