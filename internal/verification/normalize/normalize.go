// Package normalize turns free-text identity fields into comparison keys that
// tolerate case, surrounding whitespace, periods and internal spacing drift.
package normalize

import "strings"

// Normalize lower-cases s and trims surrounding whitespace. It is idempotent.
func Normalize(s string) string {
	return strings.TrimSpace(strings.ToLower(s))
}

// Variants are the comparison keys derived from one value.
type Variants struct {
	Normalized string
	// NoPeriods is Normalized with every '.' removed.
	NoPeriods string
	// Collapsed is NoPeriods with all whitespace removed.
	Collapsed string
}

// VariantsOf computes every comparison key for s.
func VariantsOf(s string) Variants {
	n := Normalize(s)
	noPeriods := strings.TrimSpace(strings.ReplaceAll(n, ".", ""))
	return Variants{
		Normalized: n,
		NoPeriods:  noPeriods,
		Collapsed:  strings.Join(strings.Fields(noPeriods), ""),
	}
}

// Equal reports whether a submitted value matches a canonical one under any variant.
func Equal(submitted, canonical string) bool {
	a, b := VariantsOf(submitted), VariantsOf(canonical)
	return a.Normalized == b.Normalized ||
		a.NoPeriods == b.NoPeriods ||
		a.Collapsed == b.Collapsed
}
