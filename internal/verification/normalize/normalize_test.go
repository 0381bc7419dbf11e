package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"", "   ", "S Sathish", "  S. SATHISH  ", "\tMary-Jane O'Neil\n",
		"ÉLODIE", "a  b", "Senior Engineer.",
	}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "s sathish", Normalize("  S Sathish "))
	assert.Equal(t, "", Normalize("   "))
}

func TestVariantsOf(t *testing.T) {
	v := VariantsOf(" S. Sathish ")
	assert.Equal(t, "s. sathish", v.Normalized)
	assert.Equal(t, "s sathish", v.NoPeriods)
	assert.Equal(t, "ssathish", v.Collapsed)
}

func TestEqual(t *testing.T) {
	tests := []struct {
		name      string
		submitted string
		canonical string
		want      bool
	}{
		{"case and padding", "  s sathish ", "S Sathish", true},
		{"period after initial", "S. Sathish", "S Sathish", true},
		{"no space", "SSathish", "S Sathish", true},
		{"period and no space", "S.Sathish", "S Sathish", true},
		{"submitted forms agree", "S. Sathish", "SSathish", true},
		{"lowercase with period", "s. sathish", "S Sathish", true},
		{"different name", "John Doe", "S Sathish", false},
		{"extra initial", "S K Sathish", "S Sathish", false},
		{"empty vs value", "", "S Sathish", false},
		{"both empty", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Equal(tt.submitted, tt.canonical))
		})
	}
}
