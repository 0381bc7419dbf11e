package testutil

import "testing"

// Step runs fn as a named subtest prefixed with a Gherkin keyword. Steps share
// state through the enclosing closure, so they run in declaration order and a
// failed step stops the ones after it.
func Step(t *testing.T, keyword, desc string, fn func(t *testing.T)) {
	t.Helper()
	if !t.Run(keyword+" "+desc, fn) {
		t.FailNow()
	}
}

func Given(t *testing.T, desc string, fn func(t *testing.T)) {
	t.Helper()
	Step(t, "Given", desc, fn)
}

func When(t *testing.T, desc string, fn func(t *testing.T)) {
	t.Helper()
	Step(t, "When", desc, fn)
}

func Then(t *testing.T, desc string, fn func(t *testing.T)) {
	t.Helper()
	Step(t, "Then", desc, fn)
}

func And(t *testing.T, desc string, fn func(t *testing.T)) {
	t.Helper()
	Step(t, "And", desc, fn)
}
