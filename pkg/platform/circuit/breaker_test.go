package circuit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreaker_Defaults(t *testing.T) {
	b := New("employee-cache")
	assert.Equal(t, "employee-cache", b.Name())
	assert.Equal(t, StateClosed, b.State())
	assert.False(t, b.IsOpen())
	assert.True(t, b.Allow())
}

func TestBreaker_Transitions(t *testing.T) {
	type step struct {
		fail        bool
		wantDegrade bool
		wantOpened  bool
		wantClosed  bool
	}
	tests := []struct {
		name      string
		failures  int
		successes int
		steps     []step
		wantOpen  bool
	}{
		{
			name:     "opens on the threshold failure only",
			failures: 3, successes: 1,
			steps: []step{
				{fail: true},
				{fail: true},
				{fail: true, wantDegrade: true, wantOpened: true},
				{fail: true, wantDegrade: true},
			},
			wantOpen: true,
		},
		{
			name:     "success between failures restarts the count",
			failures: 2, successes: 1,
			steps: []step{
				{fail: true},
				{fail: false, wantDegrade: false},
				{fail: true},
			},
			wantOpen: false,
		},
		{
			name:     "needs consecutive successes to close",
			failures: 1, successes: 2,
			steps: []step{
				{fail: true, wantDegrade: true, wantOpened: true},
				{fail: false, wantDegrade: true},
				{fail: true, wantDegrade: true},
				{fail: false, wantDegrade: true},
				{fail: false, wantDegrade: false, wantClosed: true},
			},
			wantOpen: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New("test", WithFailureThreshold(tt.failures), WithSuccessThreshold(tt.successes))
			for i, s := range tt.steps {
				if s.fail {
					degrade, change := b.RecordFailure()
					assert.Equal(t, s.wantDegrade, degrade, "step %d degrade", i)
					assert.Equal(t, s.wantOpened, change.Opened, "step %d opened", i)
					continue
				}
				primary, change := b.RecordSuccess()
				assert.Equal(t, !s.wantDegrade, primary, "step %d primary", i)
				assert.Equal(t, s.wantClosed, change.Closed, "step %d closed", i)
			}
			assert.Equal(t, tt.wantOpen, b.IsOpen())
		})
	}
}

func TestBreaker_ResetCloses(t *testing.T) {
	b := New("test", WithFailureThreshold(1))
	b.RecordFailure()
	require.True(t, b.IsOpen())

	b.Reset()
	assert.Equal(t, StateClosed, b.State())
	assert.True(t, b.Allow())
}

func TestBreaker_AllowsOneTrialPerCooldown(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	b := New("test", WithFailureThreshold(1), WithCooldown(time.Second), WithClock(func() time.Time { return now }))

	assert.True(t, b.Allow())
	b.RecordFailure()
	assert.False(t, b.Allow(), "just opened")

	now = now.Add(time.Second)
	assert.True(t, b.Allow(), "cooldown elapsed")
	assert.False(t, b.Allow(), "one trial per cooldown")
}
