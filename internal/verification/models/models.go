package models

import (
	"strings"
	"time"

	dErrors "empverify/pkg/domain-errors"
)

// DefaultMaxAttempts is the number of consecutive failures that blocks a pair.
const DefaultMaxAttempts = 3

// Pair is the (requester, subject) key attempts are counted under.
type Pair struct {
	RequesterID string
	SubjectID   string
}

// NewPair validates and normalizes a pair. The requester ID is trimmed; the
// subject ID is trimmed and uppercased so that "emp006 " and "EMP006" share a ledger entry.
func NewPair(requesterID, subjectID string) (Pair, error) {
	requesterID = strings.TrimSpace(requesterID)
	subjectID = NormalizeSubjectID(subjectID)
	if requesterID == "" {
		return Pair{}, dErrors.New(dErrors.CodeInvalidInput, "requester id is required")
	}
	if subjectID == "" {
		return Pair{}, dErrors.New(dErrors.CodeInvalidInput, "subject id is required")
	}
	return Pair{RequesterID: requesterID, SubjectID: subjectID}, nil
}

// NormalizeSubjectID trims and uppercases an employee identifier.
func NormalizeSubjectID(subjectID string) string {
	return strings.ToUpper(strings.TrimSpace(subjectID))
}

// Key renders the pair as a single store key. Each segment is escaped so the
// ':' between them is the only delimiter, and distinct pairs get distinct keys.
func (p Pair) Key() string {
	return EscapeKeySegment(p.RequesterID) + ":" + EscapeKeySegment(p.SubjectID)
}

func (p Pair) String() string {
	return p.Key()
}

var keySegmentEscaper = strings.NewReplacer("_", "__", ":", "_c")

// EscapeKeySegment doubles '_' and rewrites ':' as "_c". The mapping is
// reversible, so two different segments never escape to the same string.
func EscapeKeySegment(s string) string {
	return keySegmentEscaper.Replace(s)
}

// AttemptState is the ledger record for one pair.
type AttemptState struct {
	RequesterID         string     `json:"requester_id"`
	SubjectID           string     `json:"subject_id"`
	ConsecutiveFailures int        `json:"consecutive_failures"`
	Blocked             bool       `json:"blocked"`
	BlockedAt           *time.Time `json:"blocked_at,omitempty"`
	LastAttemptAt       time.Time  `json:"last_attempt_at"`
}

func (s *AttemptState) Pair() Pair {
	return Pair{RequesterID: s.RequesterID, SubjectID: s.SubjectID}
}

// IsBlocked is nil-safe: a missing record is never blocked.
func (s *AttemptState) IsBlocked() bool {
	return s != nil && s.Blocked
}

// RemainingAttempts returns how many failures the pair can still absorb.
func (s *AttemptState) RemainingAttempts(maxAttempts int) int {
	if s == nil {
		return maxAttempts
	}
	return max(maxAttempts-s.ConsecutiveFailures, 0)
}

// FailureResult is what a single atomic failure increment observed.
type FailureResult struct {
	// State is the record after the increment. Nil when AlreadyBlocked and the
	// store could not return the row.
	State *AttemptState
	// JustBlocked is true only for the increment that crossed the threshold.
	JustBlocked bool
	// AlreadyBlocked is true when the pair was blocked before this call; the
	// counter was left untouched.
	AlreadyBlocked bool
}

// ResetResult reports whether a success reset was applied.
type ResetResult struct {
	// Blocked is true when the pair was blocked and therefore not reset.
	Blocked bool
}
