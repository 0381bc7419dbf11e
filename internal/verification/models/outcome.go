package models

// OutcomeKind names the decision a validation request produced.
type OutcomeKind string

const (
	KindAccepted       OutcomeKind = "Accepted"
	KindRejected       OutcomeKind = "Rejected"
	KindJustBlocked    OutcomeKind = "JustBlocked"
	KindBlocked        OutcomeKind = "Blocked"
	KindInvalidRequest OutcomeKind = "InvalidRequest"
)

// Outcome is the closed set of validation decisions. Only the types in this
// file implement it; callers switch on the concrete type.
type Outcome interface {
	Kind() OutcomeKind
	outcome()
}

// Accepted means every submitted field matched and the pair's counter was reset.
type Accepted struct {
	Report Report
}

// Rejected is an ordinary failed attempt with attempts left before a block.
type Rejected struct {
	RemainingAttempts int
}

// JustBlocked is the failed attempt that exhausted the pair's attempts.
type JustBlocked struct{}

// Blocked means the pair was already blocked; nothing was compared or counted.
type Blocked struct{}

// InvalidRequest means required input was missing or malformed; the ledger was not touched.
type InvalidRequest struct {
	Reason string
}

func (Accepted) Kind() OutcomeKind       { return KindAccepted }
func (Rejected) Kind() OutcomeKind       { return KindRejected }
func (JustBlocked) Kind() OutcomeKind    { return KindJustBlocked }
func (Blocked) Kind() OutcomeKind        { return KindBlocked }
func (InvalidRequest) Kind() OutcomeKind { return KindInvalidRequest }

func (Accepted) outcome()       {}
func (Rejected) outcome()       {}
func (JustBlocked) outcome()    {}
func (Blocked) outcome()        {}
func (InvalidRequest) outcome() {}
