package audit

import (
	"context"
	"time"
)

// EventCategory classifies audit events by their primary purpose so sinks can
// apply different retention and routing.
type EventCategory string

const (
	// CategoryCompliance covers events with regulatory significance: accepted
	// verifications, appeals and record changes.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers events relevant to abuse monitoring: failed
	// attempts, blocks and administrative clears.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers everything else.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID          string        `json:"id"`
	Category    EventCategory `json:"category"`
	Timestamp   time.Time     `json:"timestamp"`
	Action      string        `json:"action"`
	RequesterID string        `json:"requester_id,omitempty"`
	SubjectID   string        `json:"subject_id,omitempty"`
	// ActorID is the HR admin acting on a pair or appeal when different from the requester.
	ActorID   string `json:"actor_id,omitempty"`
	Decision  string `json:"decision,omitempty"`
	Reason    string `json:"reason,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// PartitionKey groups a pair's events on one Kafka partition.
func (e Event) PartitionKey() string {
	if e.RequesterID == "" && e.SubjectID == "" {
		return e.Action
	}
	return e.RequesterID + ":" + e.SubjectID
}

type AuditEvent string

const (
	// Verification events
	EventVerificationAccepted AuditEvent = "verification_accepted"
	EventVerificationRejected AuditEvent = "verification_rejected"
	EventPairBlocked          AuditEvent = "verification_pair_blocked"
	EventBlockedAttempt       AuditEvent = "verification_blocked_attempt"
	EventAttemptsCleared      AuditEvent = "verification_attempts_cleared"

	// Appeal events
	EventAppealFiled    AuditEvent = "appeal_filed"
	EventAppealResolved AuditEvent = "appeal_resolved"

	// Employee record events
	EventEmployeeUpserted AuditEvent = "employee_record_upserted"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventVerificationAccepted: CategoryCompliance,
	EventAppealFiled:          CategoryCompliance,
	EventAppealResolved:       CategoryCompliance,
	EventEmployeeUpserted:     CategoryCompliance,

	EventVerificationRejected: CategorySecurity,
	EventPairBlocked:          CategorySecurity,
	EventBlockedAttempt:       CategorySecurity,
	EventAttemptsCleared:      CategorySecurity,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store persists or forwards audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// Publisher is what domain services emit audit events through.
type Publisher interface {
	Emit(ctx context.Context, event Event) error
}
