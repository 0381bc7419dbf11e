package models

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

func (s Status) IsValid() bool {
	return s == StatusPending || s == StatusApproved || s == StatusRejected
}

// Decision is an HR administrator's ruling on a pending appeal.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

func (d Decision) IsValid() bool {
	return d == DecisionApprove || d == DecisionReject
}

// Status maps a decision to the appeal's terminal status.
func (d Decision) Status() Status {
	if d == DecisionApprove {
		return StatusApproved
	}
	return StatusRejected
}

// Appeal is a verifier's request for HR to review a rejected or blocked verification.
type Appeal struct {
	ID             uuid.UUID         `json:"id"`
	RequesterID    string            `json:"requester_id"`
	SubjectID      string            `json:"subject_id"`
	Reason         string            `json:"reason"`
	ClaimedFields  map[string]string `json:"claimed_fields,omitempty"`
	Status         Status            `json:"status"`
	ResolutionNote string            `json:"resolution_note,omitempty"`
	ResolvedBy     string            `json:"resolved_by,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	ResolvedAt     *time.Time        `json:"resolved_at,omitempty"`
}

func (a *Appeal) IsPending() bool {
	return a.Status == StatusPending
}

// Resolve moves a pending appeal to its terminal status.
func (a *Appeal) Resolve(decision Decision, note, resolvedBy string, at time.Time) {
	a.Status = decision.Status()
	a.ResolutionNote = note
	a.ResolvedBy = resolvedBy
	a.ResolvedAt = &at
}
