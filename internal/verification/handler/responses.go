package handler

import (
	"time"

	"empverify/internal/verification/models"
)

// VerifyResponse is the body returned for every decided verification.
type VerifyResponse struct {
	Outcome           models.OutcomeKind `json:"outcome"`
	Message           string             `json:"message"`
	Report            *models.Report     `json:"report,omitempty"`
	RemainingAttempts *int               `json:"remaining_attempts,omitempty"`
	Reason            string             `json:"reason,omitempty"`
}

type AttemptStateResponse struct {
	RequesterID         string     `json:"requester_id"`
	SubjectID           string     `json:"subject_id"`
	ConsecutiveFailures int        `json:"consecutive_failures"`
	Blocked             bool       `json:"blocked"`
	BlockedAt           *time.Time `json:"blocked_at,omitempty"`
	LastAttemptAt       time.Time  `json:"last_attempt_at"`
	RemainingAttempts   int        `json:"remaining_attempts"`
}

type BlockedListResponse struct {
	Pairs []AttemptStateResponse `json:"pairs"`
	Count int                    `json:"count"`
}

func toAttemptStateResponse(s *models.AttemptState, maxAttempts int) AttemptStateResponse {
	return AttemptStateResponse{
		RequesterID:         s.RequesterID,
		SubjectID:           s.SubjectID,
		ConsecutiveFailures: s.ConsecutiveFailures,
		Blocked:             s.Blocked,
		BlockedAt:           s.BlockedAt,
		LastAttemptAt:       s.LastAttemptAt,
		RemainingAttempts:   s.RemainingAttempts(maxAttempts),
	}
}
