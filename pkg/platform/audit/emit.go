package audit

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"empverify/pkg/requestcontext"
)

// LogAndEmit mirrors an audit event to the structured log and hands it to the
// publisher if one is configured. Publisher failures are logged, not returned:
// audit delivery never changes a verification decision.
func LogAndEmit(ctx context.Context, logger *slog.Logger, publisher Publisher, action AuditEvent, event Event) {
	event = enrich(ctx, action, event)

	if logger != nil {
		logger.InfoContext(ctx, string(action),
			"event", string(action),
			"log_type", "audit",
			"category", string(event.Category),
			"requester_id", event.RequesterID,
			"subject_id", event.SubjectID,
			"actor_id", event.ActorID,
			"decision", event.Decision,
			"reason", event.Reason,
			"request_id", event.RequestID,
		)
	}

	if publisher == nil {
		return
	}
	if err := publisher.Emit(ctx, event); err != nil && logger != nil {
		logger.WarnContext(ctx, "failed to emit audit event", "event", string(action), "error", err)
	}
}

func enrich(ctx context.Context, action AuditEvent, event Event) Event {
	event.Action = string(action)
	event.Category = action.Category()
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	return event
}
