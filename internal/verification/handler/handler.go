package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"empverify/internal/verification/models"
	"empverify/internal/verification/service"
	dErrors "empverify/pkg/domain-errors"
	"empverify/pkg/platform/httputil"
	"empverify/pkg/requestcontext"
)

// Gate decides verification attempts.
type Gate interface {
	Validate(ctx context.Context, req service.Request) (models.Outcome, error)
	MaxAttempts() int
}

// Admin manages ledger entries for HR administrators.
type Admin interface {
	Inspect(ctx context.Context, requesterID, subjectID string) (*models.AttemptState, error)
	ListBlocked(ctx context.Context, limit int) ([]*models.AttemptState, error)
	Clear(ctx context.Context, requesterID, subjectID, reason string) error
}

type Handler struct {
	gate   Gate
	admin  Admin
	logger *slog.Logger
}

func New(gate Gate, admin Admin, logger *slog.Logger) *Handler {
	return &Handler{gate: gate, admin: admin, logger: logger}
}

// Register mounts the verifier routes. Callers wrap r with auth middleware.
func (h *Handler) Register(r chi.Router) {
	r.Post("/v1/verifications", h.HandleVerify)
}

// RegisterAdmin mounts the HR admin routes.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/admin/attempts", h.HandleListBlocked)
	r.Get("/admin/attempts/{requesterID}/{subjectID}", h.HandleInspect)
	r.Delete("/admin/attempts/{requesterID}/{subjectID}", h.HandleClear)
}

func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	principal := requestcontext.Principal(ctx)

	req, ok := httputil.DecodeAndPrepare[VerifyRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	outcome, err := h.gate.Validate(ctx, service.Request{
		RequesterID: principal.ID,
		SubjectID:   req.EmployeeID,
		Fields:      req.Fields,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "verification failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	status, body := renderOutcome(outcome)
	httputil.WriteJSON(w, status, body)
}

// renderOutcome maps a decision to its HTTP status and body. Blocked responses
// never carry a remaining-attempts count.
func renderOutcome(outcome models.Outcome) (int, VerifyResponse) {
	resp := VerifyResponse{Outcome: outcome.Kind()}
	switch o := outcome.(type) {
	case models.Accepted:
		report := o.Report
		resp.Report = &report
		resp.Message = "All submitted details match our records."
		return http.StatusOK, resp
	case models.Rejected:
		remaining := o.RemainingAttempts
		resp.RemainingAttempts = &remaining
		resp.Message = "The submitted details do not match our records. " +
			strconv.Itoa(remaining) + " attempt(s) remaining before access to this employee is blocked."
		return http.StatusUnprocessableEntity, resp
	case models.JustBlocked:
		resp.Message = "The submitted details do not match our records. Maximum attempts reached; " +
			"verification of this employee is now blocked. You may file an appeal."
		return http.StatusLocked, resp
	case models.Blocked:
		resp.Message = "Verification of this employee is blocked after repeated failed attempts. " +
			"Contact HR or file an appeal."
		return http.StatusLocked, resp
	case models.InvalidRequest:
		resp.Reason = o.Reason
		resp.Message = "The request is missing required information."
		return http.StatusBadRequest, resp
	}
	resp.Message = "unknown outcome"
	return http.StatusInternalServerError, resp
}

func (h *Handler) HandleListBlocked(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "limit must be a non-negative integer"))
			return
		}
		limit = n
	}

	states, err := h.admin.ListBlocked(ctx, limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list blocked pairs",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	resp := BlockedListResponse{Pairs: make([]AttemptStateResponse, 0, len(states)), Count: len(states)}
	for _, st := range states {
		resp.Pairs = append(resp.Pairs, toAttemptStateResponse(st, h.gate.MaxAttempts()))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) HandleInspect(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	state, err := h.admin.Inspect(ctx, chi.URLParam(r, "requesterID"), chi.URLParam(r, "subjectID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toAttemptStateResponse(state, h.gate.MaxAttempts()))
}

func (h *Handler) HandleClear(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	var reason string
	if r.ContentLength > 0 {
		req, ok := httputil.DecodeAndPrepare[ClearRequest](w, r, h.logger, ctx, requestID)
		if !ok {
			return
		}
		reason = req.Reason
	}

	requesterID := chi.URLParam(r, "requesterID")
	subjectID := chi.URLParam(r, "subjectID")
	if err := h.admin.Clear(ctx, requesterID, subjectID, reason); err != nil {
		if !dErrors.HasCode(err, dErrors.CodeNotFound) {
			h.logger.ErrorContext(ctx, "failed to clear attempts",
				"request_id", requestID,
				"error", err,
			)
		}
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "attempts cleared",
		"requester_id", requesterID,
		"subject_id", subjectID,
		"request_id", requestID,
	)
	w.WriteHeader(http.StatusNoContent)
}
