package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"empverify/internal/appeal/models"
	"empverify/internal/appeal/service"
	dErrors "empverify/pkg/domain-errors"
	"empverify/pkg/platform/httputil"
	"empverify/pkg/requestcontext"
)

type Service interface {
	File(ctx context.Context, req service.FileRequest) (*models.Appeal, error)
	ListMine(ctx context.Context, requesterID string) ([]*models.Appeal, error)
	List(ctx context.Context, status models.Status) ([]*models.Appeal, error)
	Resolve(ctx context.Context, id uuid.UUID, decision models.Decision, note string) (*models.Appeal, error)
}

// FileAppealRequest is the body of POST /v1/appeals.
type FileAppealRequest struct {
	EmployeeID    string            `json:"employee_id" validate:"required,max=64"`
	Reason        string            `json:"reason" validate:"required,max=2000"`
	ClaimedFields map[string]string `json:"claimed_fields"`
}

func (r *FileAppealRequest) Normalize() {
	r.EmployeeID = strings.TrimSpace(r.EmployeeID)
	r.Reason = strings.TrimSpace(r.Reason)
}

func (r *FileAppealRequest) Validate() error { return nil }

// ResolveAppealRequest is the body of POST /admin/appeals/{id}/resolve.
type ResolveAppealRequest struct {
	Decision string `json:"decision" validate:"required,oneof=approve reject"`
	Note     string `json:"note" validate:"max=2000"`
}

func (r *ResolveAppealRequest) Normalize() {
	r.Decision = strings.ToLower(strings.TrimSpace(r.Decision))
	r.Note = strings.TrimSpace(r.Note)
}

func (r *ResolveAppealRequest) Validate() error { return nil }

type ListResponse struct {
	Appeals []*models.Appeal `json:"appeals"`
	Count   int              `json:"count"`
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the verifier routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/v1/appeals", h.HandleFile)
	r.Get("/v1/appeals/mine", h.HandleListMine)
}

// RegisterAdmin mounts the HR admin routes.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/admin/appeals", h.HandleList)
	r.Post("/admin/appeals/{id}/resolve", h.HandleResolve)
}

func (h *Handler) HandleFile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[FileAppealRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	appeal, err := h.service.File(ctx, service.FileRequest{
		RequesterID:   requestcontext.Principal(ctx).ID,
		SubjectID:     req.EmployeeID,
		Reason:        req.Reason,
		ClaimedFields: req.ClaimedFields,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "appeal filed",
		"appeal_id", appeal.ID,
		"request_id", requestID,
	)
	httputil.WriteJSON(w, http.StatusCreated, appeal)
}

func (h *Handler) HandleListMine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	appeals, err := h.service.ListMine(ctx, requestcontext.Principal(ctx).ID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ListResponse{Appeals: appeals, Count: len(appeals)})
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	status := models.Status(strings.ToLower(r.URL.Query().Get("status")))
	appeals, err := h.service.List(ctx, status)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ListResponse{Appeals: appeals, Count: len(appeals)})
}

func (h *Handler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid appeal id"))
		return
	}
	req, ok := httputil.DecodeAndPrepare[ResolveAppealRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	appeal, err := h.service.Resolve(ctx, id, models.Decision(req.Decision), req.Note)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeUnavailable) {
			h.logger.ErrorContext(ctx, "failed to resolve appeal",
				"appeal_id", id,
				"request_id", requestID,
				"error", err,
			)
		}
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "appeal resolved",
		"appeal_id", appeal.ID,
		"status", appeal.Status,
		"request_id", requestID,
	)
	httputil.WriteJSON(w, http.StatusOK, appeal)
}
