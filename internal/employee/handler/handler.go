package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"empverify/internal/employee/models"
	"empverify/pkg/platform/httputil"
	"empverify/pkg/requestcontext"
)

type Service interface {
	Get(ctx context.Context, employeeID string) (*models.Record, error)
	Upsert(ctx context.Context, record *models.Record) (*models.Record, error)
}

// UpsertRequest is the body of PUT /admin/employees/{employeeID}.
type UpsertRequest struct {
	FullName      string `json:"full_name" validate:"required,max=200"`
	Designation   string `json:"designation" validate:"max=200"`
	Department    string `json:"department" validate:"max=200"`
	DateOfJoining string `json:"date_of_joining"`
	DateOfLeaving string `json:"date_of_leaving"`
	Status        string `json:"status"`
}

func (r *UpsertRequest) Normalize() {
	r.FullName = strings.TrimSpace(r.FullName)
	r.Designation = strings.TrimSpace(r.Designation)
	r.Department = strings.TrimSpace(r.Department)
}

// Validate defers date and status rules to the record itself.
func (r *UpsertRequest) Validate() error { return nil }

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterAdmin mounts the HR admin routes.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/admin/employees/{employeeID}", h.HandleGet)
	r.Put("/admin/employees/{employeeID}", h.HandleUpsert)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	rec, err := h.service.Get(r.Context(), chi.URLParam(r, "employeeID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rec)
}

func (h *Handler) HandleUpsert(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[UpsertRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	saved, err := h.service.Upsert(ctx, &models.Record{
		EmployeeID:    chi.URLParam(r, "employeeID"),
		FullName:      req.FullName,
		Designation:   req.Designation,
		Department:    req.Department,
		DateOfJoining: req.DateOfJoining,
		DateOfLeaving: req.DateOfLeaving,
		Status:        req.Status,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "employee record upserted",
		"employee_id", saved.EmployeeID,
		"request_id", requestID,
	)
	httputil.WriteJSON(w, http.StatusOK, saved)
}
