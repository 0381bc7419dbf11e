package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"empverify/internal/verification/admin"
	"empverify/internal/verification/models"
	"empverify/internal/verification/ports"
	"empverify/internal/verification/service"
	"empverify/internal/verification/store/ledger"
	"empverify/pkg/platform/sentinel"
	"empverify/pkg/requestcontext"
)

type records map[string]*models.CanonicalRecord

func (r records) LookupSubject(_ context.Context, subjectID string) (*models.CanonicalRecord, error) {
	if rec, ok := r[subjectID]; ok {
		return rec, nil
	}
	return nil, sentinel.ErrNotFound
}

// downLedger fails every call.
type downLedger struct{}

var errDown = errors.New("connection refused")

func (downLedger) Get(context.Context, models.Pair) (*models.AttemptState, error) {
	return nil, errDown
}
func (downLedger) IncrementFailure(context.Context, models.Pair, int, time.Time) (*models.FailureResult, error) {
	return nil, errDown
}
func (downLedger) Reset(context.Context, models.Pair, time.Time) (*models.ResetResult, error) {
	return nil, errDown
}
func (downLedger) Clear(context.Context, models.Pair) error { return errDown }
func (downLedger) ListBlocked(context.Context, int) ([]*models.AttemptState, error) {
	return nil, errDown
}

func withPrincipal(id string, role requestcontext.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := requestcontext.WithPrincipal(r.Context(), requestcontext.AuthPrincipal{ID: id, Role: role})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

type HandlerSuite struct {
	suite.Suite
	store  *ledger.InMemoryStore
	router chi.Router
	logger *slog.Logger
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	s.store = ledger.NewInMemoryStore()
	s.router = s.buildRouter(s.store)
}

func (s *HandlerSuite) buildRouter(l ports.AttemptLedger) chi.Router {
	lookup := records{"EMP006": {EmployeeID: "EMP006", FullName: "S. Sathish", Department: "Engineering"}}
	gate, err := service.New(l, lookup, service.WithLogger(s.logger))
	s.Require().NoError(err)
	adm, err := admin.New(l, admin.WithLogger(s.logger))
	s.Require().NoError(err)
	h := New(gate, adm, s.logger)

	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(withPrincipal("verifier-1", requestcontext.RoleVerifier))
		h.Register(r)
	})
	r.Group(func(r chi.Router) {
		r.Use(withPrincipal("hr-1", requestcontext.RoleHRAdmin))
		h.RegisterAdmin(r)
	})
	return r
}

func (s *HandlerSuite) do(method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var decoded map[string]any
	if rec.Body.Len() > 0 {
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &decoded))
	}
	return rec, decoded
}

func (s *HandlerSuite) verify(name string) (*httptest.ResponseRecorder, map[string]any) {
	return s.do(http.MethodPost, "/v1/verifications",
		`{"employee_id":"emp006","fields":{"full_name":"`+name+`"}}`)
}

func (s *HandlerSuite) TestVerifyStatusMapping() {
	rec, body := s.verify("s sathish")
	s.Equal(http.StatusOK, rec.Code)
	s.Equal("Accepted", body["outcome"])
	s.NotNil(body["report"])

	rec, body = s.verify("John Doe")
	s.Equal(http.StatusUnprocessableEntity, rec.Code)
	s.Equal("Rejected", body["outcome"])
	s.EqualValues(2, body["remaining_attempts"])

	rec, _ = s.verify("John Doe")
	s.Equal(http.StatusUnprocessableEntity, rec.Code)

	rec, body = s.verify("John Doe")
	s.Equal(http.StatusLocked, rec.Code)
	s.Equal("JustBlocked", body["outcome"])
	s.NotContains(body, "remaining_attempts")

	rec, body = s.verify("S. Sathish")
	s.Equal(http.StatusLocked, rec.Code)
	s.Equal("Blocked", body["outcome"])
	s.NotContains(body, "remaining_attempts")
}

func (s *HandlerSuite) TestVerifyInvalidRequests() {
	s.Run("missing full name is an invalid request", func() {
		rec, body := s.do(http.MethodPost, "/v1/verifications",
			`{"employee_id":"EMP006","fields":{"department":"Engineering"}}`)
		s.Equal(http.StatusBadRequest, rec.Code)
		s.Equal("InvalidRequest", body["outcome"])
		s.NotEmpty(body["reason"])
	})

	s.Run("missing employee id fails validation", func() {
		rec, body := s.do(http.MethodPost, "/v1/verifications", `{"fields":{"full_name":"x"}}`)
		s.Equal(http.StatusBadRequest, rec.Code)
		s.Equal("validation_error", body["error"])
	})

	s.Run("malformed json", func() {
		rec, body := s.do(http.MethodPost, "/v1/verifications", `{`)
		s.Equal(http.StatusBadRequest, rec.Code)
		s.Equal("bad_request", body["error"])
	})

	state, err := s.store.Get(context.Background(), models.Pair{RequesterID: "verifier-1", SubjectID: "EMP006"})
	s.Require().NoError(err)
	s.Nil(state, "invalid requests never touch the ledger")
}

func (s *HandlerSuite) TestVerifyStoreUnavailable() {
	s.router = s.buildRouter(downLedger{})

	rec, body := s.verify("S. Sathish")
	s.Equal(http.StatusServiceUnavailable, rec.Code)
	s.Equal("service_unavailable", body["error"])
	s.NotContains(body, "error_description")
}

func (s *HandlerSuite) TestAdminAttempts() {
	for range 3 {
		s.verify("John Doe")
	}

	rec, body := s.do(http.MethodGet, "/admin/attempts", "")
	s.Equal(http.StatusOK, rec.Code)
	s.EqualValues(1, body["count"])

	rec, body = s.do(http.MethodGet, "/admin/attempts/verifier-1/emp006", "")
	s.Equal(http.StatusOK, rec.Code)
	s.Equal(true, body["blocked"])
	s.EqualValues(0, body["remaining_attempts"])

	rec, _ = s.do(http.MethodGet, "/admin/attempts?limit=abc", "")
	s.Equal(http.StatusBadRequest, rec.Code)

	rec, _ = s.do(http.MethodDelete, "/admin/attempts/verifier-1/EMP006", `{"reason":"confirmed by phone"}`)
	s.Equal(http.StatusNoContent, rec.Code)

	rec, _ = s.do(http.MethodGet, "/admin/attempts/verifier-1/EMP006", "")
	s.Equal(http.StatusNotFound, rec.Code)

	rec, _ = s.do(http.MethodDelete, "/admin/attempts/verifier-1/EMP006", "")
	s.Equal(http.StatusNotFound, rec.Code)

	rec, body = s.verify("S. Sathish")
	s.Equal(http.StatusOK, rec.Code, "cleared pair can verify again")
	s.Equal("Accepted", body["outcome"])
}
