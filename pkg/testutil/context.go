package testutil

import (
	"io"
	"log/slog"
	"net/http"
	"time"

	"empverify/pkg/requestcontext"
)

// AsPrincipal attaches an authenticated principal, as RequireAuth would.
func AsPrincipal(req *http.Request, id string, role requestcontext.Role) *http.Request {
	ctx := requestcontext.WithPrincipal(req.Context(), requestcontext.AuthPrincipal{ID: id, Role: role})
	return req.WithContext(ctx)
}

func AsVerifier(req *http.Request, id string) *http.Request {
	return AsPrincipal(req, id, requestcontext.RoleVerifier)
}

func AsHRAdmin(req *http.Request, id string) *http.Request {
	return AsPrincipal(req, id, requestcontext.RoleHRAdmin)
}

// AtTime pins the request clock.
func AtTime(req *http.Request, t time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), t))
}

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
