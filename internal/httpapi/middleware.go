// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VetClinic Contributors

package httpapi

import (
	"context"
	"net/http"
	"slices"
	"strconv"

	"github.com/Dzyra46/vet-clinic-devsecops-sub000/internal/audit"
	"github.com/Dzyra46/vet-clinic-devsecops-sub000/internal/auth"
	"github.com/Dzyra46/vet-clinic-devsecops-sub000/internal/ratelimit"
)

// SessionCookieName is the cookie carrying the opaque session token.
const SessionCookieName = "session_token"

// SessionValidator resolves a session token to a user. auth.Service
// implements it; tests substitute fakes.
type SessionValidator interface {
	ValidateSession(ctx context.Context, token string) (*auth.User, error)
}

// AuthResult is the outcome of an authentication check. Exactly one of
// User or Err is set; Status accompanies Err.
type AuthResult struct {
	User   *auth.User
	Err    string
	Status int
}

// RoleResult is the outcome of an authorization check.
type RoleResult struct {
	Authorized bool
	User       *auth.User
	Err        string
	Status     int
}

// Authenticator gates protected handlers. Each call re-validates the
// session independently; results are never cached across handlers.
type Authenticator struct {
	sessions SessionValidator
}

// NewAuthenticator creates an Authenticator.
func NewAuthenticator(sessions SessionValidator) *Authenticator {
	return &Authenticator{sessions: sessions}
}

// WithAuth resolves the session cookie to a user.
//
// No cookie means 401 "Not authenticated". An invalid or expired token
// means 401 "Invalid or expired session"; the two invalid cases are never
// distinguished in the response. Infrastructure failure means 500
// "Authentication failed" and never a user (fail closed).
func (a *Authenticator) WithAuth(ctx context.Context, cc ClientContext) AuthResult {
	token, ok := cc.Cookies[SessionCookieName]
	if !ok || token == "" {
		return AuthResult{Err: "Not authenticated", Status: http.StatusUnauthorized}
	}

	user, err := a.sessions.ValidateSession(ctx, token)
	if err != nil {
		return AuthResult{Err: "Authentication failed", Status: http.StatusInternalServerError}
	}
	if user == nil {
		return AuthResult{Err: "Invalid or expired session", Status: http.StatusUnauthorized}
	}

	return AuthResult{User: user}
}

// RequireRole authenticates and then checks the user's role against the
// allowed set. Authentication failures propagate unchanged; a role
// mismatch is 403 "Insufficient permissions".
func (a *Authenticator) RequireRole(ctx context.Context, cc ClientContext, roles ...auth.Role) RoleResult {
	res := a.WithAuth(ctx, cc)
	if res.User == nil {
		return RoleResult{Err: res.Err, Status: res.Status}
	}

	if !slices.Contains(roles, res.User.Role) {
		return RoleResult{
			User:   res.User,
			Err:    "Insufficient permissions",
			Status: http.StatusForbidden,
		}
	}

	return RoleResult{Authorized: true, User: res.User}
}

// rateLimit wraps a handler with a fixed-window check under the given
// policy. Denials get the standard 429 reply with retry headers.
func (s *Server) rateLimit(policy ratelimit.Policy, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := clientIdentity(r)
		decision := s.limiter.Check(identity, policy)
		if !decision.Allowed {
			if s.metrics != nil {
				s.metrics.RateLimitDenials.Inc()
			}
			s.writeLimited(w, r, identity, decision)
			return
		}
		next(w, r)
	}
}

func (s *Server) writeLimited(w http.ResponseWriter, r *http.Request, identity string, decision ratelimit.Decision) {
	resp := ratelimit.Response(decision.ResetTime, decision.Remaining)
	for name, value := range resp.Headers {
		w.Header().Set(name, value)
	}
	writeJSON(w, resp.StatusCode, resp.Body)

	s.writeAudit(r.Context(), identity, audit.ActionRateLimited, r.URL.Path, audit.OutcomeDenied, "limit exceeded")
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(status int) {
	rec.status = status
	rec.ResponseWriter.WriteHeader(status)
}

// instrument counts requests per route and status code.
func (s *Server) instrument(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.metrics == nil {
			next(w, r)
			return
		}
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)
		s.metrics.RequestsTotal.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
	}
}
