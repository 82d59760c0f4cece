// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VetClinic Contributors

package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/Dzyra46/vet-clinic-devsecops-sub000/internal/audit"
	"github.com/Dzyra46/vet-clinic-devsecops-sub000/internal/auth"
	"github.com/Dzyra46/vet-clinic-devsecops-sub000/internal/validate"
	"github.com/Dzyra46/vet-clinic-devsecops-sub000/pkg/errutil"
)

const maxBodyBytes = 64 * 1024

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func newUserResponse(u *auth.User) userResponse {
	return userResponse{
		ID:    u.ID.String(),
		Name:  u.Name,
		Email: u.Email,
		Role:  string(u.Role),
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeBody(w, r, &req) {
		return
	}

	req.Email = validate.SanitizeEmail(req.Email)
	req.Name = validate.SanitizeName(req.Name)

	if res := validate.Email(req.Email); !res.Valid {
		writeError(w, http.StatusBadRequest, res.Err)
		return
	}
	if res := validate.Name(req.Name, "name"); !res.Valid {
		writeError(w, http.StatusBadRequest, res.Err)
		return
	}

	// Self-registration only ever creates pet owners. Staff accounts are
	// provisioned through the create-user CLI flow, never from an
	// unauthenticated request body.
	if req.Role != "" {
		requested := auth.Role(req.Role)
		if !requested.Valid() {
			writeError(w, http.StatusBadRequest, "role must be one of admin, doctor, pet-owner")
			return
		}
		if requested != auth.RolePetOwner {
			s.writeAudit(r.Context(), req.Email, audit.ActionAccessDenied, "user", audit.OutcomeDenied, "self-registration as "+req.Role)
			writeError(w, http.StatusForbidden, "Insufficient permissions")
			return
		}
	}

	user, err := s.authsvc.Register(r.Context(), req.Name, req.Email, req.Password, auth.RolePetOwner)
	if err != nil {
		switch errCode(err) {
		case "AUTH_WEAK_PASSWORD":
			writeError(w, http.StatusBadRequest, "Password does not meet the strength policy")
		case "AUTH_DUPLICATE_EMAIL":
			writeError(w, http.StatusConflict, "Email is already registered")
		default:
			errutil.LogError(slog.Default(), "register failed", err)
			writeError(w, http.StatusInternalServerError, "Registration failed")
		}
		return
	}

	s.writeAudit(r.Context(), user.Email, audit.ActionRegister, "user", audit.OutcomeSuccess, "")
	writeJSON(w, http.StatusCreated, newUserResponse(user))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	req.Email = validate.SanitizeEmail(req.Email)
	if res := validate.Email(req.Email); !res.Valid {
		writeError(w, http.StatusBadRequest, res.Err)
		return
	}

	user, token, err := s.authsvc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errCode(err) == "AUTH_INVALID_CREDENTIALS" {
			if s.metrics != nil {
				s.metrics.AuthFailures.WithLabelValues("invalid_credentials").Inc()
			}
			s.writeAudit(r.Context(), req.Email, audit.ActionLoginFailed, "session", audit.OutcomeDenied, clientIdentity(r))
			// Same message whether the account exists or not.
			writeError(w, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		errutil.LogError(slog.Default(), "login failed", err)
		writeError(w, http.StatusInternalServerError, "Login failed")
		return
	}

	s.setSessionCookie(w, token, s.authsvc.SessionTTL())
	s.writeAudit(r.Context(), user.Email, audit.ActionLogin, "session", audit.OutcomeSuccess, "")
	writeJSON(w, http.StatusOK, newUserResponse(user))
}

// handleLogout clears the cookie even when the backend delete fails: the
// client-visible flow must always succeed.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	cc := NewClientContext(r)
	token := cc.Cookies[SessionCookieName]

	actor := cc.Identity
	if user, err := s.authsvc.ValidateSession(r.Context(), token); err == nil && user != nil {
		actor = user.Email
	}

	if err := s.authsvc.Logout(r.Context(), token); err != nil {
		errutil.LogError(slog.Default(), "logout backend delete failed", err)
	}

	s.clearSessionCookie(w)
	s.writeAudit(r.Context(), actor, audit.ActionLogout, "session", audit.OutcomeSuccess, "")
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}
