// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VetClinic Contributors

package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/oops"
)

// Service provides authentication operations.
type Service struct {
	users      UserRepository
	sessions   SessionRepository
	hasher     Hasher
	sessionTTL time.Duration
}

// NewService creates a new Service. A non-positive sessionTTL falls back to
// DefaultSessionTTL.
func NewService(users UserRepository, sessions SessionRepository, hasher Hasher, sessionTTL time.Duration) *Service {
	if sessionTTL <= 0 {
		sessionTTL = DefaultSessionTTL
	}
	return &Service{
		users:      users,
		sessions:   sessions,
		hasher:     hasher,
		sessionTTL: sessionTTL,
	}
}

// SessionTTL returns the configured session lifetime.
func (s *Service) SessionTTL() time.Duration {
	return s.sessionTTL
}

// dummyPasswordHash is used when a user doesn't exist to prevent timing
// attacks: verification still runs so response time stays consistent.
// This is NOT a real credential - it will never match any password.
//
//nolint:gosec // G101: intentionally fake hash for timing attack prevention, not a credential.
const dummyPasswordHash = "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// Register creates a user with a strength-checked password and stores its
// hash. Returns ErrDuplicateEmail (wrapped) if the email is taken.
func (s *Service) Register(ctx context.Context, name, email, password string, role Role) (*User, error) {
	if strength := CheckPasswordStrength(password); !strength.Valid {
		return nil, oops.Code("AUTH_WEAK_PASSWORD").
			With("violations", strength.Errors).
			Errorf("password does not meet policy: %s", strings.Join(strength.Errors, "; "))
	}

	user, err := NewUser(name, email, role)
	if err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, oops.Code("AUTH_HASH_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	if err := s.users.Create(ctx, user, hash); err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return nil, oops.Code("AUTH_DUPLICATE_EMAIL").Wrap(err)
		}
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "create user").
			Wrap(err)
	}

	return user, nil
}

// Login authenticates a user and creates a session.
// Returns the user and plaintext session token.
// Uses constant-time operations to prevent timing-based account enumeration.
func (s *Service) Login(ctx context.Context, email, password string) (*User, string, error) {
	user, storedHash, lookupErr := s.users.GetCredentials(ctx, email)

	targetHash := storedHash
	userExists := true

	if lookupErr != nil {
		if errors.Is(lookupErr, ErrNotFound) {
			// Verify against a dummy hash to keep timing consistent.
			targetHash = dummyPasswordHash
			userExists = false
		} else {
			return nil, "", oops.Code("AUTH_LOGIN_FAILED").
				With("operation", "get credentials").
				Wrap(lookupErr)
		}
	}

	valid, verifyErr := s.hasher.Verify(password, targetHash)
	if verifyErr != nil {
		// Hash parse failures surface as invalid credentials, never as a
		// distinguishable error.
		return nil, "", oops.Code("AUTH_INVALID_CREDENTIALS").Errorf("invalid email or password")
	}

	if !userExists || !valid {
		return nil, "", oops.Code("AUTH_INVALID_CREDENTIALS").Errorf("invalid email or password")
	}

	token, tokenHash, err := GenerateSessionToken()
	if err != nil {
		return nil, "", oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "generate session token").
			Wrap(err)
	}

	session, err := NewSession(user.ID, tokenHash, time.Now().Add(s.sessionTTL))
	if err != nil {
		return nil, "", oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "create session").
			Wrap(err)
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, "", oops.Code("AUTH_SESSION_CREATE_FAILED").
			With("operation", "persist session").
			Wrap(err)
	}

	return user, token, nil
}

// ValidateSession resolves a session token to its owning user.
//
// Returns (nil, nil) for a missing, malformed, unknown, or expired token:
// callers must not be able to distinguish the cases (anti-enumeration).
// A non-nil error means infrastructure failure only.
func (s *Service) ValidateSession(ctx context.Context, token string) (*User, error) {
	if token == "" {
		return nil, nil
	}

	tokenHash := HashSessionToken(token)

	user, err := s.sessions.GetUserByTokenHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, oops.Code("SESSION_VALIDATE_FAILED").
			With("operation", "get user by token hash").
			Wrap(err)
	}

	return user, nil
}

// Logout deletes the session for a token. Idempotent: unknown or already
// deleted tokens succeed silently so the client-visible flow never fails.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	tokenHash := HashSessionToken(token)
	if err := s.sessions.DeleteByTokenHash(ctx, tokenHash); err != nil {
		return oops.Code("AUTH_LOGOUT_FAILED").
			With("operation", "delete session").
			Wrap(err)
	}
	return nil
}

// LogoutEverywhere revokes every session for a user (forced logout across
// devices, used by administrative flows).
func (s *Service) LogoutEverywhere(ctx context.Context, userID uuid.UUID) error {
	if err := s.sessions.DeleteByUser(ctx, userID); err != nil {
		return oops.Code("AUTH_LOGOUT_ALL_FAILED").
			With("operation", "delete sessions by user").
			With("user_id", userID.String()).
			Wrap(err)
	}
	return nil
}

// CleanupExpiredSessions bulk-deletes all sessions past expiry. Intended to
// run on a schedule external to the request path.
func (s *Service) CleanupExpiredSessions(ctx context.Context) (int64, error) {
	n, err := s.sessions.DeleteExpired(ctx)
	if err != nil {
		return 0, oops.Code("SESSION_CLEANUP_FAILED").
			With("operation", "delete expired sessions").
			Wrap(err)
	}
	return n, nil
}
