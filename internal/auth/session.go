// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VetClinic Contributors

package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
	"github.com/samber/oops"
)

// Session token configuration.
const (
	// SessionTokenBytes is the entropy of a session token: 32 bytes = 256 bits,
	// hex-encoded to 64 characters.
	SessionTokenBytes = 32

	// DefaultSessionTTL matches the session cookie lifetime.
	DefaultSessionTTL = 7 * 24 * time.Hour
)

// Session is a server-side record of an issued bearer token. Only the SHA-256
// hash of the token is persisted; the plaintext goes to the client cookie.
type Session struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// NewSession creates a validated Session instance.
func NewSession(userID uuid.UUID, tokenHash string, expiresAt time.Time) (*Session, error) {
	if userID == uuid.Nil {
		return nil, oops.Code("SESSION_INVALID_USER").Errorf("user ID cannot be zero")
	}
	if tokenHash == "" {
		return nil, oops.Code("SESSION_INVALID_HASH").Errorf("token hash cannot be empty")
	}
	if expiresAt.IsZero() {
		return nil, oops.Code("SESSION_INVALID_EXPIRY").Errorf("expiry time cannot be zero")
	}
	return &Session{
		ID:        uuid.New(),
		UserID:    userID,
		TokenHash: tokenHash,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}, nil
}

// IsExpired returns true if the session has expired.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// GenerateSessionToken creates a secure random token and its hash.
// Returns (plaintext_token, sha256_hash, error).
func GenerateSessionToken() (token, hash string, err error) {
	tokenBytes := make([]byte, SessionTokenBytes)
	if _, err = rand.Read(tokenBytes); err != nil {
		return "", "", oops.Code("SESSION_TOKEN_GENERATE_FAILED").
			With("operation", "crypto/rand.Read").
			With("requested_bytes", SessionTokenBytes).
			Wrap(err)
	}

	token = hex.EncodeToString(tokenBytes)
	hash = HashSessionToken(token)

	return token, hash, nil
}

// HashSessionToken computes the SHA-256 hash of a session token for storage.
func HashSessionToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// VerifySessionToken checks if the plaintext token matches the stored hash
// using a constant-time comparison.
func VerifySessionToken(token, hash string) (bool, error) {
	if token == "" {
		return false, oops.Code("SESSION_TOKEN_EMPTY").Errorf("session token cannot be empty")
	}
	if hash == "" {
		return false, oops.Code("SESSION_HASH_EMPTY").Errorf("stored hash cannot be empty")
	}
	computed := HashSessionToken(token)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(hash)) == 1, nil
}

// SessionRepository manages session persistence.
type SessionRepository interface {
	// Create stores a new session.
	Create(ctx context.Context, session *Session) error

	// GetUserByTokenHash retrieves the user owning an unexpired session with
	// the given token hash. Returns ErrNotFound for missing or expired
	// sessions; the two cases are indistinguishable to callers.
	GetUserByTokenHash(ctx context.Context, tokenHash string) (*User, error)

	// DeleteByTokenHash removes a session by token hash. Deleting a session
	// that does not exist is not an error.
	DeleteByTokenHash(ctx context.Context, tokenHash string) error

	// DeleteByUser removes all sessions for a user.
	DeleteByUser(ctx context.Context, userID uuid.UUID) error

	// DeleteExpired removes all expired sessions and returns the count of
	// deleted records.
	DeleteExpired(ctx context.Context) (int64, error)
}
