// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VetClinic Contributors

package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/samber/oops"
)

// Role identifies a user's access level.
type Role string

// Recognized roles.
const (
	RoleAdmin    Role = "admin"
	RoleDoctor   Role = "doctor"
	RolePetOwner Role = "pet-owner"
)

// Roles lists every recognized role.
var Roles = []Role{RoleAdmin, RoleDoctor, RolePetOwner}

// Valid reports whether the role is one of the recognized values.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleDoctor, RolePetOwner:
		return true
	}
	return false
}

// User is the authenticated subject attached to a request. It deliberately
// carries no password hash: the hash never leaves the repository boundary.
type User struct {
	ID        uuid.UUID
	Name      string
	Email     string
	Role      Role
	CreatedAt time.Time
}

// NewUser creates a validated User instance.
func NewUser(name, email string, role Role) (*User, error) {
	if name == "" {
		return nil, oops.Code("USER_INVALID_NAME").Errorf("name cannot be empty")
	}
	if email == "" {
		return nil, oops.Code("USER_INVALID_EMAIL").Errorf("email cannot be empty")
	}
	if !role.Valid() {
		return nil, oops.Code("USER_INVALID_ROLE").Errorf("unknown role: %s", role)
	}
	return &User{
		ID:        uuid.New(),
		Name:      name,
		Email:     email,
		Role:      role,
		CreatedAt: time.Now(),
	}, nil
}

// UserRepository manages user persistence. The password hash is passed and
// returned alongside the User rather than inside it, keeping handler-visible
// structs hash-free.
type UserRepository interface {
	// Create stores a new user with its password hash.
	// Returns ErrDuplicateEmail if the email is already taken.
	Create(ctx context.Context, user *User, passwordHash string) error

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)

	// GetByEmail retrieves a user by email (case-insensitive).
	GetByEmail(ctx context.Context, email string) (*User, error)

	// GetCredentials retrieves a user and its password hash by email.
	GetCredentials(ctx context.Context, email string) (*User, string, error)

	// UpdatePassword replaces the password hash for a user.
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error

	// Delete removes a user.
	Delete(ctx context.Context, id uuid.UUID) error
}
