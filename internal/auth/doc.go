// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VetClinic Contributors

// Package auth provides authentication primitives for the clinic service.
//
// # Domain Types
//
// Domain types (User, Session) should be created using their constructors:
//   - NewUser - creates a User with a validated role
//   - NewSession - creates a Session with a validated owner and expiry
//
// Direct struct initialization bypasses validation and may create invalid
// state. Repository implementations receive pre-validated types from these
// constructors. User never carries a password hash; hashes stay behind the
// UserRepository boundary.
//
// # Services
//
// Service coordinates registration, login, logout, and session validation.
// ValidateSession intentionally collapses every invalid-token cause into a
// nil user so callers cannot distinguish expired from forged tokens.
package auth
