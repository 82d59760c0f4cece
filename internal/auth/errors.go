// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VetClinic Contributors

package auth

import "errors"

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicateEmail is returned when registering an email that is already taken.
var ErrDuplicateEmail = errors.New("email already registered")
