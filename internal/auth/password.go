// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VetClinic Contributors

package auth

import (
	"fmt"
	"strings"
	"unicode"
)

// Password policy constraints.
const (
	MinPasswordLength = 8
	MaxPasswordLength = 128
)

// specialChars is the accepted special-character set for the password policy.
const specialChars = `!@#$%^&*()_+-=[]{};':"|,.<>/?`

// StrengthResult accumulates every violated password rule. Valid is true iff
// Errors is empty.
type StrengthResult struct {
	Valid  bool
	Errors []string
}

// CheckPasswordStrength evaluates all policy rules without short-circuiting
// so the client can surface every violation at once.
func CheckPasswordStrength(password string) StrengthResult {
	var errs []string

	if len(password) < MinPasswordLength {
		errs = append(errs, fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}
	if len(password) > MaxPasswordLength {
		errs = append(errs, fmt.Sprintf("password must not exceed %d characters", MaxPasswordLength))
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case strings.ContainsRune(specialChars, r):
			hasSpecial = true
		}
	}

	if !hasUpper {
		errs = append(errs, "password must contain at least one uppercase letter")
	}
	if !hasLower {
		errs = append(errs, "password must contain at least one lowercase letter")
	}
	if !hasDigit {
		errs = append(errs, "password must contain at least one digit")
	}
	if !hasSpecial {
		errs = append(errs, "password must contain at least one special character")
	}

	return StrengthResult{Valid: len(errs) == 0, Errors: errs}
}
