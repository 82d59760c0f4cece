// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VetClinic Contributors

// Package validate provides input validation and sanitization for untrusted
// request fields. Validators are pure functions returning a Result value and
// never panic; handlers translate failures 1:1 into HTTP 400 responses.
package validate

import (
	"fmt"
	"math"
	"regexp"
	"strings"
)

// Field length limits.
const (
	MaxEmailLength = 254
	MinNameLength  = 3
	MaxNameLength  = 100

	// MaxSanitizedLength bounds free-text values accepted for storage.
	MaxSanitizedLength = 1000
)

// Result is the outcome of a single validation check.
type Result struct {
	Valid bool
	Err   string
}

// ok is the shared success result.
var ok = Result{Valid: true}

func fail(format string, args ...any) Result {
	return Result{Valid: false, Err: fmt.Sprintf(format, args...)}
}

// emailRegex is an allow-list: characters used in SQL/XSS/LDAP payloads
// (quotes, angle brackets, semicolons, parentheses, spaces) are simply not in
// the permitted classes, so crafted payloads fail format matching.
var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,6}$`)

// nameRegex allows letters, digits, whitespace, hyphens, and apostrophes.
var nameRegex = regexp.MustCompile(`^[a-zA-Z0-9\s\-']+$`)

// uuidRegex matches the canonical 8-4-4-4-12 hex form, case-insensitive.
var uuidRegex = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// sqlMarkers are checked as defense-in-depth after the character rules. The
// "--" check can reject legitimate text containing double hyphens; preserved
// deliberately (see DESIGN.md).
var sqlMarkers = []string{"--", "' OR '1'='1'"}

func containsSQLMarker(v string) bool {
	for _, m := range sqlMarkers {
		if strings.Contains(v, m) {
			return true
		}
	}
	return false
}

// Email validates an email address against an allow-list pattern.
func Email(v string) Result {
	if v == "" {
		return fail("email is required")
	}
	if len(v) > MaxEmailLength {
		return fail("email must not exceed %d characters", MaxEmailLength)
	}
	if !emailRegex.MatchString(v) {
		return fail("email format is invalid")
	}
	return ok
}

// Name validates a person or animal name. The character allow-list already
// excludes quote characters; the SQL marker check remains for parity with the
// free-text rule.
func Name(v, field string) Result {
	if strings.TrimSpace(v) == "" {
		return fail("%s is required", field)
	}
	if len(v) < MinNameLength {
		return fail("%s must be at least %d characters", field, MinNameLength)
	}
	if len(v) > MaxNameLength {
		return fail("%s must not exceed %d characters", field, MaxNameLength)
	}
	if !nameRegex.MatchString(v) {
		return fail("%s contains invalid characters", field)
	}
	if containsSQLMarker(v) {
		return fail("%s contains a suspicious pattern", field)
	}
	return ok
}

// textDenyChars are syntactically dangerous characters rejected in free text.
// Free text (clinical notes) cannot be allow-listed, so the defense is a
// denylist, unlike Name and Email.
const textDenyChars = `<>"'();`

// TextField validates a free-text field within the given length bounds.
func TextField(v, field string, minLen, maxLen int) Result {
	if strings.TrimSpace(v) == "" {
		return fail("%s is required", field)
	}
	if len(v) < minLen {
		return fail("%s must be at least %d characters", field, minLen)
	}
	if len(v) > maxLen {
		return fail("%s must not exceed %d characters", field, maxLen)
	}
	if strings.ContainsAny(v, textDenyChars) {
		return fail("%s contains invalid characters", field)
	}
	if containsSQLMarker(v) {
		return fail("%s contains a suspicious pattern", field)
	}
	return ok
}

// Age validates a patient age in years. The value arrives as a float from
// JSON decoding; non-integral values are rejected.
func Age(v float64) Result {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fail("age must be a number")
	}
	if v != math.Trunc(v) {
		return fail("age must be a whole number")
	}
	if v < 0 || v > 100 {
		return fail("age must be between 0 and 100")
	}
	return ok
}

// Weight validates a patient weight in kilograms.
func Weight(v float64) Result {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fail("weight must be a number")
	}
	if v <= 0 {
		return fail("weight must be positive")
	}
	if v > 500 {
		return fail("weight must not exceed 500")
	}
	return ok
}

// UUID validates a canonical UUID string.
func UUID(v, field string) Result {
	if v == "" {
		return fail("%s is required", field)
	}
	if !uuidRegex.MatchString(v) {
		return fail("%s must be a valid UUID", field)
	}
	return ok
}

// Enum validates exact, case-sensitive membership in the allowed set.
func Enum(v string, allowed []string, field string) Result {
	if v == "" {
		return fail("%s is required", field)
	}
	for _, a := range allowed {
		if v == a {
			return ok
		}
	}
	return fail("%s must be one of: %s", field, strings.Join(allowed, ", "))
}

// SanitizeString trims, truncates to MaxSanitizedLength, and strips angle
// brackets and quotes. Used for values accepted for display or storage
// without full rejection.
func SanitizeString(v string) string {
	v = strings.TrimSpace(v)
	if len(v) > MaxSanitizedLength {
		v = v[:MaxSanitizedLength]
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '<', '>', '"', '\'':
			return -1
		}
		return r
	}, v)
}

// SanitizeEmail trims, lowercases, and truncates to the email length limit.
func SanitizeEmail(v string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	if len(v) > MaxEmailLength {
		v = v[:MaxEmailLength]
	}
	return v
}

// SanitizeName trims, collapses internal whitespace, and truncates to the
// name length limit.
func SanitizeName(v string) string {
	v = strings.Join(strings.Fields(v), " ")
	if len(v) > MaxNameLength {
		v = v[:MaxNameLength]
	}
	return v
}
