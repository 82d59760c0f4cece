// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VetClinic Contributors

package ratelimit

import (
	"math"
	"strconv"
	"time"
)

// LimitedResponse is the payload for a 429 reply.
type LimitedResponse struct {
	StatusCode int
	Headers    map[string]string
	Body       LimitedBody
}

// LimitedBody is the JSON body of a 429 reply.
type LimitedBody struct {
	Error      string `json:"error"`
	RetryAfter int    `json:"retryAfter"`
	ResetTime  string `json:"resetTime"`
}

// Response formats the standard 429 reply for an exhausted limit.
// RetryAfter is clamped to >= 0 even if resetTime is already in the past.
func Response(resetTime time.Time, remaining int) LimitedResponse {
	retryAfter := int(math.Ceil(time.Until(resetTime).Seconds()))
	if retryAfter < 0 {
		retryAfter = 0
	}

	reset := resetTime.UTC().Format(time.RFC3339)
	return LimitedResponse{
		StatusCode: 429,
		Headers: map[string]string{
			"Retry-After":           strconv.Itoa(retryAfter),
			"X-RateLimit-Remaining": strconv.Itoa(remaining),
			"X-RateLimit-Reset":     reset,
		},
		Body: LimitedBody{
			Error:      "Too many requests, please try again later",
			RetryAfter: retryAfter,
			ResetTime:  reset,
		},
	}
}
