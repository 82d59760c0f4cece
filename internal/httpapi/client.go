// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VetClinic Contributors

// Package httpapi exposes the clinic API over HTTP: request middleware
// (rate limiting, authentication, role checks) and the JSON handlers.
package httpapi

import (
	"net"
	"net/http"
	"strings"
)

// ClientContext is the framework-independent view of a request that the
// middleware operates on. It is built once at the boundary and passed by
// value; the core components never see *http.Request.
type ClientContext struct {
	Identity string
	Cookies  map[string]string
	Headers  map[string]string
}

// NewClientContext extracts the client identity, cookies, and headers
// from a request.
func NewClientContext(r *http.Request) ClientContext {
	cookies := make(map[string]string, len(r.Cookies()))
	for _, c := range r.Cookies() {
		cookies[c.Name] = c.Value
	}

	headers := make(map[string]string, len(r.Header))
	for name := range r.Header {
		headers[name] = r.Header.Get(name)
	}

	return ClientContext{
		Identity: clientIdentity(r),
		Cookies:  cookies,
		Headers:  headers,
	}
}

// clientIdentity derives the rate-limit bucket key for a request.
// X-Forwarded-For (first hop) wins, then X-Real-IP, then the socket address.
// These headers are spoofable unless a trusted proxy strips them; the
// limiter is an abuse brake, not an authentication boundary.
func clientIdentity(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}

	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}

	return "unknown"
}
