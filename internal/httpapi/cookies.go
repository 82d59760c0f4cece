// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VetClinic Contributors

package httpapi

import (
	"net/http"
	"time"
)

// setSessionCookie issues the session cookie. Secure is tied to the
// production flag so local development over plain HTTP still works.
func (s *Server) setSessionCookie(w http.ResponseWriter, token string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   s.production,
		SameSite: http.SameSiteStrictMode,
	})
}

// clearSessionCookie expires the session cookie immediately.
func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.production,
		SameSite: http.SameSiteStrictMode,
	})
}
