// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VetClinic Contributors

package httpapi

import "net/http"

// healthEntryThreshold is the limiter entry count above which the health
// endpoint reports degradation. It is the only externally observable
// contract of the limiter's internal size.
const healthEntryThreshold = 8000

type healthResponse struct {
	Status           string `json:"status"`
	RateLimitEntries int    `json:"rateLimitEntries"`
	MemoryEstimate   int    `json:"memoryEstimateBytes"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	stats := s.limiter.Stats()

	resp := healthResponse{
		Status:           "healthy",
		RateLimitEntries: stats.TotalEntries,
		MemoryEstimate:   stats.MemoryEstimate,
	}
	status := http.StatusOK

	if stats.TotalEntries >= healthEntryThreshold {
		resp.Status = "warning"
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, resp)
}
