// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VetClinic Contributors

package observability

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startServer(t *testing.T, ready ReadinessChecker) *Server {
	t.Helper()
	s := NewServer("127.0.0.1:0", ready)
	_, err := s.Start()
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		require.NoError(t, s.Stop(ctx))
	})
	return s
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url) //nolint:gosec // test URL built from local listener
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestServer_Liveness(t *testing.T) {
	s := startServer(t, nil)
	status, body := get(t, "http://"+s.Addr()+"/healthz/liveness")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok\n", body)
}

func TestServer_Readiness(t *testing.T) {
	t.Run("ready", func(t *testing.T) {
		s := startServer(t, func() bool { return true })
		status, _ := get(t, "http://"+s.Addr()+"/healthz/readiness")
		assert.Equal(t, http.StatusOK, status)
	})

	t.Run("not ready", func(t *testing.T) {
		s := startServer(t, func() bool { return false })
		status, body := get(t, "http://"+s.Addr()+"/healthz/readiness")
		assert.Equal(t, http.StatusServiceUnavailable, status)
		assert.Equal(t, "not ready\n", body)
	})
}

func TestServer_MetricsEndpoint(t *testing.T) {
	s := startServer(t, nil)
	s.Metrics().RequestsTotal.WithLabelValues("/api/login", "200").Inc()

	status, body := get(t, "http://"+s.Addr()+"/metrics")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "vetclinic_requests_total")
}

func TestServer_DoubleStartRejected(t *testing.T) {
	s := startServer(t, nil)
	_, err := s.Start()
	assert.Error(t, err)
}
