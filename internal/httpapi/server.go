// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VetClinic Contributors

package httpapi

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/samber/oops"

	"github.com/Dzyra46/vet-clinic-devsecops-sub000/internal/audit"
	"github.com/Dzyra46/vet-clinic-devsecops-sub000/internal/auth"
	"github.com/Dzyra46/vet-clinic-devsecops-sub000/internal/clinic"
	"github.com/Dzyra46/vet-clinic-devsecops-sub000/internal/observability"
	"github.com/Dzyra46/vet-clinic-devsecops-sub000/internal/ratelimit"
)

// AuthService is the authentication surface the handlers need.
// auth.Service implements it; tests substitute fakes.
type AuthService interface {
	Register(ctx context.Context, name, email, password string, role auth.Role) (*auth.User, error)
	Login(ctx context.Context, email, password string) (*auth.User, string, error)
	ValidateSession(ctx context.Context, token string) (*auth.User, error)
	Logout(ctx context.Context, token string) error
	SessionTTL() time.Duration
}

// Options configures a Server.
type Options struct {
	Addr       string
	Production bool
	Auth       AuthService
	Patients   clinic.PatientRepository
	Limiter    *ratelimit.Store
	Auditor    *audit.Logger
	Metrics    *observability.Metrics
}

// Server serves the clinic JSON API.
type Server struct {
	addr       string
	production bool
	authsvc    AuthService
	authmw     *Authenticator
	patients   clinic.PatientRepository
	limiter    *ratelimit.Store
	auditor    *audit.Logger
	metrics    *observability.Metrics

	listener   net.Listener
	httpServer *http.Server
	running    atomic.Bool
}

// NewServer creates a Server from options.
func NewServer(opts Options) *Server {
	return &Server{
		addr:       opts.Addr,
		production: opts.Production,
		authsvc:    opts.Auth,
		authmw:     NewAuthenticator(opts.Auth),
		patients:   opts.Patients,
		limiter:    opts.Limiter,
		auditor:    opts.Auditor,
		metrics:    opts.Metrics,
	}
}

// Handler returns the routed API handler.
// Per-request ordering is rate limit, then auth, then validation, then the
// operation and its audit write; the mux wiring enforces it.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	handle := func(pattern string, policy ratelimit.Policy, h http.HandlerFunc) {
		mux.HandleFunc(pattern, s.instrument(pattern, s.rateLimit(policy, h)))
	}

	handle("POST /api/register", ratelimit.PolicyRegister, s.handleRegister)
	handle("POST /api/login", ratelimit.PolicyLogin, s.handleLogin)
	handle("POST /api/logout", ratelimit.PolicyWrite, s.handleLogout)

	handle("POST /api/patients", ratelimit.PolicyWrite, s.handleCreatePatient)
	handle("GET /api/patients", ratelimit.PolicyRead, s.handleListPatients)
	handle("GET /api/patients/{id}", ratelimit.PolicyRead, s.handleGetPatient)
	handle("PUT /api/patients/{id}", ratelimit.PolicyWrite, s.handleUpdatePatient)
	handle("DELETE /api/patients/{id}", ratelimit.PolicyWrite, s.handleDeletePatient)

	mux.HandleFunc("GET /api/health", s.instrument("GET /api/health", s.handleHealth))

	return mux
}

// Start begins serving the API. It returns an error channel that receives
// any serve error; the channel is closed on graceful stop.
func (s *Server) Start() (<-chan error, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, oops.Errorf("api server already running")
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		s.running.Store(false)
		return nil, oops.With("addr", s.addr).Wrap(err)
	}
	s.listener = listener

	httpSrv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.httpServer = httpSrv

	errCh := make(chan error, 1)

	go func() {
		defer close(errCh)
		if serveErr := httpSrv.Serve(listener); serveErr != nil && serveErr != http.ErrServerClosed {
			slog.Error("api server error", "error", serveErr)
			errCh <- serveErr
		}
	}()

	slog.Info("api server started", "addr", listener.Addr().String())
	return errCh, nil
}

// Stop gracefully shuts down the API server.
func (s *Server) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.running.Store(true)
			return oops.With("operation", "shutdown_api_server").Wrap(err)
		}
	}

	slog.Info("api server stopped")
	return nil
}

// Addr returns the address the server is listening on.
// Returns empty string if not running.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}

// writeAudit records an entry; the audit logger handles its own failure
// logging, so handlers never fail a request over it.
func (s *Server) writeAudit(ctx context.Context, actor, action, resource string, outcome audit.Outcome, detail string) {
	if s.auditor == nil {
		return
	}
	_ = s.auditor.Log(ctx, audit.NewEntry(actor, action, resource, outcome, detail))
}
