// Package server exposes the HTTP API: account registration and login,
// business profile management, and agent tool execution.
//
// Every route under /api/v1 answers JSON. Authenticated routes expect a
// bearer token minted by the auth package; resources are visible only
// to the user who owns them, and foreign ids answer 404 rather than
// 403 so ownership cannot be probed.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"bizradar/internal/agent"
	"bizradar/internal/auth"
	"bizradar/internal/store"
)

// Options carries the server's collaborators and listener settings.
type Options struct {
	Addr     string
	Store    *store.Store
	Registry *agent.Registry
	Issuer   *auth.Issuer
	Logger   *zap.Logger

	// BcryptCost for password hashing; 0 picks the bcrypt default.
	BcryptCost int

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Server is the HTTP API server.
type Server struct {
	store      *store.Store
	registry   *agent.Registry
	issuer     *auth.Issuer
	logger     *zap.Logger
	bcryptCost int

	http *http.Server
}

// New builds the server with its router wired up.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		store:      opts.Store,
		registry:   opts.Registry,
		issuer:     opts.Issuer,
		logger:     logger.Named("server"),
		bcryptCost: opts.BcryptCost,
	}

	s.http = &http.Server{
		Addr:         opts.Addr,
		Handler:      s.Router(),
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
	}
	return s
}

// Router assembles the chi route tree. Exposed so tests can drive the
// handlers through httptest without a listener.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/register", s.handleRegister)
		r.Post("/auth/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)

			r.Get("/me", s.handleMe)
			r.Get("/agents", s.handleListAgents)
			r.Get("/interactions/{interactionID}", s.handleGetInteraction)

			r.Route("/profiles", func(r chi.Router) {
				r.Post("/", s.handleCreateProfile)
				r.Get("/", s.handleListProfiles)

				r.Route("/{profileID}", func(r chi.Router) {
					r.Get("/", s.handleGetProfile)
					r.Put("/", s.handleUpdateProfile)
					r.Delete("/", s.handleDeleteProfile)
					r.Get("/competitions", s.handleListCompetitions)
					r.Get("/interactions", s.handleListInteractions)
					r.Post("/agents/{agent}/tools/{tool}", s.handleRunTool)
				})
			})
		})
	})

	return r
}

// Start begins serving. Blocks until the listener closes.
func (s *Server) Start() error {
	s.logger.Info("listening", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests until the context expires.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
