package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/me/rrsched/internal/config"
	"github.com/me/rrsched/internal/runner"
	"github.com/me/rrsched/internal/session"
	"github.com/me/rrsched/internal/store"
)

// Version is reported by the health and discovery endpoints.
const Version = "0.1.0"

// Server is the rrsched REST API server.
type Server struct {
	router    chi.Router
	logger    *slog.Logger
	config    config.ServerConfig
	startTime time.Time
	store     store.Store
	runner    *runner.Runner
	sessions  *session.Manager
	heartbeat time.Duration
}

// Option configures optional Server dependencies.
type Option func(*Server)

// WithSessionManager replaces the default session manager.
func WithSessionManager(m *session.Manager) Option {
	return func(s *Server) {
		s.sessions = m
	}
}

// WithHeartbeat sets the SSE heartbeat interval.
func WithHeartbeat(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.heartbeat = d
		}
	}
}

// New creates a new Server with all routes registered. Unless an option
// supplies one, sessions are recorded through a runner on st.
func New(cfg config.ServerConfig, st store.Store, logger *slog.Logger, opts ...Option) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		logger:    logger.With("component", "server"),
		config:    cfg,
		startTime: time.Now(),
		store:     st,
		runner:    runner.New(st, logger),
		heartbeat: 15 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.sessions == nil {
		s.sessions = session.NewManager(s.runner, cfg.MaxSessions, logger)
	}

	s.routes()
	return s
}

// Close stops executing sessions and waits for their runs to be recorded.
func (s *Server) Close() {
	s.sessions.Close()
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Handler returns the http.Handler for this server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	r := s.router

	// Global middleware
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(s.logger))

	r.Route("/api/v1", func(r chi.Router) {
		// Discovery
		r.Get("/", s.handleDiscovery)

		// Health
		r.Get("/health", s.handleHealth)

		// Persisted runs
		r.Route("/runs", func(r chi.Router) {
			r.Get("/", s.handleListRuns)
			r.Post("/", s.handleCreateRun)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetRun)
				r.Delete("/", s.handleDeleteRun)
				r.Get("/events", s.handleListRunEvents)
				r.Get("/report", s.handleGetRunReport)
			})
		})

		// Interactive sessions
		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", s.handleListSessions)
			r.Post("/", s.handleCreateSession)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetSession)
				r.Delete("/", s.handleDeleteSession)
				r.Post("/processes", s.handleAddProcess)
				r.Post("/execute", s.handleExecuteSession)
			})
		})

		// SSE endpoints for real-time updates
		r.Route("/sse", func(r chi.Router) {
			r.Get("/sessions/{id}", s.handleSSESession)
		})
	})
}
