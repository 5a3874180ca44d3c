package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jonboulle/clockwork"

	"github.com/me/entrena/internal/config"
)

// Server is an in-memory stand-in for the EntrenaPro API. It serves the
// endpoints the client uses with the same status codes and bodies, so the
// client can be exercised locally and in tests.
type Server struct {
	router    chi.Router
	logger    *slog.Logger
	config    config.ServerConfig
	clock     clockwork.Clock
	startTime time.Time
	data      *state
}

// Option configures optional Server dependencies.
type Option func(*Server)

// WithClock sets the clock used for token issue and expiry.
func WithClock(c clockwork.Clock) Option {
	return func(s *Server) {
		s.clock = c
	}
}

// New creates a new Server with all routes registered.
func New(cfg config.ServerConfig, logger *slog.Logger, opts ...Option) *Server {
	s := &Server{
		router: chi.NewRouter(),
		logger: logger.With("component", "server"),
		config: cfg,
		clock:  clockwork.NewRealClock(),
		data:   newState(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.config.TokenTTL <= 0 {
		s.config.TokenTTL = time.Hour
	}
	s.startTime = s.clock.Now()

	s.routes()
	return s
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

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		// Public
		r.Post("/usuarios/register", s.handleRegister)
		r.Post("/usuarios/login", s.handleLogin)
		r.Post("/dev/promote_entrenador", s.handlePromote)
		r.Get("/rutinas/public", s.handleListPublicRutinas)

		// Bearer token required
		r.Group(func(r chi.Router) {
			r.Use(s.jwtRequired)
			r.Post("/mediciones", s.handleCreateMedicion)
			r.Get("/mediciones/{clienteID}", s.handleListMediciones)
			r.Post("/rutinas", s.handleCreateRutina)
			r.Get("/rutinas/{userID}", s.handleListRutinas)
			r.Delete("/rutinas/{rutinaID}", s.handleDeleteRutina)
		})
	})
}
