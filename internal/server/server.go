package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/vmware/transport-docs/internal/audit"
	"github.com/vmware/transport-docs/internal/content"
	"github.com/vmware/transport-docs/internal/logging"
	"github.com/vmware/transport-docs/internal/routes"
	"github.com/vmware/transport-docs/internal/session"
	"github.com/vmware/transport-docs/internal/shell"
)

// Config holds server configuration.
type Config struct {
	Port     int
	AllowAll bool // allow all CORS origins (dev mode)
}

// Stylesheet writes the CSS matching the highlighter's markup.
type Stylesheet interface {
	CSS(w io.Writer) error
}

// Section is one documentation section. It is served under its shell's
// base path and keeps its own sessions, so a visitor holds one router per
// section.
type Section struct {
	Name     string
	Table    *routes.Table
	Shell    *shell.Shell
	Sessions *session.Manager
}

// BasePath returns the prefix the section is served under.
func (sec *Section) BasePath() string { return sec.Shell.BasePath() }

// Deps are the components the server routes requests to.
type Deps struct {
	Sections []Section // the first one renders the welcome page
	Library  *content.Library
	Styles   Stylesheet   // optional
	Audit    *audit.Store // optional; enables /api/events
	Logger   *slog.Logger
}

// Server serves the documentation section and its JSON APIs.
type Server struct {
	cfg        Config
	deps       Deps
	logger     *slog.Logger
	router     chi.Router
	httpServer *http.Server
}

// New creates a server with all routes registered.
// Every section needs a non-root base path.
func New(cfg Config, deps Deps) *Server {
	s := &Server{
		cfg:    cfg,
		deps:   deps,
		logger: logging.Component(deps.Logger, "server"),
	}

	s.router = s.buildRouter()
	return s
}

// buildRouter creates and configures the chi router with all routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS
	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	// Health check
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		sessions := 0
		for i := range s.deps.Sections {
			sessions += s.deps.Sections[i].Sessions.Len()
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"status":   "ok",
			"sessions": sessions,
		})
	})

	// The websocket stays open for the whole visit, so it is kept out of
	// the request timeout.
	for i := range s.deps.Sections {
		sec := &s.deps.Sections[i]
		r.Get(sec.BasePath()+"/ws", s.handleWebSocket(sec))
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))

		r.Get("/", s.handleWelcome)
		for i := range s.deps.Sections {
			sec := &s.deps.Sections[i]
			r.Get(sec.BasePath(), s.handlePage(sec))
			r.Get(sec.BasePath()+"/*", s.handlePage(sec))
		}

		r.Get("/static/highlight.css", s.handleHighlightCSS)
		r.Handle("/static/*", http.StripPrefix("/static/", shell.Static()))

		r.Get("/api/routes", s.handleRoutes)
		if s.deps.Audit != nil {
			audit.RegisterRoutes(r, s.deps.Audit)
		}
	})

	return r
}

// Router returns the chi router for registering additional routes.
func (s *Server) Router() chi.Router { return s.router }

// ServerConfig returns the server configuration.
func (s *Server) ServerConfig() Config { return s.cfg }

// Start begins listening on the configured port. It returns nil after a
// graceful Shutdown.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.logger.Info("transport-docs listening", "addr", addr, "sections", len(s.deps.Sections))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
