// Package web provides the HTTP server for the dashboard: the view list,
// mounted table instances and their HTMX partials.
package web

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/dashboard/internal/config"
	"github.com/JonMunkholm/dashboard/internal/pipeline"
	"github.com/JonMunkholm/dashboard/internal/web/middleware"
)

// Server is the HTTP server for the dashboard.
type Server struct {
	source RowSource
	cfg    config.Config
	table  pipeline.Options
	store  *instanceStore
	logger *slog.Logger

	router *chi.Mux
	server *http.Server
	cancel context.CancelFunc
}

// NewServer creates a new Server reading rows from source.
func NewServer(source RowSource, cfg config.Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		source: source,
		cfg:    cfg,
		table: pipeline.Options{
			ReservedPrefix: cfg.Table.ReservedPrefix,
			Locale:         cfg.Table.LocaleTag(),
			Logger:         logger,
		},
		store:  newInstanceStore(cfg.Table.InstanceTTL, cfg.Table.MaxInstances),
		logger: logger,
		router: chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(chimw.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
	if s.cfg.Server.RequestTimeout > 0 {
		s.router.Use(chimw.Timeout(s.cfg.Server.RequestTimeout))
	}
	s.router.Use(securityHeaders)
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	// Pages
	s.router.Get("/", s.handleDashboard)
	s.router.Get("/views/{viewKey}", s.handleViewPage)

	// API routes
	s.router.Route("/api", func(r chi.Router) {
		r.Get("/views", s.handleListViews)
		r.Post("/views/{viewKey}/instances", s.handleMount)

		r.Get("/instances/{id}", s.handleInstance)
		r.Delete("/instances/{id}", s.handleUnmount)
		r.Post("/instances/{id}/events", s.handleEvent)
	})
}

// Start begins listening for HTTP requests and sweeping idle instances.
// It blocks until the server stops.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go s.store.run(ctx, sweepInterval(s.cfg.Table.InstanceTTL), s.logger)

	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	s.logger.Info("starting server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

func sweepInterval(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return time.Minute
	}
	return min(max(ttl/4, time.Second), time.Minute)
}

// securityHeaders adds security headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}
