// Package web provides the HTTP server and handlers for record lookups.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/singleflight"

	"github.com/JonMunkholm/recfind/internal/audit"
	"github.com/JonMunkholm/recfind/internal/config"
	"github.com/JonMunkholm/recfind/internal/core"
	"github.com/JonMunkholm/recfind/internal/dataset"
	webmw "github.com/JonMunkholm/recfind/internal/web/middleware"
)

// AuditLog is the read side of the search audit.
type AuditLog interface {
	List(ctx context.Context, f audit.Filter) (*audit.Page, error)
}

// Server is the HTTP server for record lookups.
type Server struct {
	service  *core.Service
	catalog  *dataset.Catalog
	limiter  *core.SearchLimiter
	auditLog AuditLog
	cfg      *config.Config
	logger   *slog.Logger

	searches    singleflight.Group
	rateLimiter *webmw.RateLimiter

	router *chi.Mux
	server *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithAuditLog exposes the search audit under /api/audit.
func WithAuditLog(log AuditLog) Option {
	return func(s *Server) { s.auditLog = log }
}

// WithLogger sets the logger for server lifecycle messages.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates a new Server instance.
func NewServer(service *core.Service, catalog *dataset.Catalog, cfg *config.Config, opts ...Option) *Server {
	s := &Server{
		service: service,
		catalog: catalog,
		limiter: core.NewSearchLimiter(cfg.Search.MaxConcurrent, cfg.Search.MaxWaitTime),
		cfg:     cfg,
		logger:  slog.Default(),
		router:  chi.NewRouter(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(webmw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(webmw.Logger)
	s.router.Use(middleware.Recoverer)
	if s.cfg.Server.WriteTimeout > 0 {
		s.router.Use(middleware.Timeout(s.cfg.Server.WriteTimeout))
	}
	s.router.Use(s.securityHeaders)

	if s.cfg.Rate.Enabled {
		s.rateLimiter = webmw.NewRateLimiter(s.cfg.Rate.RequestsPerMinute, s.cfg.Rate.Burst)
		s.router.Use(s.rateLimiter.Handler)
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Group(func(r chi.Router) {
		r.Use(webmw.APIKeyAuth(&s.cfg.Security))

		r.Get("/report", s.handleReport)

		r.Route("/api", func(r chi.Router) {
			r.Get("/datasets", s.handleListDatasets)
			r.Post("/datasets/refresh", s.handleRefreshDatasets)
			r.Get("/classify", s.handleClassify)
			r.Get("/search", s.handleSearch)

			if s.auditLog != nil {
				r.Get("/audit", s.handleAuditLog)
				r.Get("/audit/export", s.handleAuditLogExport)
			}
		})
	})
}

// Start begins listening for HTTP requests on the configured address.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	s.logger.Info("server starting", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown waits for running searches, then gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.rateLimiter != nil {
		s.rateLimiter.Close()
	}

	if active := s.limiter.ActiveCount(); active > 0 {
		s.logger.Info("waiting for searches to complete", "active", active)
		if err := s.limiter.WaitForDrain(ctx); err != nil {
			s.logger.Warn("searches did not complete in time", "error", err)
		}
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

// Limiter returns the search limiter.
func (s *Server) Limiter() *core.SearchLimiter {
	return s.limiter
}

// securityHeaders adds security headers to all responses.
func (s *Server) securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Cache-Control", "no-store")

		if s.cfg.Security.EnableCSP {
			// The report is self-contained: inline style, inline script, no external resources
			h.Set("Content-Security-Policy", "default-src 'none'; script-src 'unsafe-inline'; style-src 'unsafe-inline'; img-src data:; base-uri 'none'; form-action 'none'; frame-ancestors 'none'")
		}

		next.ServeHTTP(w, r)
	})
}

// writeJSON encodes v as JSON and writes it to w.
// Logs encoding errors since headers are already sent.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "path", r.URL.Path, "error", err)
	}
}
