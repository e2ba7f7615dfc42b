// Package devserver is a self-contained implementation of the campaign
// service REST API backed by BoltDB. It serves local development and
// end-to-end tests of the console.
package devserver

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/foxzi/disparo/internal/metrics"
)

// DefaultQuota is the system-wide daily quota when none is configured
const DefaultQuota = 4000

// Config configures the development server
type Config struct {
	ListenAddr string
	// Token, when set, is required as a bearer token on every API call
	Token string
	// Quota is the system-wide number of emails that may be sent per day
	Quota int
}

// Server is the HTTP API of the development backend
type Server struct {
	router     *chi.Mux
	httpServer *http.Server
	store      *Store
	config     Config
	metrics    *metrics.Metrics
	logger     *slog.Logger
	now        func() time.Time
}

// NewServer creates a new development server
func NewServer(store *Store, cfg Config, m *metrics.Metrics, logger *slog.Logger) *Server {
	if cfg.Quota <= 0 {
		cfg.Quota = DefaultQuota
	}
	s := &Server{
		router:  chi.NewRouter(),
		store:   store,
		config:  cfg,
		metrics: m,
		logger:  logger.With("component", "devserver"),
		now:     time.Now,
	}

	s.setupRoutes()
	s.httpServer = &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Recoverer)
	s.router.Use(metrics.HTTPMiddleware(s.metrics))

	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Use(s.authMiddleware)

		r.Get("/dashboard/stats", s.handleDashboard)

		r.Route("/campaigns", func(r chi.Router) {
			r.Get("/", s.handleListCampaigns)
			r.Post("/", s.handleCreateCampaign)
			r.Get("/{id}", s.handleGetCampaign)
			r.Delete("/{id}", s.handleDeleteCampaign)
			r.Post("/{id}/{action}", s.handleCampaignAction)
		})

		r.Route("/lists", func(r chi.Router) {
			r.Get("/", s.handleListLists)
			r.Post("/", s.handleUploadList)
			r.Get("/{id}", s.handleGetList)
			r.Get("/{id}/contacts", s.handleListContacts)
			r.Delete("/{id}", s.handleDeleteList)
		})

		r.Route("/templates", func(r chi.Router) {
			r.Get("/", s.handleListTemplates)
			r.Post("/", s.handleCreateTemplate)
			r.Get("/{id}", s.handleGetTemplate)
			r.Put("/{id}", s.handleUpdateTemplate)
			r.Delete("/{id}", s.handleDeleteTemplate)
		})
	})
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe starts the HTTP server
func (s *Server) ListenAndServe() error {
	s.logger.Info("starting development API server", "addr", s.config.ListenAddr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down development API server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", r.Header.Get("X-Request-ID"),
		)
	})
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.config.Token == "" {
			next.ServeHTTP(w, r)
			return
		}

		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || token != s.config.Token {
			s.logger.Warn("unauthorized API request",
				"remote_addr", r.RemoteAddr,
				"path", r.URL.Path,
			)
			s.sendError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		next.ServeHTTP(w, r)
	})
}
