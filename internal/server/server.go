package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/quantframe/quantframe/internal/config"
	"github.com/quantframe/quantframe/internal/database"
	"github.com/quantframe/quantframe/internal/modules/insight"
	"github.com/quantframe/quantframe/internal/modules/optimization"
)

// InsightSource exposes a construction model's active insights for
// diagnostics. *insight.Collection satisfies it.
type InsightSource interface {
	GetActiveInsights(t time.Time) []*insight.Insight
}

// Config holds server configuration
type Config struct {
	Port     int
	Log      zerolog.Logger
	DB       *database.DB
	Config   *config.Config
	DevMode  bool
	Insights InsightSource // optional
}

// Server exposes the optimization and price-history APIs.
type Server struct {
	router   *chi.Mux
	server   *http.Server
	log      zerolog.Logger
	history  *database.HistoryRepository
	insights InsightSource
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:   chi.NewRouter(),
		log:      cfg.Log.With().Str("component", "server").Logger(),
		history:  database.NewHistoryRepository(cfg.DB.Conn(), cfg.Log),
		insights: cfg.Insights,
	}

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes(cfg)

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(60 * time.Second))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	if devMode {
		s.router.Use(middleware.NoCache)
	}
}

// setupRoutes mounts the module handlers
func (s *Server) setupRoutes(cfg Config) {
	provider := optimization.NewReturnsProvider(s.history, s.log)
	optimizationHandler := optimization.NewHandler(provider, cfg.Config.RiskFreeRate, cfg.Config.TargetReturn, s.log)

	s.router.Get("/health", s.handleHealth)
	s.router.Route("/api", func(r chi.Router) {
		optimizationHandler.RegisterRoutes(r)
		r.Post("/history", s.handleSaveHistory)
		r.Get("/history/{symbol}", s.handleGetHistory)
		r.Get("/insights", s.handleGetInsights)
	})
}

// loggingMiddleware logs each request with zerolog
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("Request handled")
	})
}

// Start begins listening for requests
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("Starting HTTP server")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}
