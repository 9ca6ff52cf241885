// Package server provides the HTTP server and routing.
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

	"github.com/CryptoBazari/coin-reset-ignition-launch-sub005/internal/config"
	"github.com/CryptoBazari/coin-reset-ignition-launch-sub005/internal/database"
	"github.com/CryptoBazari/coin-reset-ignition-launch-sub005/internal/modules/analysis"
	analysishandlers "github.com/CryptoBazari/coin-reset-ignition-launch-sub005/internal/modules/analysis/handlers"
	calculationshandlers "github.com/CryptoBazari/coin-reset-ignition-launch-sub005/internal/modules/calculations/handlers"
	"github.com/CryptoBazari/coin-reset-ignition-launch-sub005/internal/modules/coins"
	coinshandlers "github.com/CryptoBazari/coin-reset-ignition-launch-sub005/internal/modules/coins/handlers"
	"github.com/CryptoBazari/coin-reset-ignition-launch-sub005/internal/modules/conditions"
	conditionshandlers "github.com/CryptoBazari/coin-reset-ignition-launch-sub005/internal/modules/conditions/handlers"
)

// Config holds server configuration
type Config struct {
	Log      zerolog.Logger
	Config   *config.Config
	MarketDB *database.DB
	CacheDB  *database.DB

	AnalysisService *analysis.Service
	AnalysisRepo    *analysis.Repository
	CoinRepo        *coins.Repository
	Conditions      *conditions.Service
}

// Server represents the HTTP server
type Server struct {
	router         *chi.Mux
	server         *http.Server
	log            zerolog.Logger
	cfg            *config.Config
	systemHandlers *SystemHandlers
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:         chi.NewRouter(),
		log:            cfg.Log.With().Str("component", "server").Logger(),
		cfg:            cfg.Config,
		systemHandlers: NewSystemHandlers(cfg.Log, cfg.Config.DataDir, cfg.MarketDB, cfg.CacheDB),
	}

	s.setupMiddleware(cfg.Config.DevMode)
	s.setupRoutes(cfg)

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	// Recovery from panics
	s.router.Use(middleware.Recoverer)

	// Request ID
	s.router.Use(middleware.RequestID)

	// Real IP
	s.router.Use(middleware.RealIP)

	// Logging
	s.router.Use(s.loggingMiddleware)

	// Timeout
	s.router.Use(middleware.Timeout(60 * time.Second))

	// CORS
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Compress responses
	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes(cfg Config) {
	// Health and system monitoring
	s.router.Get("/api/health", s.systemHandlers.HandleHealth)
	s.router.Get("/api/system/status", s.systemHandlers.HandleSystemStatus)

	analysishandlers.NewHandler(cfg.AnalysisService, cfg.AnalysisRepo, s.log).RegisterRoutes(s.router)
	calculationshandlers.NewHandler(s.log).RegisterRoutes(s.router)
	coinshandlers.NewHandler(cfg.CoinRepo, s.log).RegisterRoutes(s.router)
	conditionshandlers.NewHandler(cfg.Conditions, s.log).RegisterRoutes(s.router)
}

// Router exposes the underlying router, used by tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
