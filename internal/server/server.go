// Package server provides the HTTP server and routing for Ballast.
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

	"github.com/driftline/ballast/internal/database"
	evaluationhandlers "github.com/driftline/ballast/internal/evaluation/handlers"
	"github.com/driftline/ballast/internal/events"
	accountshandlers "github.com/driftline/ballast/internal/modules/accounts/handlers"
	allocationhandlers "github.com/driftline/ballast/internal/modules/allocation/handlers"
	"github.com/driftline/ballast/internal/modules/drift"
	drifthandlers "github.com/driftline/ballast/internal/modules/drift/handlers"
	historyhandlers "github.com/driftline/ballast/internal/modules/history/handlers"
	presentationhandlers "github.com/driftline/ballast/internal/modules/presentation/handlers"
	rebalancinghandlers "github.com/driftline/ballast/internal/modules/rebalancing/handlers"
	settingshandlers "github.com/driftline/ballast/internal/modules/settings/handlers"
)

// Config holds server configuration
type Config struct {
	Log     zerolog.Logger
	Port    int
	DevMode bool

	ConfigDB    *database.DB
	PortfolioDB *database.DB
	CacheDB     *database.DB
	Bus         *events.Bus

	// DriftService feeds the initial snapshot on WebSocket connect.
	DriftService *drift.Service

	Allocation   *allocationhandlers.Handler
	Accounts     *accountshandlers.Handler
	Drift        *drifthandlers.Handler
	Rebalancing  *rebalancinghandlers.Handler
	Presentation *presentationhandlers.Handler
	History      *historyhandlers.Handler
	Evaluation   *evaluationhandlers.Handler
	Settings     *settingshandlers.Handler
}

// Server represents the HTTP server
type Server struct {
	router  *chi.Mux
	server  *http.Server
	log     zerolog.Logger
	cfg     Config
	system  *SystemHandlers
	stream  *EventsStreamHandler
	driftWS *DriftStreamHandler
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:  chi.NewRouter(),
		log:     cfg.Log.With().Str("component", "server").Logger(),
		cfg:     cfg,
		system:  NewSystemHandlers(cfg.Log, []*database.DB{cfg.ConfigDB, cfg.PortfolioDB, cfg.CacheDB}),
		stream:  NewEventsStreamHandler(cfg.Bus, cfg.Log),
		driftWS: NewDriftStreamHandler(cfg.Bus, cfg.DriftService, cfg.Log),
	}

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes()

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
func (s *Server) setupRoutes() {
	// Health check (plain JSON, outside the API envelope)
	s.router.Get("/health", s.system.HandleHealth)

	// Live drift status stream (WebSocket)
	s.router.Get("/ws/drift", s.driftWS.ServeHTTP)

	// API routes
	s.router.Route("/api", func(r chi.Router) {
		// Unified events stream (SSE)
		r.Get("/events/stream", s.stream.ServeHTTP)

		r.Route("/system", func(r chi.Router) {
			r.Get("/stats", s.system.HandleSystemStats)
		})

		s.cfg.Allocation.RegisterRoutes(r)
		s.cfg.Accounts.RegisterRoutes(r)
		s.cfg.Drift.RegisterRoutes(r)
		s.cfg.Rebalancing.RegisterRoutes(r)
		s.cfg.Presentation.RegisterRoutes(r)
		s.cfg.History.RegisterRoutes(r)
		s.cfg.Settings.RegisterRoutes(r)
		s.cfg.Evaluation.RegisterRoutes(r)
	})
}

// Router exposes the configured router, mainly for tests.
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

		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
