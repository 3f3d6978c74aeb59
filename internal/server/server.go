// Package server sets up the HTTP server, router, and all route definitions.
//
// This package is the "wiring" layer: it connects the store, services,
// handlers and middleware, and runs the server until a shutdown signal.
//
// DEPENDENCY INJECTION FLOW:
// main.go opens the database (and Redis, when configured) and passes them in.
// New() builds: sqlstore.DB → services → handlers → routes.
//
// This is the "composition root" pattern: all dependencies are wired in one
// place rather than scattered across the codebase.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/sakif/tinkerer-vote/internal/auth"
	"github.com/sakif/tinkerer-vote/internal/config"
	"github.com/sakif/tinkerer-vote/internal/handler"
	"github.com/sakif/tinkerer-vote/internal/middleware"
	"github.com/sakif/tinkerer-vote/internal/repository/rediscache"
	"github.com/sakif/tinkerer-vote/internal/repository/sqlstore"
	"github.com/sakif/tinkerer-vote/internal/service"
)

// Server represents the HTTP server and all its dependencies.
//
// RESOURCE MANAGEMENT:
// The Server owns the database connection and the optional Redis client and
// closes both when Start returns.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	db     *sqlstore.DB
	rdb    *redis.Client // nil when REDIS_ADDR is unset
}

// New wires every layer. rdb may be nil, which disables rate limiting and
// the stats cache.
func New(cfg *config.Config, logger *slog.Logger, db *sqlstore.DB, rdb *redis.Client) (*Server, error) {
	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
		rdb:    rdb,
	}

	if err := s.setupRoutes(); err != nil {
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// Handler returns the router. Tests drive it through httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
// GET      /auth/login          → redirect to Discord
// GET      /auth/callback       → finish login, set session cookie
// GET|POST /auth/logout         → clear session cookie
// GET      /auth/me             → current user or null
// GET      /api/leaderboard     → ranked ideas (optional auth)
// GET      /api/stats           → totals
// POST     /api/ideas           → create idea (auth)
// PUT      /api/ideas/{id}      → edit own idea (auth)
// DELETE   /api/ideas/{id}      → delete own idea, or any as admin (auth)
// POST     /api/votes/{ideaId}  → toggle vote (auth)
// GET      /healthz             → liveness
// GET      /*                   → frontend
//
// MIDDLEWARE ORDER MATTERS:
// 1. RequestID: assigns unique ID to each request (for tracing)
// 2. RealIP: extracts real client IP from proxy headers
// 3. Logger: logs each request with timing info
// 4. Recoverer: catches panics and returns 500 instead of crashing
// 5. SecurityHeaders: CSP and friends on every response
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.SecurityHeaders(s.config.IsProduction()))

	// === Auth ===
	tokens, err := auth.NewTokenService(s.config.SessionSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	discord := auth.NewDiscordProvider(auth.DiscordConfig{
		ClientID:     s.config.DiscordClientID,
		ClientSecret: s.config.DiscordClientSecret,
		RedirectURL:  s.config.DiscordRedirectURI,
		APIBase:      s.config.DiscordAPIBase,
		HTTPClient:   &http.Client{Timeout: 10 * time.Second},
	})

	// === Services ===
	// s.db implements every repository interface; each service only sees
	// the slice it needs.
	var statsCache service.StatsCache
	if s.rdb != nil {
		statsCache = rediscache.NewStatsCache(s.rdb, s.config.StatsCacheTTL)
	}

	identityService := service.NewIdentityService(s.db, discord, s.config.RequiredGuildID, s.config.AdminIDs, s.logger)
	ideaService := service.NewIdeaService(s.db, s.db, s.logger)
	voteService := service.NewVoteService(s.db, s.logger)
	leaderboardService := service.NewLeaderboardService(s.db)
	statsService := service.NewStatsService(s.db, statsCache, s.logger)

	// === Handlers ===
	authHandler := handler.NewAuthHandler(discord, identityService, tokens, s.config.IsProduction(), s.logger)
	ideaHandler := handler.NewIdeaHandler(ideaService, s.logger)
	voteHandler := handler.NewVoteHandler(voteService, s.logger)
	boardHandler := handler.NewBoardHandler(leaderboardService, statsService, s.logger)
	spa := handler.NewSPAHandler(s.config.StaticDir)

	apiLimit, authLimit := s.rateLimiters()

	s.router.Route("/auth", func(r chi.Router) {
		r.Use(authLimit)
		r.Get("/login", authHandler.HandleLogin)
		r.Get("/callback", authHandler.HandleCallback)
		r.Get("/logout", authHandler.HandleLogout)
		r.Post("/logout", authHandler.HandleLogout)
		r.With(auth.OptionalAuth(tokens)).Get("/me", authHandler.HandleMe)
	})

	s.router.Route("/api", func(r chi.Router) {
		r.Use(apiLimit)
		r.NotFound(spa.ServeHTTP)

		r.With(auth.OptionalAuth(tokens)).Get("/leaderboard", boardHandler.HandleLeaderboard)
		r.Get("/stats", boardHandler.HandleStats)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))
			r.Post("/ideas", ideaHandler.HandleCreate)
			r.Put("/ideas/{id}", ideaHandler.HandleUpdate)
			r.Delete("/ideas/{id}", ideaHandler.HandleDelete)
			r.Post("/votes/{ideaId}", voteHandler.HandleToggle)
		})
	})

	s.router.Get("/healthz", handler.HandleHealth(s.db, s.logger))
	s.router.Handle("/*", spa)

	return nil
}

// rateLimiters returns the /api and /auth limit middleware. Without Redis
// both are pass-through.
func (s *Server) rateLimiters() (api, authRoutes func(http.Handler) http.Handler) {
	if s.rdb == nil {
		s.logger.Warn("REDIS_ADDR not set: rate limiting and stats cache disabled")
		pass := func(next http.Handler) http.Handler { return next }
		return pass, pass
	}

	limiter := rediscache.NewLimiter(s.rdb)
	api = middleware.RateLimit(limiter, middleware.RateLimitPolicy{
		Name:    "api",
		Limit:   s.config.APIRateLimit,
		Window:  s.config.RateLimitWindow,
		Message: "Too many requests, please try again later.",
	}, s.logger)
	authRoutes = middleware.RateLimit(limiter, middleware.RateLimitPolicy{
		Name:    "auth",
		Limit:   s.config.AuthRateLimit,
		Window:  s.config.RateLimitWindow,
		Message: "Too many authentication attempts, please try again later.",
	}, s.logger)
	return api, authRoutes
}

// Start starts the HTTP server and handles graceful shutdown.
//
// GRACEFUL SHUTDOWN:
// 1. Stop accepting new HTTP connections
// 2. Wait for in-flight requests to finish (30s timeout)
// 3. Close Redis and the database connection
func (s *Server) Start() error {
	defer s.db.Close()
	if s.rdb != nil {
		defer s.rdb.Close()
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("env", s.config.AppEnv),
			slog.String("database", string(s.db.Dialect())),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
