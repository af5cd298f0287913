// Package server wires the gateway together: configuration, dependency
// construction, routes, and graceful shutdown. It is the composition
// root: every handler, service and store is assembled here and nowhere
// else.
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
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/tahmid/reviewdeck/internal/auth"
	"github.com/tahmid/reviewdeck/internal/github"
	"github.com/tahmid/reviewdeck/internal/handler"
	"github.com/tahmid/reviewdeck/internal/metrics"
	"github.com/tahmid/reviewdeck/internal/middleware"
	"github.com/tahmid/reviewdeck/internal/queue"
	sqliteRepo "github.com/tahmid/reviewdeck/internal/repository/sqlite"
	"github.com/tahmid/reviewdeck/internal/service"
)

// Config holds everything the server needs, read from the environment in
// main and passed down as one value.
type Config struct {
	Port               int
	DBPath             string
	RedisURL           string
	QueueName          string
	JWTSecret          string
	GitHubClientID     string
	GitHubClientSecret string
	// PublicOrigin is this service's externally reachable origin; the
	// OAuth callback URL is derived from it.
	PublicOrigin string
	// DashboardURL is where completed logins land.
	DashboardURL string
	// Production marks cookies Secure.
	Production bool
}

// Server owns the router and the two backend connections. Both are closed
// during graceful shutdown.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
	queue  *queue.Redis

	webhookLimiter  *middleware.RateLimiter
	registerLimiter *middleware.RateLimiter
}

// New builds the full dependency graph and registers all routes.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	q, err := queue.NewRedis(cfg.RedisURL, cfg.QueueName)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to queue: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
		queue:  q,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		q.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	provider := auth.NewGitHubProvider(
		s.config.GitHubClientID,
		s.config.GitHubClientSecret,
		s.config.PublicOrigin+"/api/auth/callback",
	)
	gh := github.New(collector)

	authService := service.NewAuthService(s.db, tokens, collector, s.logger)
	repoService := service.NewRepoService(s.db, s.db, s.db, gh, collector, s.logger)
	reviewService := service.NewReviewService(s.db, s.db, s.logger)
	webhookService := service.NewWebhookService(s.queue, collector, s.logger)

	authHandler := handler.NewAuthHandler(provider, authService, s.config.DashboardURL, s.config.Production, s.logger)
	repoHandler := handler.NewRepoHandler(repoService, s.logger)
	reviewHandler := handler.NewReviewHandler(reviewService, s.logger)
	webhookHandler := handler.NewWebhookHandler(webhookService, s.logger)
	healthHandler := handler.NewHealthHandler(s.db, s.queue)

	// Webhooks burst hard when a busy repo pushes; registrations don't.
	s.webhookLimiter = middleware.NewRateLimiter(rate.Limit(30), 60)
	s.registerLimiter = middleware.NewRateLimiter(rate.Limit(10.0/60.0), 10)

	s.router.Get("/healthz", healthHandler.HandleHealth)
	s.router.Method(http.MethodGet, "/metrics", metrics.Handler(registry))

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/auth/github", authHandler.HandleLogin)
		r.Get("/auth/callback", authHandler.HandleCallback)
		r.With(s.webhookLimiter.Handler).Post("/webhook", webhookHandler.HandleWebhook)

		// Everything else goes through the auth gate.
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))

			r.Get("/auth/me", authHandler.HandleMe)
			r.Post("/auth/logout", authHandler.HandleLogout)

			r.Get("/repositories", repoHandler.HandleList)
			r.With(s.registerLimiter.Handler).Post("/repositories", repoHandler.HandleRegister)
			r.Get("/repositories/{id}", repoHandler.HandleGet)
			r.Delete("/repositories/{id}", repoHandler.HandleDelete)

			r.Get("/dashboard/stats", reviewHandler.HandleStats)
			r.Get("/dashboard/reviews", reviewHandler.HandleRecent)

			r.Get("/reviews", reviewHandler.HandleAll)
			r.Get("/reviews/{id}", reviewHandler.HandleGet)
		})
	})

	return nil
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, drain in-flight requests for up
// to 30s, close the store and the queue client.
func (s *Server) Start() error {
	defer s.db.Close()
	defer s.queue.Close()
	defer s.webhookLimiter.Stop()
	defer s.registerLimiter.Stop()

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
			slog.String("database", s.config.DBPath),
			slog.String("queue", s.config.QueueName),
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
