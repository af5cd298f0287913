// Command server runs the review-pipeline gateway: GitHub OAuth login,
// repository registration, webhook intake, and the dashboard read API.
//
// Configuration is environment variables only:
//
//	PORT                  listen port (default 8080)
//	DB_PATH               sqlite file shared with the analysis worker (default data/reviewdeck.db)
//	REDIS_URL             queue broker (default redis://localhost:6379)
//	QUEUE_NAME            job list name (default pr_queue)
//	JWT_SECRET            session signing secret, required; rotate to revoke all sessions
//	GITHUB_CLIENT_ID      OAuth App client ID, required
//	GITHUB_CLIENT_SECRET  OAuth App client secret, required
//	PUBLIC_ORIGIN         externally reachable origin of this service (default http://localhost:PORT)
//	DASHBOARD_URL         where completed logins redirect (default PUBLIC_ORIGIN)
//	ENV                   "production" marks cookies Secure
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/tahmid/reviewdeck/internal/queue"
	"github.com/tahmid/reviewdeck/internal/server"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	port := 8080
	if portStr := os.Getenv("PORT"); portStr != "" {
		var err error
		port, err = strconv.Atoi(portStr)
		if err != nil {
			logger.Error("invalid PORT value", slog.String("value", portStr))
			os.Exit(1)
		}
	}

	dbPath := "data/reviewdeck.db"
	if envDB := os.Getenv("DB_PATH"); envDB != "" {
		dbPath = envDB
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		logger.Error("failed to create database directory",
			slog.String("dir", filepath.Dir(dbPath)),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379"
	}
	queueName := os.Getenv("QUEUE_NAME")
	if queueName == "" {
		queueName = queue.DefaultName
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Error("JWT_SECRET is required")
		os.Exit(1)
	}

	githubClientID := os.Getenv("GITHUB_CLIENT_ID")
	githubClientSecret := os.Getenv("GITHUB_CLIENT_SECRET")
	if githubClientID == "" || githubClientSecret == "" {
		logger.Error("GITHUB_CLIENT_ID and GITHUB_CLIENT_SECRET are required")
		os.Exit(1)
	}

	publicOrigin := os.Getenv("PUBLIC_ORIGIN")
	if publicOrigin == "" {
		publicOrigin = fmt.Sprintf("http://localhost:%d", port)
	}
	dashboardURL := os.Getenv("DASHBOARD_URL")
	if dashboardURL == "" {
		dashboardURL = publicOrigin
	}

	cfg := server.Config{
		Port:               port,
		DBPath:             dbPath,
		RedisURL:           redisURL,
		QueueName:          queueName,
		JWTSecret:          jwtSecret,
		GitHubClientID:     githubClientID,
		GitHubClientSecret: githubClientSecret,
		PublicOrigin:       publicOrigin,
		DashboardURL:       dashboardURL,
		Production:         os.Getenv("ENV") == "production",
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
