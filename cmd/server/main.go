package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iudanet/gratilog/internal/server/handlers"
	"github.com/iudanet/gratilog/internal/server/middleware"
	"github.com/iudanet/gratilog/internal/server/realtime"
	"github.com/iudanet/gratilog/internal/server/storage/sqlite"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

const (
	accessTokenTTL  = 15 * time.Minute
	refreshTokenTTL = 30 * 24 * time.Hour
	shutdownTimeout = 10 * time.Second

	// Период фоновой чистки истекших refresh токенов
	tokenCleanupInterval = time.Hour
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	addr := flag.String("addr", ":8080", "Listen address")
	dbPath := flag.String("db", "gratilog.db", "Path to SQLite database")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	logger := newLogger(*logLevel)

	if err := run(logger, *addr, *dbPath); err != nil {
		logger.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger, addr, dbPath string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	secret := os.Getenv("GRATILOG_JWT_SECRET")
	if secret == "" {
		logger.Warn("GRATILOG_JWT_SECRET is not set, using insecure development secret")
		secret = "dev-secret-do-not-use-in-production"
	}

	jwtConfig := handlers.JWTConfig{
		Secret:          []byte(secret),
		AccessTokenTTL:  accessTokenTTL,
		RefreshTokenTTL: refreshTokenTTL,
	}

	store, err := sqlite.New(ctx, dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	hub := realtime.NewHub(logger)
	go hub.Run()
	defer hub.Stop()

	go cleanupExpiredTokens(ctx, logger, store)

	authHandler := handlers.NewAuthHandler(logger, store, store, jwtConfig)
	feedHandler := handlers.NewFeedHandler(logger, store, hub)
	spacesHandler := handlers.NewSpacesHandler(logger, store)
	wsHandler := handlers.NewWSHandler(logger, store, hub)
	healthHandler := handlers.NewHealthHandler(logger, Version, store.DB())

	authorized := middleware.AuthMiddleware(logger, jwtConfig)

	mux := http.NewServeMux()

	// Публичные endpoints
	mux.HandleFunc("GET /api/v1/health", healthHandler.Health)
	mux.HandleFunc("POST /api/v1/auth/register", authHandler.Register)
	mux.HandleFunc("GET /api/v1/auth/salt/{username}", authHandler.GetSalt)
	mux.HandleFunc("POST /api/v1/auth/login", authHandler.Login)
	mux.HandleFunc("POST /api/v1/auth/refresh", authHandler.Refresh)
	// Logout сам валидирует bearer token
	mux.HandleFunc("POST /api/v1/auth/logout", authHandler.Logout)

	// Endpoints, требующие access token
	mux.Handle("GET /api/v1/users/me", authorized(http.HandlerFunc(authHandler.Me)))
	mux.Handle("POST /api/v1/entries", authorized(http.HandlerFunc(feedHandler.CreateEntry)))
	mux.Handle("GET /api/v1/entries", authorized(http.HandlerFunc(feedHandler.ListEntries)))
	mux.Handle("DELETE /api/v1/entries/{id}", authorized(http.HandlerFunc(feedHandler.DeleteEntry)))
	mux.Handle("POST /api/v1/spaces", authorized(http.HandlerFunc(spacesHandler.CreateSpace)))
	mux.Handle("GET /api/v1/spaces", authorized(http.HandlerFunc(spacesHandler.ListSpaces)))
	mux.Handle("POST /api/v1/spaces/{id}/join", authorized(http.HandlerFunc(spacesHandler.JoinSpace)))
	mux.Handle("GET /api/v1/ws", authorized(http.HandlerFunc(wsHandler.Subscribe)))

	// Более строгие лимиты на endpoints с перебором паролей
	rateLimits := []middleware.PathRateLimit{
		{Path: "/api/v1/auth/login", Rate: 10, Window: time.Minute},
		{Path: "/api/v1/auth/register", Rate: 5, Window: time.Minute},
	}

	var handler http.Handler = mux
	handler = middleware.RateLimitByPathMiddleware(rateLimits, 100, time.Minute, logger)(handler)
	handler = middleware.LoggingWithSkip(logger, []string{"/api/v1/health"})(handler)
	handler = middleware.RecoveryMiddleware(logger)(handler)

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", addr, "version", Version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

// cleanupExpiredTokens периодически удаляет истекшие refresh токены
func cleanupExpiredTokens(ctx context.Context, logger *slog.Logger, store *sqlite.Storage) {
	ticker := time.NewTicker(tokenCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := store.DeleteExpiredTokens(ctx)
			if err != nil {
				logger.Error("failed to delete expired tokens", "error", err)
				continue
			}
			if deleted > 0 {
				logger.Info("expired refresh tokens deleted", "count", deleted)
			}
		}
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

func printVersion() {
	fmt.Printf("Gratilog Server\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
