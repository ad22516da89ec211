package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"crackledate/internal/config"
	"crackledate/internal/handlers"
	"crackledate/internal/history"
	"crackledate/internal/logging"
	"crackledate/internal/security"
	"crackledate/internal/service"
	"crackledate/internal/storage"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	slog.SetDefault(logger)

	ctx := context.Background()

	// Open the key-value store (sql, redis, badger or memory)
	kv, err := storage.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer kv.Close()

	logger.Info("store opened", "backend", cfg.StoreBackend, "prefix", cfg.StorePrefix)

	signer, err := security.NewShareSigner(cfg.ShareSecret)
	if err != nil {
		return err
	}
	if cfg.ShareSecret == "" {
		logger.Warn("SHARE_SECRET not set, share tokens will not survive a restart")
	}

	// Initialize services
	metrics := handlers.NewMetrics()
	store := history.NewStore(kv, cfg.StorePrefix, logger)

	opts := service.OptionsFromConfig(cfg)
	opts.Signer = signer
	opts.Observer = metrics
	opts.Logger = logger
	game := service.NewGameService(store, opts)
	game.Load(ctx)

	backup := service.NewBackupService(store, logger)

	// Initialize handlers
	limiter := security.NewRateLimiter(cfg.RateLimitPerMinute, cfg.RateLimitBurst)
	defer limiter.Stop()
	if err := limiter.TrustProxies(cfg.TrustedProxies); err != nil {
		return err
	}
	middleware := handlers.NewMiddleware(limiter, metrics, logger)
	gameHandler := handlers.NewGameHandler(game, backup, logger)

	// Setup routes
	mux := http.NewServeMux()
	handlers.RegisterRoutes(mux, gameHandler, middleware, metrics)

	// Wrap with logging middleware
	handler := middleware.Logging(mux)

	// Start server
	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", "http://localhost"+addr, "timezone", cfg.TimeZone)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	logger.Info("server shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown failed", "error", err)
	}

	// Pending debounced saves
	game.Close(shutdownCtx)
	return nil
}
