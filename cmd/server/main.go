// Command server runs the URL shortener HTTP service.
//
// Startup order: configuration, logger, store (pool + migrations),
// service, router, http.Server. Shutdown drains in-flight requests before
// the store is closed.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"shortlink/internal/config"
	httpHandler "shortlink/internal/handler/http"
	"shortlink/internal/service"
	"shortlink/internal/storage"
	"shortlink/pkg/logger"

	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "shortlink: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// ========================================================================
	// STEP 1: CONFIGURATION AND LOGGER
	// ========================================================================
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.New(cfg.App.LogLevel, cfg.App.Environment)
	if err != nil {
		return err
	}
	defer appLogger.Sync()

	appLogger.Info("Starting URL shortener",
		zap.String("environment", cfg.App.Environment),
		zap.String("address", cfg.Server.Address),
		zap.String("base_url", cfg.Server.BaseURL),
	)

	// ========================================================================
	// STEP 2: STORE
	// ========================================================================
	// One pool per process, created here and injected below.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Error("Failed to open store", zap.Error(err))
		return err
	}
	defer store.Close()

	// ========================================================================
	// STEP 3: DEPENDENCY INJECTION
	// ========================================================================
	// Store -> Service -> Handler -> Router
	urlService := service.NewURLService(store, cfg.Server.BaseURL, appLogger, service.Options{
		MaxAttempts:  cfg.App.ShortenMaxAttempts,
		StoreTimeout: cfg.Database.StoreTimeout,
	})
	handler := httpHandler.NewHandler(urlService, appLogger)
	router := httpHandler.NewRouter(handler, appLogger, httpHandler.RouterOptions{
		MetricsEnabled: cfg.App.MetricsEnabled,
	})

	// ========================================================================
	// STEP 4: HTTP SERVER
	// ========================================================================
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		appLogger.Info("Server listening",
			zap.String("address", server.Addr),
			zap.String("store", string(store.Kind)),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	// ========================================================================
	// STEP 5: GRACEFUL SHUTDOWN
	// ========================================================================
	select {
	case err := <-serverErr:
		if err != nil {
			appLogger.Error("Server failed", zap.Error(err))
			return err
		}
	case <-ctx.Done():
	}

	appLogger.Info("Shutting down server", zap.Duration("timeout", cfg.Server.ShutdownTimeout))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Server forced to shutdown", zap.Error(err))
		return err
	}

	appLogger.Info("Server exited gracefully")
	return nil
}
