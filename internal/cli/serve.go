package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/uGE89/gestion-compras-app-sub000/internal/api"
	"github.com/uGE89/gestion-compras-app-sub000/internal/application/reconcile"
	"github.com/uGE89/gestion-compras-app-sub000/internal/domain/matcher"
	"github.com/uGE89/gestion-compras-app-sub000/internal/infrastructure/config"
	"github.com/uGE89/gestion-compras-app-sub000/internal/infrastructure/logging"
	"github.com/uGE89/gestion-compras-app-sub000/internal/infrastructure/storage"
)

// RunServe runs the API server.
func RunServe(cfg *config.Config, flags *ServeFlags) error {
	// Set up logging
	loggingCfg := cfg.Observability.Logging
	if flags.Verbose {
		loggingCfg.Level = "debug"
	}
	logger := logging.NewLoggerWithSystem(loggingCfg, "api")

	// Initialize storage
	store, err := storage.NewStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	// Wire the reconciliation service
	service := reconcile.NewService(
		store,
		BuildCatalog(cfg.Reconcile),
		matcher.NewMatcher(BuildMatcherConfig(cfg.Reconcile)),
		logging.NewLoggerWithSystem(loggingCfg, "reconcile"),
	)

	// Create API config
	port := cfg.API.Port
	if flags.Port != 0 {
		port = flags.Port
	}
	apiCfg := api.Config{
		Port:           port,
		AllowedOrigins: cfg.API.AllowedOrigins,
	}

	// Create and start server
	server := api.NewServer(apiCfg, service, logger)

	// Handle graceful shutdown
	done := make(chan bool, 1)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		logger.Info("received shutdown signal")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error("server shutdown error", slog.Any("error", err))
		}
		close(done)
	}()

	// Start server (blocks until shutdown)
	if err := server.Start(); err != nil {
		return err
	}

	<-done
	logger.Info("server stopped")
	return nil
}
