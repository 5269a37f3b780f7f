package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/warroom/warroom-bot/internal/config"
	"github.com/warroom/warroom-bot/internal/monitoring"
	"github.com/warroom/warroom-bot/internal/notifications"
	"github.com/warroom/warroom-bot/internal/scheduler"
	"github.com/warroom/warroom-bot/internal/sources"
	"github.com/warroom/warroom-bot/internal/storage"
)

func main() {
	// Load environment variables from .env file if it exists
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, using environment variables")
	}

	// Initialize configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set up logging
	logrus.SetLevel(logrus.InfoLevel)
	if cfg.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}
	logrus.SetFormatter(&logrus.JSONFormatter{})

	logrus.Info("Starting War Room bot")

	ctx := context.Background()

	storageClient, err := newStorage(ctx, cfg)
	if err != nil {
		logrus.Fatalf("Failed to initialize storage: %v", err)
	}

	var notificationService notifications.NotificationInterface
	if cfg.HasNotifications() {
		notificationService = notifications.NewService(cfg)
	} else {
		logrus.Warn("No notification channel configured; reports are only archived")
	}

	feed := sources.NewSupabaseClient(cfg.SupabaseURL, cfg.SupabaseKey)
	monitoringService := monitoring.NewService(cfg, feed, storageClient, notificationService)

	// Warm the snapshots so the API answers from cache right away
	if err := monitoringService.Refresh(ctx); err != nil {
		logrus.Warnf("Initial refresh incomplete: %v", err)
	}

	schedulerService := scheduler.NewService(cfg, monitoringService)
	if err := schedulerService.Start(); err != nil {
		logrus.Fatalf("Failed to start scheduler: %v", err)
	}
	defer schedulerService.Stop()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      newRouter(monitoringService),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start HTTP server in a goroutine
	go func() {
		logrus.Infof("HTTP server starting on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("HTTP server failed: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server exited")
}

// newStorage returns nil when archiving is disabled
func newStorage(ctx context.Context, cfg *config.Config) (storage.StorageInterface, error) {
	store, err := storage.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if store == nil {
		logrus.Info("Report archiving disabled")
	}
	return store, nil
}
