// Package startup prepares the application server
package startup

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/GarethCitcom/orphaned-acf-media/internal/application/container"
	"github.com/GarethCitcom/orphaned-acf-media/internal/application/services"
	"github.com/GarethCitcom/orphaned-acf-media/internal/application/services/engine"
	"github.com/GarethCitcom/orphaned-acf-media/internal/infrastructure/caching/cleanup"
	"github.com/GarethCitcom/orphaned-acf-media/internal/infrastructure/caching/manager"
	"github.com/GarethCitcom/orphaned-acf-media/internal/infrastructure/extensions"
	"github.com/GarethCitcom/orphaned-acf-media/internal/infrastructure/observability/logging"
	"github.com/GarethCitcom/orphaned-acf-media/internal/infrastructure/persistence/content"
	"github.com/GarethCitcom/orphaned-acf-media/internal/infrastructure/persistence/database"
	"github.com/GarethCitcom/orphaned-acf-media/internal/infrastructure/security"
	"github.com/GarethCitcom/orphaned-acf-media/internal/presentation/http/server"
	"github.com/GarethCitcom/orphaned-acf-media/pkg/config"
)

// Initialize performs the complete startup sequence and blocks until a
// shutdown signal arrives
func Initialize() error {
	start := time.Now().UTC()

	ctx, cancelBackgroundTasks := context.WithCancel(context.Background())
	defer cancelBackgroundTasks()

	// Step 1: Initialize logging
	logger, err := setupLogging()
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer logger.Close()
	logger.Startup().Info("Orphaned media service starting")

	// Step 2: Load configuration overlay
	phase := time.Now()
	fileConfig, err := config.LoadFile(config.ConfigFile)
	if err != nil {
		logger.LogStartupPhase("config", time.Since(phase), false)
		return err
	}
	fileConfig.Apply()
	logger.Startup().Info("Configuration loaded",
		"file", config.ConfigFile,
		"extensionOverrides", len(fileConfig.Extensions),
		"disabledCheckers", fileConfig.DisabledCheckers)
	logger.LogStartupPhase("config", time.Since(phase), true)

	// Step 3: Connect to the content database and ensure its schema
	phase = time.Now()
	db, err := database.NewConnection(ctx, database.ConfigFromEnv(), logger)
	if err != nil {
		logger.LogStartupPhase("database", time.Since(phase), false)
		return err
	}
	defer db.Close()
	if err := db.CreateSchema(ctx); err != nil {
		logger.LogStartupPhase("database", time.Since(phase), false)
		return err
	}
	logger.LogStartupPhase("database", time.Since(phase), true)

	// Step 4: Initialize cache system
	cacheManager := manager.NewManager(logger)
	logger.Startup().Info("Cache manager initialized", "ttl", config.EngineCacheTTL)

	// Step 5: Start background cleanup worker
	cleanupWorker := cleanup.NewWorker(cacheManager, cleanup.NewConfig(), logger)
	go cleanupWorker.Start(ctx)

	// Step 6: Create dependency injection container
	phase = time.Now()
	repo := content.NewMediaRepository(db, config.MediaRoot)
	extensionRegistry := extensions.NewRegistry(content.NewPluginDetector(repo), fileConfig.Extensions, logger.Checker())

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	authConfig := services.AuthConfigFromEnv()
	if authConfig.JWTSecret == "" && (authConfig.AdminPassword != "" || authConfig.EditorPassword != "") {
		key, err := security.GenerateSecureKey(64)
		if err != nil {
			logger.LogStartupPhase("container", time.Since(phase), false)
			return err
		}
		authConfig.JWTSecret = key
		logger.Startup().Warn("JWT_SECRET is not set; using an ephemeral secret, sessions end on restart")
	}

	appContainer := container.NewContainer(repo, extensionRegistry, cacheManager, logger, container.Options{
		Engine:           engine.ConfigFromEnv(),
		Auth:             authConfig,
		DisabledCheckers: fileConfig.DisabledCheckers,
		MediaRoot:        config.MediaRoot,
		ThumbnailSize:    config.ThumbnailSize,
		SlowOperation:    config.SlowQueryThreshold,
		Registry:         registry,
	})
	if !appContainer.AuthService.Enabled() {
		logger.Startup().Warn("No credentials configured; every authenticated route will refuse requests")
	}
	logger.Startup().Info("Container initialized",
		"checkers", appContainer.Classifier.Registry().IDs(),
		"extensionOverrides", extensionRegistry.Overrides())
	logger.LogStartupPhase("container", time.Since(phase), true)

	// Step 7: Start HTTP server
	httpServer := server.New(config.Port, appContainer)

	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		logger.System().Info("Starting HTTP server", "address", ":"+config.Port)
		serverErr <- httpServer.Start()
	}()

	logger.Startup().Info("Application startup complete", "totalDuration", time.Since(start), "port", config.Port)

	select {
	case <-gracefulShutdown:
		logger.Shutdown().Info("Shutdown signal received, starting graceful shutdown...")
	case err := <-serverErr:
		if err != nil {
			logger.System().Error("HTTP server failed", "error", err.Error())
			return err
		}
	}

	shutdownStart := time.Now()
	cancelBackgroundTasks()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger.Shutdown().Info("Stopping HTTP server...")
	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Shutdown().Error("Error during server shutdown", "error", err.Error())
	} else {
		logger.Shutdown().Info("HTTP server stopped successfully")
	}

	logger.Shutdown().Info("Application shutdown complete",
		"totalUptime", time.Since(start),
		"shutdownDuration", time.Since(shutdownStart))
	return nil
}

// setupLogging configures gin and the channeled logger from pkg/config
func setupLogging() (*logging.ChanneledLogger, error) {
	if config.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg := logging.DefaultLoggerConfig()
	cfg.DefaultLevel = logging.ParseLevel(config.LogLevel)
	cfg.JSONFormat = config.LogJSON
	if config.LogDir != "" {
		cfg.OutputToFile = true
		cfg.LogDirectory = config.LogDir
	}
	return logging.NewChanneledLogger(cfg)
}
