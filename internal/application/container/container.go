// Package container provides dependency injection for all singleton services
package container

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/GarethCitcom/orphaned-acf-media/internal/application/services"
	"github.com/GarethCitcom/orphaned-acf-media/internal/application/services/engine"
	"github.com/GarethCitcom/orphaned-acf-media/internal/domain/repositories"
	"github.com/GarethCitcom/orphaned-acf-media/internal/domain/services/reachability"
	"github.com/GarethCitcom/orphaned-acf-media/internal/infrastructure/caching/manager"
	"github.com/GarethCitcom/orphaned-acf-media/internal/infrastructure/media"
	"github.com/GarethCitcom/orphaned-acf-media/internal/infrastructure/observability/logging"
	"github.com/GarethCitcom/orphaned-acf-media/internal/infrastructure/observability/metrics"
	"github.com/GarethCitcom/orphaned-acf-media/internal/infrastructure/observability/performance"
)

// Container holds all singleton services and infrastructure dependencies
type Container struct {
	// Engine Services
	ScanService     *engine.ScanService
	DeletionService *engine.DeletionService
	Classifier      *reachability.Classifier

	// Gateway Services
	AuthService      *services.AuthService
	ThumbnailService *services.ThumbnailService

	// Infrastructure Dependencies
	Repository   repositories.ContentRepository
	CacheManager *manager.Manager
	Logger       *logging.ChanneledLogger
	PerfTracker  *performance.Tracker
	Metrics      *metrics.EngineMetrics
	Gatherer     prometheus.Gatherer
}

// Options carries the settings the container needs beyond its collaborators
type Options struct {
	Engine           engine.Config
	Auth             services.AuthConfig
	DisabledCheckers []string
	MediaRoot        string
	ThumbnailSize    int
	SlowOperation    time.Duration

	// Registry receives engine metrics; nil uses a private registry
	Registry *prometheus.Registry
}

// NewContainer creates and wires all singleton services
func NewContainer(
	repo repositories.ContentRepository,
	extensions repositories.ExtensionRegistry,
	cacheManager *manager.Manager,
	logger *logging.ChanneledLogger,
	opts Options,
) *Container {
	engineConfig := opts.Engine.WithDefaults()
	registry := opts.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	engineMetrics := metrics.NewEngineMetricsWithRegistry(registry)

	perfTracker := performance.NewTracker(opts.SlowOperation, func(m *performance.Marker) {
		logger.Perf().Warn("Slow operation", "operation", m.Operation, "duration", m.Duration)
	})

	classifier := reachability.NewClassifier(
		reachability.NewDefaultRegistry(repo, opts.DisabledCheckers...),
		extensions,
		cacheManager,
		engineConfig.CacheTTL,
		engineMetrics,
		logger.Checker(),
	)
	scanService := engine.NewScanService(repo, classifier, cacheManager, engineConfig, engineMetrics, perfTracker, logger)

	return &Container{
		ScanService:     scanService,
		DeletionService: engine.NewDeletionService(repo, classifier, scanService, cacheManager, engineConfig, engineMetrics, perfTracker, logger),
		Classifier:      classifier,

		AuthService:      services.NewAuthService(opts.Auth, logger, perfTracker),
		ThumbnailService: services.NewThumbnailService(repo, media.NewThumbnailer(opts.MediaRoot, opts.ThumbnailSize), logger, perfTracker),

		Repository:   repo,
		CacheManager: cacheManager,
		Logger:       logger,
		PerfTracker:  perfTracker,
		Metrics:      engineMetrics,
		Gatherer:     registry,
	}
}
