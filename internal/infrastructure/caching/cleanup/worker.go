// Package cleanup provides the background TTL sweep for the cache
package cleanup

import (
	"context"
	"time"

	"github.com/GarethCitcom/orphaned-acf-media/internal/infrastructure/caching/interfaces"
	"github.com/GarethCitcom/orphaned-acf-media/internal/infrastructure/observability/logging"
)

// Worker handles background cache cleanup operations
type Worker struct {
	cache  interfaces.Sweeper
	config *Config
	logger *logging.ChanneledLogger
	now    func() time.Time
}

// NewWorker creates a new cleanup worker with injected configuration
func NewWorker(cache interfaces.Sweeper, config *Config, logger *logging.ChanneledLogger) *Worker {
	return &Worker{
		cache:  cache,
		config: config,
		logger: logger,
		now:    time.Now,
	}
}

// Start runs the sweep on the configured interval until ctx is cancelled
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.config.CleanupInterval)
	defer ticker.Stop()

	w.logger.Cache().Info("Cache cleanup worker started",
		"interval", w.config.CleanupInterval, "verbose", w.config.VerboseReporting)

	for {
		select {
		case <-ctx.Done():
			w.logger.Cache().Info("Cache cleanup worker stopping")
			return
		case <-ticker.C:
			w.performCleanup()
		}
	}
}

// performCleanup purges expired entries once and returns how many were removed
func (w *Worker) performCleanup() int {
	start := time.Now()
	removed := w.cache.PurgeExpired(w.now())

	if removed > 0 {
		w.logger.Cache().Info("Cache cleanup finished", "removed", removed, "duration", time.Since(start))
	} else if w.config.VerboseReporting {
		w.logger.Cache().Debug("Cache cleanup completed - no expired entries", "duration", time.Since(start))
	}
	return removed
}
