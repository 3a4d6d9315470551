// Package extensions decides which optional content extensions are active
package extensions

import (
	"context"
	"log/slog"
	"sort"

	"github.com/GarethCitcom/orphaned-acf-media/internal/domain/repositories"
)

// Registry layers configured overrides on top of a detector. An override
// always wins; anything else is detected on every call.
type Registry struct {
	detector  repositories.ExtensionRegistry
	overrides map[string]bool
	logger    *slog.Logger
}

// NewRegistry creates a registry. detector may be nil, in which case only
// overrides count.
func NewRegistry(detector repositories.ExtensionRegistry, overrides map[string]bool, logger *slog.Logger) *Registry {
	copied := make(map[string]bool, len(overrides))
	for k, v := range overrides {
		copied[k] = v
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Registry{detector: detector, overrides: copied, logger: logger}
}

func (r *Registry) IsActive(ctx context.Context, extension string) (bool, error) {
	if active, ok := r.overrides[extension]; ok {
		return active, nil
	}
	if r.detector == nil {
		return false, nil
	}
	active, err := r.detector.IsActive(ctx, extension)
	if err != nil {
		r.logger.Warn("Extension detection failed", "extension", extension, "error", err.Error())
		return false, err
	}
	return active, nil
}

// Overrides returns the configured override names, sorted
func (r *Registry) Overrides() []string {
	names := make([]string, 0, len(r.overrides))
	for name := range r.overrides {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
