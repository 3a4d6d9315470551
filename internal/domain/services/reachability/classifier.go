package reachability

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/GarethCitcom/orphaned-acf-media/internal/domain/entities/media"
	"github.com/GarethCitcom/orphaned-acf-media/internal/domain/repositories"
	"github.com/GarethCitcom/orphaned-acf-media/internal/infrastructure/caching/interfaces"
)

// Cache outcomes reported to Metrics
const (
	cacheHit   = "hit"
	cacheMiss  = "miss"
	cacheError = "error"
	cacheSkip  = "skip"
)

// Metrics receives per-checker observations
type Metrics interface {
	RecordChecker(checkerID string, d time.Duration)
	RecordCheckerCache(checkerID, result string)
}

type nopMetrics struct{}

func (nopMetrics) RecordChecker(string, time.Duration) {}
func (nopMetrics) RecordCheckerCache(string, string) {}

// CheckerError identifies the checker that failed for an item
type CheckerError struct {
	CheckerID string
	ItemID    int64
	Err       error
}

func (e *CheckerError) Error() string {
	return fmt.Sprintf("checker %s failed for item %d: %v", e.CheckerID, e.ItemID, e.Err)
}

func (e *CheckerError) Unwrap() error { return e.Err }

// Classifier combines checker results into a verdict. It is safe for
// concurrent use.
type Classifier struct {
	registry   *Registry
	extensions repositories.ExtensionRegistry
	cache      interfaces.Cache
	ttl        time.Duration
	metrics    Metrics
	logger     *slog.Logger
}

// NewClassifier wires a classifier. cache and metrics may be nil.
func NewClassifier(
	registry *Registry,
	extensions repositories.ExtensionRegistry,
	cache interfaces.Cache,
	ttl time.Duration,
	metrics Metrics,
	logger *slog.Logger,
) *Classifier {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Classifier{
		registry:   registry,
		extensions: extensions,
		cache:      cache,
		ttl:        ttl,
		metrics:    metrics,
		logger:     logger,
	}
}

// Registry returns the checker registry in use
func (c *Classifier) Registry() *Registry { return c.registry }

// Classify evaluates every checker in registration order, reading cached
// checker results where present.
func (c *Classifier) Classify(ctx context.Context, item *media.Item) (media.Verdict, error) {
	return c.classify(ctx, item, c.registry.All(), false)
}

// ClassifyFresh evaluates every checker without reading the cache. Deletion
// paths use it so a stale entry can never authorize a delete.
func (c *Classifier) ClassifyFresh(ctx context.Context, item *media.Item) (media.Verdict, error) {
	return c.classify(ctx, item, c.registry.All(), true)
}

// ClassifyPrimary evaluates only the primary-domain checkers
func (c *Classifier) ClassifyPrimary(ctx context.Context, item *media.Item) (bool, []string, error) {
	return c.primary(ctx, item, false)
}

// ClassifyPrimaryFresh is ClassifyPrimary without cache reads
func (c *Classifier) ClassifyPrimaryFresh(ctx context.Context, item *media.Item) (bool, []string, error) {
	return c.primary(ctx, item, true)
}

func (c *Classifier) primary(ctx context.Context, item *media.Item, fresh bool) (bool, []string, error) {
	verdict, err := c.classify(ctx, item, c.registry.InDomain(media.DomainPrimary), fresh)
	if err != nil {
		return false, nil, err
	}
	return verdict.UsedInPrimaryDomain(), verdict.Explanations(), nil
}

func (c *Classifier) classify(ctx context.Context, item *media.Item, checkers []Checker, fresh bool) (media.Verdict, error) {
	var (
		primary, elsewhere bool
		explanations       []string
	)
	for _, checker := range checkers {
		if err := ctx.Err(); err != nil {
			return media.Verdict{}, err
		}
		result, err := c.evaluate(ctx, checker, item, fresh)
		if err != nil {
			return media.Verdict{}, &CheckerError{CheckerID: checker.ID(), ItemID: item.ID, Err: err}
		}
		if !result.Used {
			continue
		}
		if checker.Domain() == media.DomainPrimary {
			primary = true
		} else {
			elsewhere = true
		}
		explanations = append(explanations, checker.Label())
	}
	return media.NewVerdict(primary, elsewhere, explanations), nil
}

func (c *Classifier) evaluate(ctx context.Context, checker Checker, item *media.Item, fresh bool) (media.CheckerResult, error) {
	active, err := c.gateOpen(ctx, checker)
	if err != nil {
		return media.Unused(), err
	}
	if !active {
		c.metrics.RecordCheckerCache(checker.ID(), cacheSkip)
		return media.Unused(), nil
	}

	key := cacheKey(checker.ID(), item.ID)
	if !fresh {
		if result, ok := c.load(ctx, checker.ID(), key); ok {
			return result, nil
		}
	}

	start := time.Now()
	result, err := checker.Check(ctx, item)
	c.metrics.RecordChecker(checker.ID(), time.Since(start))
	if err != nil {
		return media.Unused(), err
	}
	if result.Used {
		c.logger.Debug("Reference found",
			slog.String("checker", checker.ID()),
			slog.Int64("itemId", item.ID),
			slog.Any("details", result.Details),
		)
	}

	c.store(ctx, key, result)
	return result, nil
}

// gateOpen reports whether at least one gating extension is active
func (c *Classifier) gateOpen(ctx context.Context, checker Checker) (bool, error) {
	gates := checker.Gates()
	if len(gates) == 0 {
		return true, nil
	}
	if c.extensions == nil {
		return false, nil
	}
	for _, ext := range gates {
		active, err := c.extensions.IsActive(ctx, ext)
		if err != nil {
			return false, fmt.Errorf("failed to detect extension %s: %w", ext, err)
		}
		if active {
			return true, nil
		}
	}
	return false, nil
}

func (c *Classifier) load(ctx context.Context, checkerID, key string) (media.CheckerResult, bool) {
	if c.cache == nil {
		return media.CheckerResult{}, false
	}
	raw, ok, err := c.cache.Get(ctx, interfaces.GroupEngine, key)
	if err != nil {
		c.metrics.RecordCheckerCache(checkerID, cacheError)
		c.logger.Warn("Checker cache read failed", slog.String("key", key), slog.String("error", err.Error()))
		return media.CheckerResult{}, false
	}
	if !ok {
		c.metrics.RecordCheckerCache(checkerID, cacheMiss)
		return media.CheckerResult{}, false
	}
	var result media.CheckerResult
	if err := json.Unmarshal(raw, &result); err != nil {
		c.metrics.RecordCheckerCache(checkerID, cacheError)
		return media.CheckerResult{}, false
	}
	c.metrics.RecordCheckerCache(checkerID, cacheHit)
	return result, true
}

func (c *Classifier) store(ctx context.Context, key string, result media.CheckerResult) {
	if c.cache == nil {
		return
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, interfaces.GroupEngine, key, raw, c.ttl); err != nil {
		c.logger.Warn("Checker cache write failed", slog.String("key", key), slog.String("error", err.Error()))
	}
}

func cacheKey(checkerID string, itemID int64) string {
	return fmt.Sprintf("checker:%s:%d", checkerID, itemID)
}
