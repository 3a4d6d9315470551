package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/GarethCitcom/orphaned-acf-media/internal/domain/entities/media"
	perr "github.com/GarethCitcom/orphaned-acf-media/internal/domain/errors"
	"github.com/GarethCitcom/orphaned-acf-media/internal/domain/repositories"
	"github.com/GarethCitcom/orphaned-acf-media/internal/domain/services/reachability"
	"github.com/GarethCitcom/orphaned-acf-media/internal/infrastructure/caching/interfaces"
	"github.com/GarethCitcom/orphaned-acf-media/internal/infrastructure/observability/logging"
	"github.com/GarethCitcom/orphaned-acf-media/internal/infrastructure/observability/metrics"
	"github.com/GarethCitcom/orphaned-acf-media/internal/infrastructure/observability/performance"
	"github.com/GarethCitcom/orphaned-acf-media/internal/infrastructure/security"
	"github.com/GarethCitcom/orphaned-acf-media/pkg/pagination"
	"github.com/GarethCitcom/orphaned-acf-media/pkg/validation"
)

// ScanRequest carries the operator's scan parameters
type ScanRequest struct {
	Page         int    `form:"page" json:"page" validate:"gte=1"`
	PerPage      int    `form:"perPage" json:"perPage" validate:"gte=1"`
	FileType     string `form:"fileType" json:"fileType" validate:"omitempty,oneof=all images videos audio pdfs documents"`
	Safety       string `form:"safety" json:"safety" validate:"omitempty,oneof=all safe warning"`
	ForceRefresh bool   `form:"forceRefresh" json:"forceRefresh"`
}

// ScanService enumerates candidates and classifies them
type ScanService struct {
	repo       repositories.ContentRepository
	classifier *reachability.Classifier
	cache      interfaces.Cache
	cfg        Config
	metrics    *metrics.EngineMetrics
	perf       *performance.Tracker
	logger     *logging.ChanneledLogger
}

// NewScanService creates the scan coordinator. metrics may be nil.
func NewScanService(
	repo repositories.ContentRepository,
	classifier *reachability.Classifier,
	cache interfaces.Cache,
	cfg Config,
	engineMetrics *metrics.EngineMetrics,
	perf *performance.Tracker,
	logger *logging.ChanneledLogger,
) *ScanService {
	if perf == nil {
		perf = performance.NewTracker(0, nil)
	}
	return &ScanService{
		repo:       repo,
		classifier: classifier,
		cache:      cache,
		cfg:        cfg.WithDefaults(),
		metrics:    engineMetrics,
		perf:       perf,
		logger:     logger,
	}
}

func scanCacheKey(f media.Filter) string {
	return "scan:" + f.Fingerprint()
}

// Scan returns the classified, filtered candidate set. Without forceRefresh a
// cached result for the same filter is returned as is.
func (s *ScanService) Scan(ctx context.Context, filter media.Filter, forceRefresh bool) (*media.ScanResult, error) {
	result, _, err := s.scan(ctx, filter, forceRefresh)
	return result, err
}

func (s *ScanService) scan(ctx context.Context, filter media.Filter, forceRefresh bool) (*media.ScanResult, bool, error) {
	filter = filter.Normalize()
	if !filter.FileType.Valid() {
		return nil, false, perr.Validationf("fileType", "unknown file type filter %q", filter.FileType)
	}
	if !filter.Safety.Valid() {
		return nil, false, perr.Validationf("safety", "unknown safety filter %q", filter.Safety)
	}

	start := time.Now()
	key := scanCacheKey(filter)
	if !forceRefresh {
		if result, ok := s.cachedResult(ctx, key); ok {
			s.metrics.RecordScan(metrics.SourceCache, time.Since(start))
			s.logger.Scan().Debug("Scan served from cache", "scanId", result.ScanID, "filter", key)
			return result, true, nil
		}
	}

	marker := s.perf.StartOperation("scan")
	defer marker.Complete()

	result, err := s.compute(ctx, filter, forceRefresh)
	if err != nil {
		marker.SetError(err)
		if ctx.Err() == nil {
			s.logger.LogError(logging.ChannelScan, "scan", err, map[string]any{"filter": key})
		}
		return nil, false, err
	}
	marker.AddMetadata("items", result.TotalItems)

	if raw, err := json.Marshal(result); err == nil {
		if err := s.cache.Set(ctx, interfaces.GroupEngine, key, raw, s.cfg.CacheTTL); err != nil {
			s.logger.Cache().Warn("Failed to cache scan result", "key", key, "error", perr.Cache(err, "scan").Error())
		}
	}

	s.metrics.RecordScan(metrics.SourceComputed, time.Since(start))
	s.logger.Scan().Info("Scan completed",
		"scanId", result.ScanID,
		"fileType", filter.FileType,
		"safety", filter.Safety,
		"items", result.TotalItems,
		"safe", result.TotalSafeToDelete,
		"unresolved", result.Unresolved,
		"duration", time.Since(start))
	return result, false, nil
}

// SafeCandidates runs a forced scan for every safe item
func (s *ScanService) SafeCandidates(ctx context.Context) (*media.ScanResult, error) {
	return s.Scan(ctx, media.Filter{FileType: media.FileTypeAll, Safety: media.SafetySafe}, true)
}

// ScanPage validates req, scans, and returns the requested page
func (s *ScanService) ScanPage(ctx context.Context, req ScanRequest) (*media.ScanResultPage, error) {
	if req.Page == 0 {
		req.Page = 1
	}
	if req.PerPage == 0 {
		req.PerPage = s.cfg.DefaultPerPage
	}
	if err := validation.Struct(req); err != nil {
		return nil, validationError(err)
	}
	if req.PerPage > s.cfg.MaxPerPage {
		return nil, perr.Validationf("perPage", "perPage must be at most %d", s.cfg.MaxPerPage)
	}

	filter := media.Filter{FileType: media.FileTypeFilter(req.FileType), Safety: media.SafetyFilter(req.Safety)}
	result, fromCache, err := s.scan(ctx, filter, req.ForceRefresh)
	if err != nil {
		return nil, err
	}

	page, err := pagination.Paginate(result.Items, req.Page, req.PerPage)
	if err != nil {
		return nil, perr.Validationf("page", "%s", err.Error())
	}

	views := make([]media.ItemView, len(page.Items))
	for i, ci := range page.Items {
		views[i] = media.NewItemView(ci)
		if ci.Item.IsImage() {
			views[i].ThumbnailURL = fmt.Sprintf("/api/v1/media/%d/thumbnail", ci.Item.ID)
		}
	}

	return &media.ScanResultPage{
		ScanID: result.ScanID,
		Media:  views,
		Pagination: media.PageInfo{
			CurrentPage:       page.CurrentPage,
			TotalPages:        page.TotalPages,
			TotalItems:        page.TotalItems,
			PerPage:           page.PerPage,
			HasPrev:           page.HasPrev,
			HasNext:           page.HasNext,
			TotalSafeToDelete: result.TotalSafeToDelete,
		},
		Unresolved:  result.Unresolved,
		GeneratedAt: result.GeneratedAt,
		FromCache:   fromCache,
	}, nil
}

func (s *ScanService) cachedResult(ctx context.Context, key string) (*media.ScanResult, bool) {
	raw, ok, err := s.cache.Get(ctx, interfaces.GroupEngine, key)
	if err != nil {
		s.logger.Cache().Warn("Scan cache read failed", "key", key, "error", perr.Cache(err, "scan").Error())
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var result media.ScanResult
	if err := json.Unmarshal(raw, &result); err != nil {
		s.logger.Cache().Warn("Discarding undecodable scan result", "key", key, "error", err.Error())
		return nil, false
	}
	return &result, true
}

// enumerate pages through every candidate, newest first
func (s *ScanService) enumerate(ctx context.Context) ([]*media.Item, error) {
	var items []*media.Item
	for offset := 0; ; offset += s.cfg.ScanPageSize {
		page, err := s.repo.ListItems(ctx, offset, s.cfg.ScanPageSize)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, perr.Repository(err, "list items")
		}
		items = append(items, page...)
		if len(page) < s.cfg.ScanPageSize {
			return items, nil
		}
	}
}

type outcome struct {
	verdict    media.Verdict
	excluded   bool
	unresolved bool
}

func (s *ScanService) compute(ctx context.Context, filter media.Filter, fresh bool) (*media.ScanResult, error) {
	items, err := s.enumerate(ctx)
	if err != nil {
		return nil, err
	}

	primary := s.classifier.ClassifyPrimary
	classify := s.classifier.Classify
	if fresh {
		primary = s.classifier.ClassifyPrimaryFresh
		classify = s.classifier.ClassifyFresh
	}

	outcomes := make([]outcome, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.ScanWorkers)
	for i, item := range items {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			used, _, err := primary(gctx, item)
			if err == nil && used {
				outcomes[i].excluded = true
				return nil
			}
			var v media.Verdict
			if err == nil {
				v, err = classify(gctx, item)
			}
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				outcomes[i].unresolved = true
				s.logger.WithContext(ctx, logging.ChannelScan).Warn("Item could not be classified", "itemId", item.ID, "error", err.Error())
				return nil
			}
			outcomes[i].verdict = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		classified []media.ClassifiedItem
		unresolved []int64
	)
	for i, o := range outcomes {
		switch {
		case o.unresolved:
			unresolved = append(unresolved, items[i].ID)
		case o.excluded:
		default:
			if filter.Matches(items[i], o.verdict) {
				classified = append(classified, media.ClassifiedItem{Item: *items[i], Verdict: o.verdict})
			}
		}
	}
	s.metrics.RecordClassified(len(items)-len(unresolved), len(unresolved))

	return media.NewScanResult(security.GenerateULID(), filter, classified, unresolved, time.Now().UTC()), nil
}

// validationError maps a validator failure to the engine taxonomy
func validationError(err error) error {
	var fe *validation.FieldError
	if errors.As(err, &fe) {
		return perr.Validationf(fe.Field, "%s", fe.Message)
	}
	return perr.Wrap(err, perr.ErrorCodeValidation, "invalid request")
}
