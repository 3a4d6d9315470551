package engine

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/GarethCitcom/orphaned-acf-media/internal/domain/services/reachability"
	"github.com/GarethCitcom/orphaned-acf-media/internal/infrastructure/caching/interfaces"
	"github.com/GarethCitcom/orphaned-acf-media/internal/infrastructure/caching/manager"
	"github.com/GarethCitcom/orphaned-acf-media/internal/infrastructure/observability/logging"
	"github.com/GarethCitcom/orphaned-acf-media/internal/infrastructure/observability/metrics"
	"github.com/GarethCitcom/orphaned-acf-media/internal/infrastructure/persistence/memory"
)

type testEngine struct {
	repo       *memory.Repository
	cache      *manager.Manager
	extensions *switchableExtensions
	scans      *ScanService
	deletions  *DeletionService
}

func newTestEngine(t *testing.T, repo *memory.Repository) *testEngine {
	return newTestEngineWithCache(t, repo, nil)
}

// newTestEngineWithCache lets wrap decorate the manager the services see
func newTestEngineWithCache(t *testing.T, repo *memory.Repository, wrap func(*manager.Manager) interfaces.Cache) *testEngine {
	t.Helper()
	logger := logging.NewNopLogger()
	store := manager.NewManager(logger)
	var cache interfaces.Cache = store
	if wrap != nil {
		cache = wrap(store)
	}
	exts := newSwitchableExtensions()
	engineMetrics := metrics.NewEngineMetricsWithRegistry(prometheus.NewRegistry())
	classifier := reachability.NewClassifier(reachability.NewDefaultRegistry(repo), exts, cache, time.Minute, engineMetrics, nil)

	cfg := Config{ScanPageSize: 4, ScanWorkers: 3, BatchMaxSize: 20}
	scans := NewScanService(repo, classifier, cache, cfg, engineMetrics, nil, logger)
	return &testEngine{
		repo:       repo,
		cache:      store,
		extensions: exts,
		scans:      scans,
		deletions:  NewDeletionService(repo, classifier, scans, cache, cfg, engineMetrics, nil, logger),
	}
}

// switchableExtensions is an extension registry tests can flip at runtime
type switchableExtensions struct {
	mu     sync.RWMutex
	active map[string]bool
}

func newSwitchableExtensions() *switchableExtensions {
	return &switchableExtensions{active: make(map[string]bool)}
}

func (s *switchableExtensions) IsActive(_ context.Context, extension string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active[extension], nil
}

func (s *switchableExtensions) set(extension string, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active[extension] = active
}

// failingFlush passes everything through except flushes of one group
type failingFlush struct {
	*manager.Manager
	group string
	err   error
}

func (f *failingFlush) FlushGroup(ctx context.Context, group string) error {
	if group == f.group {
		return f.err
	}
	return f.Manager.FlushGroup(ctx, group)
}

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// newMixedSite builds ten attachments, newest id first in listing order:
// 1-6 images and 7-10 PDFs. Items 1, 2, 7, 8 and 9 are featured images of
// published posts, leaving four safe images and one safe PDF.
func newMixedSite() *memory.Repository {
	repo := memory.NewRepository("https://example.test")
	for id := int64(1); id <= 10; id++ {
		created := epoch.Add(time.Duration(id) * time.Hour)
		if id <= 6 {
			repo.AddAttachment(id, fmt.Sprintf("2024/01/image-%d.jpg", id), "image/jpeg", created)
		} else {
			repo.AddAttachment(id, fmt.Sprintf("2024/01/report-%d.pdf", id), "application/pdf", created)
		}
	}
	for i, id := range []int64{1, 2, 7, 8, 9} {
		feature(repo, int64(100+i), id)
	}
	return repo
}

// feature publishes a post whose featured image is itemID
func feature(repo *memory.Repository, postID, itemID int64) {
	repo.AddPost(memory.Post{ID: postID, Type: "post", Status: "publish", Title: fmt.Sprintf("Post %d", postID)})
	repo.SetPostMeta(postID, "_thumbnail_id", fmt.Sprint(itemID))
}

// newOrphanSite builds n unreferenced images
func newOrphanSite(n int) *memory.Repository {
	repo := memory.NewRepository("https://example.test")
	for id := int64(1); id <= int64(n); id++ {
		repo.AddAttachment(id, fmt.Sprintf("2024/02/orphan-%02d.png", id), "image/png", epoch.Add(time.Duration(id)*time.Minute))
	}
	return repo
}
