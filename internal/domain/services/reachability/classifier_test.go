package reachability

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GarethCitcom/orphaned-acf-media/internal/domain/entities/media"
	"github.com/GarethCitcom/orphaned-acf-media/internal/infrastructure/caching/interfaces"
	"github.com/GarethCitcom/orphaned-acf-media/internal/infrastructure/caching/manager"
	"github.com/GarethCitcom/orphaned-acf-media/internal/infrastructure/observability/logging"
	"github.com/GarethCitcom/orphaned-acf-media/internal/infrastructure/persistence/memory"
)

type recordingMetrics struct {
	mu     sync.Mutex
	cache  map[string]int
	checks map[string]int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{cache: make(map[string]int), checks: make(map[string]int)}
}

func (m *recordingMetrics) RecordChecker(id string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checks[id]++
}

func (m *recordingMetrics) RecordCheckerCache(_ string, result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache[result]++
}

func newTestClassifier(repo *memory.Repository, ext *fakeExtensions, metrics Metrics) (*Classifier, *manager.Manager) {
	cache := manager.NewManager(logging.NewNopLogger())
	return NewClassifier(NewDefaultRegistry(repo), ext, cache, 5*time.Minute, metrics, nil), cache
}

func TestRegistryOrder(t *testing.T) {
	repo, _ := newSite()
	r := NewDefaultRegistry(repo)
	assert.Equal(t, []string{
		CheckerACFFields, CheckerACFOptions, CheckerFeaturedImages, CheckerPostContent,
		CheckerWidgets, CheckerMenus, CheckerCustomizer, CheckerSiteSettings,
		CheckerPageBuilder, CheckerWooCommerce, CheckerAllPostMeta, CheckerUserMeta,
		CheckerAttachedMedia,
	}, r.IDs())
	assert.Len(t, r.InDomain(media.DomainPrimary), 2)

	trimmed := NewDefaultRegistry(repo, CheckerUserMeta, CheckerMenus)
	assert.NotContains(t, trimmed.IDs(), CheckerUserMeta)
	assert.NotContains(t, trimmed.IDs(), CheckerMenus)
	assert.Len(t, trimmed.IDs(), 11)

	_, err := NewRegistry(NewMenusChecker(repo), NewMenusChecker(repo))
	assert.Error(t, err)
}

func TestClassifyUnreferencedItemIsSafe(t *testing.T) {
	repo, item := newSite()
	c, _ := newTestClassifier(repo, newFakeExtensions(), nil)

	v, err := c.Classify(context.Background(), item)
	require.NoError(t, err)
	assert.True(t, v.SafeToDelete())
	assert.Empty(t, v.Explanations())
}

func TestClassifyCollectsEveryExplanationInOrder(t *testing.T) {
	repo, item := newSite()
	repo.AddPost(memory.Post{ID: 10, Type: "page", Status: "publish", Title: "Home"})
	repo.AddPost(memory.Post{ID: 11, Type: "post", Status: "publish", Title: "News"})
	repo.SetPostMeta(10, "hero_image", "42")
	repo.SetPostMeta(11, "_thumbnail_id", "42")
	repo.SetOption("widget_media_image", `{"3":{"attachment_id":42}}`)

	c, _ := newTestClassifier(repo, newFakeExtensions(), nil)
	v, err := c.Classify(context.Background(), item)
	require.NoError(t, err)

	assert.True(t, v.UsedInPrimaryDomain())
	assert.True(t, v.UsedElsewhere())
	assert.False(t, v.SafeToDelete())
	assert.Equal(t, []string{"ACF Fields", "Featured Images", "Widgets", "Page Builder/Custom Fields"}, v.Explanations())

	primary, explanations, err := c.ClassifyPrimary(context.Background(), item)
	require.NoError(t, err)
	assert.True(t, primary)
	assert.Equal(t, []string{"ACF Fields"}, explanations)
}

func TestGatedCheckerActivation(t *testing.T) {
	ctx := context.Background()
	repo, item := newSite()
	repo.AddPost(memory.Post{ID: 10, Type: "page", Status: "publish", Title: "Landing"})
	repo.SetPostMeta(10, "ct_builder_json", `{"children":[{"options":{"image":42}}]}`)

	ext := newFakeExtensions()
	metrics := newRecordingMetrics()
	c, cache := newTestClassifier(repo, ext, metrics)

	v, err := c.Classify(ctx, item)
	require.NoError(t, err)
	assert.True(t, v.SafeToDelete(), "inactive extension contributes nothing")
	assert.Zero(t, metrics.checks[CheckerPageBuilder])

	_, found, err := cache.Get(ctx, interfaces.GroupEngine, "checker:page_builder:42")
	require.NoError(t, err)
	assert.False(t, found, "inactive gate writes nothing")
	_, found, err = cache.Get(ctx, interfaces.GroupEngine, "checker:menus:42")
	require.NoError(t, err)
	assert.True(t, found, "definitive negatives are cached")

	ext.set(ExtensionOxygen, true)

	v, err = c.ClassifyFresh(ctx, item)
	require.NoError(t, err)
	assert.False(t, v.SafeToDelete())
	assert.Equal(t, []string{"Oxygen Builder"}, v.Explanations())

	// the cached path agrees without any invalidation
	v, err = c.Classify(ctx, item)
	require.NoError(t, err)
	assert.Equal(t, []string{"Oxygen Builder"}, v.Explanations())
}

func TestBreakdanceAlsoOpensPageBuilderGate(t *testing.T) {
	repo, item := newSite()
	repo.AddPost(memory.Post{ID: 10, Type: "page", Status: "publish"})
	repo.SetPostMeta(10, "_breakdance_data", `{"tree":{"image":{"id":42}}}`)

	c, _ := newTestClassifier(repo, newFakeExtensions(ExtensionBreakdance), nil)
	v, err := c.Classify(context.Background(), item)
	require.NoError(t, err)
	assert.Equal(t, []string{"Oxygen Builder"}, v.Explanations())
}

func TestClassifyUsesCacheAndFreshBypassesIt(t *testing.T) {
	ctx := context.Background()
	repo, item := newSite()
	metrics := newRecordingMetrics()
	c, _ := newTestClassifier(repo, newFakeExtensions(), metrics)

	first, err := c.Classify(ctx, item)
	require.NoError(t, err)
	require.True(t, first.SafeToDelete())

	repo.SetUserMeta(1, "avatar", "42")

	cached, err := c.Classify(ctx, item)
	require.NoError(t, err)
	assert.True(t, cached.SafeToDelete(), "cached results are reused until flushed")
	assert.Positive(t, metrics.cache[cacheHit])

	fresh, err := c.ClassifyFresh(ctx, item)
	require.NoError(t, err)
	assert.False(t, fresh.SafeToDelete())
	assert.Equal(t, []string{"User Profiles"}, fresh.Explanations())

	again, err := c.Classify(ctx, item)
	require.NoError(t, err)
	assert.Equal(t, fresh, again, "fresh results are written back")
}

func TestCheckerErrorsFailClassificationAndAreNotCached(t *testing.T) {
	ctx := context.Background()
	repo, item := newSite()
	c, cache := newTestClassifier(repo, newFakeExtensions(), nil)

	boom := errors.New("connection reset")
	repo.FailReferences(boom)

	_, err := c.ClassifyFresh(ctx, item)
	require.Error(t, err)
	var checkerErr *CheckerError
	require.ErrorAs(t, err, &checkerErr)
	assert.Equal(t, CheckerACFFields, checkerErr.CheckerID)
	assert.ErrorIs(t, err, boom)

	_, found, err := cache.Get(ctx, interfaces.GroupEngine, "checker:acf_fields:42")
	require.NoError(t, err)
	assert.False(t, found)

	repo.FailReferences(nil)
	v, err := c.Classify(ctx, item)
	require.NoError(t, err)
	assert.True(t, v.SafeToDelete())
}

func TestGateErrorFailsClassification(t *testing.T) {
	repo, item := newSite()
	ext := newFakeExtensions()
	ext.err = errors.New("options table unavailable")
	c, _ := newTestClassifier(repo, ext, nil)

	_, err := c.Classify(context.Background(), item)
	var checkerErr *CheckerError
	require.ErrorAs(t, err, &checkerErr)
	assert.Equal(t, CheckerPageBuilder, checkerErr.CheckerID)
}

func TestClassifyHonoursCancellation(t *testing.T) {
	repo, item := newSite()
	c, _ := newTestClassifier(repo, newFakeExtensions(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Classify(ctx, item)
	assert.ErrorIs(t, err, context.Canceled)
}
