package reachability

import (
	"context"
	"sync"
	"time"

	"github.com/GarethCitcom/orphaned-acf-media/internal/domain/entities/media"
	"github.com/GarethCitcom/orphaned-acf-media/internal/infrastructure/persistence/memory"
)

const siteURL = "https://example.test"

type fakeExtensions struct {
	mu     sync.Mutex
	active map[string]bool
	err    error
	calls  int
}

func newFakeExtensions(active ...string) *fakeExtensions {
	f := &fakeExtensions{active: make(map[string]bool)}
	for _, a := range active {
		f.active[a] = true
	}
	return f
}

func (f *fakeExtensions) IsActive(_ context.Context, ext string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return false, f.err
	}
	return f.active[ext], nil
}

func (f *fakeExtensions) set(ext string, active bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.active[ext] = active
}

// newSite returns a repository with one attachment, id 42, at 2024/05/photo.jpg
func newSite() (*memory.Repository, *media.Item) {
	repo := memory.NewRepository(siteURL)
	repo.AddAttachment(42, "2024/05/photo.jpg", "image/jpeg", time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
	item, _ := repo.FindItem(context.Background(), 42)
	return repo, item
}
