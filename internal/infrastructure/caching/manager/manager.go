// Package manager provides the in-memory cache with per-group isolation
package manager

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/GarethCitcom/orphaned-acf-media/internal/infrastructure/caching/interfaces"
	"github.com/GarethCitcom/orphaned-acf-media/internal/infrastructure/observability/logging"
)

// Interface assertions to ensure Manager implements the cache contracts.
var (
	_ interfaces.Cache   = (*Manager)(nil)
	_ interfaces.Sweeper = (*Manager)(nil)
)

type entry struct {
	value     []byte
	expiresAt time.Time
}

func (e entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

type groupCache struct {
	mu      sync.RWMutex
	entries map[string]entry
	hits    int64
	misses  int64
}

// Manager is a process-local cache. Each group has its own lock so a flush of
// one group never blocks readers of another.
type Manager struct {
	mu     sync.RWMutex
	groups map[string]*groupCache
	now    func() time.Time
	logger *logging.ChanneledLogger
}

// NewManager creates an empty cache manager
func NewManager(logger *logging.ChanneledLogger) *Manager {
	if logger != nil {
		logger.Cache().Info("Initializing cache manager", "groups", []string{interfaces.GroupEngine, interfaces.GroupBatch})
	}
	return &Manager{
		groups: make(map[string]*groupCache),
		now:    time.Now,
		logger: logger,
	}
}

// WithClock replaces the time source. Used by tests.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

func (m *Manager) group(name string, create bool) *groupCache {
	m.mu.RLock()
	g, ok := m.groups[name]
	m.mu.RUnlock()
	if ok || !create {
		return g
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if g, ok = m.groups[name]; ok {
		return g
	}
	g = &groupCache{entries: make(map[string]entry)}
	m.groups[name] = g
	return g
}

// Get returns a copy of the stored value. Expired entries are misses.
func (m *Manager) Get(ctx context.Context, group, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, fmt.Errorf("failed to read cache key %s/%s: %w", group, key, err)
	}
	start := time.Now()

	g := m.group(group, true)
	g.mu.RLock()
	e, ok := g.entries[key]
	g.mu.RUnlock()

	hit := ok && !e.expired(m.now())
	g.mu.Lock()
	if hit {
		g.hits++
	} else {
		g.misses++
	}
	g.mu.Unlock()

	if m.logger != nil {
		m.logger.LogCacheOperation("get", group, key, hit, time.Since(start))
	}
	if !hit {
		return nil, false, nil
	}
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, true, nil
}

// Set stores a copy of value. A non-positive ttl never expires.
func (m *Manager) Set(ctx context.Context, group, key string, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("failed to write cache key %s/%s: %w", group, key, err)
	}
	stored := make([]byte, len(value))
	copy(stored, value)

	e := entry{value: stored}
	if ttl > 0 {
		e.expiresAt = m.now().Add(ttl)
	}

	g := m.group(group, true)
	g.mu.Lock()
	g.entries[key] = e
	g.mu.Unlock()
	return nil
}

// FlushGroup drops every entry in the group
func (m *Manager) FlushGroup(ctx context.Context, group string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("failed to flush cache group %s: %w", group, err)
	}
	g := m.group(group, false)
	if g == nil {
		return nil
	}

	g.mu.Lock()
	n := len(g.entries)
	g.entries = make(map[string]entry)
	g.mu.Unlock()

	if m.logger != nil {
		m.logger.Cache().Info("Cache group flushed", "group", group, "entries", n)
	}
	return nil
}

// PurgeExpired removes expired entries from all groups and returns how many were removed
func (m *Manager) PurgeExpired(now time.Time) int {
	m.mu.RLock()
	groups := make([]*groupCache, 0, len(m.groups))
	for _, g := range m.groups {
		groups = append(groups, g)
	}
	m.mu.RUnlock()

	removed := 0
	for _, g := range groups {
		g.mu.Lock()
		for key, e := range g.entries {
			if e.expired(now) {
				delete(g.entries, key)
				removed++
			}
		}
		g.mu.Unlock()
	}
	return removed
}

// Stats returns per-group statistics sorted by group name
func (m *Manager) Stats() []interfaces.Stats {
	m.mu.RLock()
	names := make([]string, 0, len(m.groups))
	for name := range m.groups {
		names = append(names, name)
	}
	m.mu.RUnlock()
	sort.Strings(names)

	out := make([]interfaces.Stats, 0, len(names))
	for _, name := range names {
		g := m.group(name, false)
		g.mu.RLock()
		out = append(out, interfaces.Stats{
			Group:   name,
			Entries: len(g.entries),
			Hits:    g.hits,
			Misses:  g.misses,
		})
		g.mu.RUnlock()
	}
	return out
}
