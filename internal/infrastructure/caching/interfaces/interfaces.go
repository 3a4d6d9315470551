// Package interfaces defines the cache contract the reachability engine
// depends on.
package interfaces

import (
	"context"
	"time"
)

// Cache groups used by the engine
const (
	// GroupEngine holds checker results and scan results. Every mutation flushes it.
	GroupEngine = "orphaned_media"
	// GroupBatch holds the candidate snapshot driving batch-all-safe runs
	GroupBatch = "orphaned_media_batch"
)

// Cache is a grouped key/value store with per-entry TTL. Values are opaque
// bytes so any implementation, in-process or distributed, can back it.
// Errors returned by implementations are non-fatal: callers treat them as misses.
type Cache interface {
	Get(ctx context.Context, group, key string) ([]byte, bool, error)
	Set(ctx context.Context, group, key string, value []byte, ttl time.Duration) error
	FlushGroup(ctx context.Context, group string) error
}

// Sweeper is implemented by caches that need periodic removal of expired entries
type Sweeper interface {
	PurgeExpired(now time.Time) int
}

// Stats is a point-in-time view of one cache group
type Stats struct {
	Group   string `json:"group"`
	Entries int    `json:"entries"`
	Hits    int64  `json:"hits"`
	Misses  int64  `json:"misses"`
}
