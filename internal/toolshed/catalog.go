package toolshed

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultCacheTTL bounds how long a cached listing is served.
const DefaultCacheTTL = time.Hour

// Blob describes one stored object under a resolving prefix. RelativePath is
// always FullPath with the prefix and separator stripped from the front.
type Blob struct {
	FullPath     string `json:"full_path"`
	RelativePath string `json:"relative_path"`
}

type cacheEntry struct {
	blobs   []Blob
	expires time.Time
}

// Catalog lists and caches the set of stored objects under a prefix and
// fetches object bytes on demand.
//
// The cache is keyed by prefix and TTL-bounded. Concurrent callers that both
// miss may both relist; listings are idempotent, so the last writer winning
// is acceptable and no per-key guard is held across the provider call.
type Catalog struct {
	store ObjectStore
	ttl   time.Duration

	mu      sync.RWMutex
	entries map[string]cacheEntry

	now func() time.Time
}

// NewCatalog creates a Catalog over store. A ttl of zero means DefaultCacheTTL.
func NewCatalog(store ObjectStore, ttl time.Duration) *Catalog {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Catalog{
		store:   store,
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

// List returns the objects under prefix in provider order. A provider
// failure degrades to an empty listing: the caller sees "no artifacts
// found", and the failure is logged with context.
func (c *Catalog) List(ctx context.Context, prefix string) []Blob {
	c.mu.RLock()
	entry, ok := c.entries[prefix]
	c.mu.RUnlock()
	if ok && c.now().Before(entry.expires) {
		return entry.blobs
	}

	objects, err := c.store.List(ctx, prefix)
	if err != nil {
		logrus.WithError(err).WithField("prefix", prefix).Error("failed to list toolshed objects")
		return nil
	}

	blobs := make([]Blob, 0, len(objects))
	for _, obj := range objects {
		blobs = append(blobs, Blob{
			FullPath:     obj.Key,
			RelativePath: strings.TrimPrefix(strings.TrimPrefix(obj.Key, prefix), "/"),
		})
	}

	c.mu.Lock()
	c.entries[prefix] = cacheEntry{blobs: blobs, expires: c.now().Add(c.ttl)}
	c.mu.Unlock()

	return blobs
}

// Contents fetches and fully reads an object's bytes. On any failure it
// logs and returns nil; callers must treat nil as "unavailable", not as an
// empty file.
func (c *Catalog) Contents(ctx context.Context, fullPath string) []byte {
	data, err := c.store.Get(ctx, fullPath)
	if err != nil {
		logrus.WithError(err).WithField("path", fullPath).Error("failed to get toolshed object contents")
		return nil
	}
	return data
}
