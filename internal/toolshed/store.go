// Package toolshed accesses the Toolshed artifact store: listing and caching
// stored objects under a package prefix, classifying them by role, and
// expanding packaged reference binaries into addressable sub-paths.
package toolshed

import (
	"context"
	"time"
)

// ObjectInfo describes a stored object as reported by the provider listing.
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// ObjectStore is the storage provider boundary. List returns every object
// whose key starts with prefix, in provider order; an empty prefix lists
// the whole store. Get returns the full object bytes.
type ObjectStore interface {
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
	Get(ctx context.Context, key string) ([]byte, error)
}
