// Package blobstore abstracts the object store holding incoming reports,
// archived duplicates, and generated CSV artifacts.
package blobstore

import (
	"context"
	"time"
)

// MetadataOriginalKey is the metadata key recording where an archived
// duplicate originally lived.
const MetadataOriginalKey = "original-key"

// ObjectInfo describes one stored object as returned by List.
type ObjectInfo struct {
	Key          string
	SizeBytes    int64
	LastModified time.Time
}

// Store is the blob-store contract the pipeline consumes. Production runs
// against GCS; tests run against the in-memory implementation.
type Store interface {
	// List returns info for every object whose key starts with prefix.
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)

	// Get returns the full content of the object at key.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put writes content at key with optional metadata.
	Put(ctx context.Context, key string, content []byte, metadata map[string]string) error

	// Copy duplicates the object at srcKey to dstKey, attaching metadata to
	// the copy.
	Copy(ctx context.Context, srcKey, dstKey string, metadata map[string]string) error

	// Delete removes the object at key.
	Delete(ctx context.Context, key string) error

	// Exists reports whether an object is present at key.
	Exists(ctx context.Context, key string) (bool, error)
}
