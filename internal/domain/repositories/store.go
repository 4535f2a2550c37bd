package repositories

import "context"

// DurableStore persists whole values under string keys.
//
// Implementations must make Save atomic: a reader (or a crash) never observes
// a partially written value.
type DurableStore interface {
	// Load returns the stored bytes for key. ok is false when nothing is stored.
	// Errors are reserved for I/O failures; absent keys are not errors.
	Load(ctx context.Context, key string) (data []byte, ok bool, err error)

	// Save atomically replaces the value stored under key.
	Save(ctx context.Context, key string, data []byte) error
}

// BlobStore holds the original source documents, addressed by sanitized filename.
type BlobStore interface {
	// Put atomically writes (or overwrites) a blob.
	Put(ctx context.Context, name string, data []byte) error

	// Get returns the blob bytes or a domain.ErrNotFound error.
	Get(ctx context.Context, name string) ([]byte, error)

	// Exists reports whether a blob is stored under name.
	Exists(ctx context.Context, name string) (bool, error)
}
