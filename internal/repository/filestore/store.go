// Package filestore keeps durable state as JSON files and source documents as
// plain files on the local disk. Every write goes through a temp file in the
// same directory followed by a rename, so readers never see a torn file.
package filestore

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"quickref/internal/domain"
	"quickref/internal/domain/repositories"
)

const stateExt = ".json"

// Store implements repositories.DurableStore with one JSON file per key.
//
// The store remembers the digest of the content it last read or wrote for
// each key, so the watcher can tell this process's own saves apart from
// edits made by someone else.
type Store struct {
	dir    string
	logger *slog.Logger

	mu    sync.Mutex
	known map[string][sha256.Size]byte
}

// New creates the state directory if needed.
func New(dir string, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &Store{dir: dir, logger: logger, known: make(map[string][sha256.Size]byte)}, nil
}

var _ repositories.DurableStore = (*Store)(nil)

// Dir returns the directory holding the state files.
func (s *Store) Dir() string { return s.dir }

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, key+stateExt)
}

// Load reads the file for key. A missing file is reported as ok=false.
func (s *Store) Load(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", key, err)
	}
	s.remember(key, data)
	return data, true, nil
}

// Save replaces the file for key atomically.
func (s *Store) Save(ctx context.Context, key string, data []byte) error {
	// Remembered before the rename so the resulting event is never mistaken
	// for a foreign edit.
	prev, had := s.remember(key, data)
	if err := writeAtomic(s.path(key), data); err != nil {
		s.restore(key, prev, had)
		return fmt.Errorf("save %s: %w", key, err)
	}
	s.logger.Debug("state saved", "key", key, "bytes", len(data))
	return nil
}

func (s *Store) remember(key string, data []byte) ([sha256.Size]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, had := s.known[key]
	s.known[key] = sha256.Sum256(data)
	return prev, had
}

func (s *Store) restore(key string, prev [sha256.Size]byte, had bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if had {
		s.known[key] = prev
	} else {
		delete(s.known, key)
	}
}

// changedExternally reports whether the file for key differs from what this
// store last read or wrote, and adopts the current content as known.
func (s *Store) changedExternally(key string) bool {
	data, err := os.ReadFile(s.path(key))
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, had := s.known[key]
	if errors.Is(err, fs.ErrNotExist) {
		delete(s.known, key)
		return had
	}
	if err != nil {
		return true
	}
	sum := sha256.Sum256(data)
	s.known[key] = sum
	return !had || sum != prev
}

// keyForFile maps a file name in the state directory back to its key.
// Temp files and unrelated files map to "".
func keyForFile(name string) string {
	base := filepath.Base(name)
	if strings.HasPrefix(base, ".") || !strings.HasSuffix(base, stateExt) {
		return ""
	}
	return strings.TrimSuffix(base, stateExt)
}

// writeAtomic writes data to a temp file next to path, syncs it and renames
// it into place.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	committed = true
	return nil
}

// BlobStore implements repositories.BlobStore over a flat directory.
type BlobStore struct {
	dir string
}

// NewBlobStore creates the blob directory if needed.
func NewBlobStore(dir string) (*BlobStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create blob directory: %w", err)
	}
	return &BlobStore{dir: dir}, nil
}

var _ repositories.BlobStore = (*BlobStore)(nil)

// Dir returns the directory holding the blobs.
func (b *BlobStore) Dir() string { return b.dir }

func (b *BlobStore) path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("%w: bad blob name %q", domain.ErrValidation, name)
	}
	return filepath.Join(b.dir, name), nil
}

func (b *BlobStore) Put(ctx context.Context, name string, data []byte) error {
	path, err := b.path(name)
	if err != nil {
		return err
	}
	if err := writeAtomic(path, data); err != nil {
		return fmt.Errorf("store %s: %w", name, err)
	}
	return nil
}

func (b *BlobStore) Get(ctx context.Context, name string) ([]byte, error) {
	path, err := b.path(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &domain.NotFoundError{Resource: "source", Name: name}
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}

func (b *BlobStore) Exists(ctx context.Context, name string) (bool, error) {
	path, err := b.path(name)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", name, err)
	}
	return info.Mode().IsRegular(), nil
}
