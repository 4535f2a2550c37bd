package catalog

import (
	"context"
	"errors"
	"image"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	models "quickref/internal/domain/models/catalog"
	"quickref/internal/repository/filestore"
	"quickref/internal/service/render"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memStore is an in-memory DurableStore with failure injection.
type memStore struct {
	mu       sync.Mutex
	data     map[string][]byte
	saves    int
	loads    int
	failSave error
	failLoad error
}

func newMemStore() *memStore {
	return &memStore{data: map[string][]byte{}}
}

func (m *memStore) Load(ctx context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads++
	if m.failLoad != nil {
		return nil, false, m.failLoad
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memStore) Save(ctx context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSave != nil {
		return m.failSave
	}
	m.saves++
	m.data[key] = append([]byte(nil), data...)
	return nil
}

func (m *memStore) set(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = []byte(value)
}

func (m *memStore) get(key string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return string(m.data[key])
}

func (m *memStore) setFailSave(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failSave = err
}

// countingPublisher records Publish calls.
type countingPublisher struct {
	n atomic.Int32
}

func (p *countingPublisher) Publish() { p.n.Add(1) }

func (p *countingPublisher) count() int { return int(p.n.Load()) }

// pageRasterizer produces a fixed number of portrait pages; sources starting
// with "BAD" fail to decode.
type pageRasterizer struct {
	pages int
	calls atomic.Int32
}

var errCorrupt = errors.New("corrupt document")

func (r *pageRasterizer) Decode(ctx context.Context, source []byte, dpi int) ([]image.Image, error) {
	r.calls.Add(1)
	if len(source) >= 3 && string(source[:3]) == "BAD" {
		return nil, errCorrupt
	}
	out := make([]image.Image, r.pages)
	for i := range out {
		out[i] = image.NewGray(image.Rect(0, 0, 40, 60))
	}
	return out, nil
}

var testRenderConfig = models.RenderConfig{DPI: 72, MaxWidth: 100, Quality: 60}

type harness struct {
	svc    *Service
	tree   *Tree
	state  *memStore
	blobs  *filestore.BlobStore
	cache  *render.Cache
	raster *pageRasterizer
	pub    *countingPublisher
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	logger := discardLogger()

	blobs, err := filestore.NewBlobStore(filepath.Join(dir, "pdfs"))
	require.NoError(t, err)

	raster := &pageRasterizer{pages: 2}
	cache, err := render.NewCache(filepath.Join(dir, "jpgs"), raster, logger)
	require.NoError(t, err)

	state := newMemStore()
	tree := NewTree(state, logger)
	pub := &countingPublisher{}

	return &harness{
		svc:    NewService(tree, blobs, cache, pub, testRenderConfig, logger),
		tree:   tree,
		state:  state,
		blobs:  blobs,
		cache:  cache,
		raster: raster,
		pub:    pub,
	}
}
