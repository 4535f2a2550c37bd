// Package render converts source documents into ordered page images and
// keeps them in a flat artifact directory. The directory itself is the cache
// index: a document is rendered when files named {stem}_page{N}.jpg exist.
package render

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"quickref/internal/domain"
	models "quickref/internal/domain/models/catalog"
	catalogSvc "quickref/internal/domain/services/catalog"
)

// Cache implements the catalog RenderCache over a directory.
//
// Rendering is never repeated for a document that already has artifacts, and
// there is no staleness check against the source. Concurrent misses for the
// same document share a single rasterization. Listings never observe a
// partially committed page set: commits and evictions hold mu exclusively.
type Cache struct {
	dir        string
	rasterizer Rasterizer
	flight     singleflight.Group
	mu         sync.RWMutex
	logger     *slog.Logger
}

var _ catalogSvc.RenderCache = (*Cache)(nil)

// NewCache creates the artifact directory if needed.
func NewCache(dir string, rasterizer Rasterizer, logger *slog.Logger) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact directory: %w", err)
	}
	return &Cache{
		dir:        dir,
		rasterizer: rasterizer,
		logger:     logger,
	}, nil
}

// Dir returns the artifact directory.
func (c *Cache) Dir() string { return c.dir }

// ArtifactsFor lists the existing page images of a document in page order.
// An unrendered document yields an empty slice.
func (c *Cache) ArtifactsFor(documentID string) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.listLocked(documentID)
}

func (c *Cache) listLocked(documentID string) ([]string, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}

	names := []string{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if ownsArtifact(documentID, entry.Name()) {
			names = append(names, entry.Name())
		}
	}
	sortByPage(names)
	return names, nil
}

// EnsureRendered returns the document's artifacts, rasterizing the source
// first when none exist. Either every page is written or none is.
func (c *Cache) EnsureRendered(ctx context.Context, documentID string, source []byte, cfg models.RenderConfig) ([]string, error) {
	names, err := c.ArtifactsFor(documentID)
	if err != nil {
		return nil, err
	}
	if len(names) > 0 {
		lookupTotal.WithLabelValues("hit").Inc()
		return names, nil
	}

	// Keyed by stem: that is the namespace the artifact names share.
	v, err, shared := c.flight.Do(Stem(documentID), func() (interface{}, error) {
		names, err := c.ArtifactsFor(documentID)
		if err != nil {
			return nil, err
		}
		if len(names) > 0 {
			return names, nil
		}
		return c.render(ctx, documentID, source, cfg)
	})
	if err != nil {
		lookupTotal.WithLabelValues("failed").Inc()
		return nil, err
	}
	if shared {
		c.logger.Debug("joined in-flight render", "document", documentID)
	}
	return append([]string(nil), v.([]string)...), nil
}

func (c *Cache) render(ctx context.Context, documentID string, source []byte, cfg models.RenderConfig) ([]string, error) {
	start := time.Now()

	pages, err := c.rasterizer.Decode(ctx, source, cfg.DPI)
	if err == nil && len(pages) == 0 {
		err = ErrNoPages
	}
	if err != nil {
		c.logger.Warn("rasterization failed", "document", documentID, "error", err)
		return nil, &domain.RenderFailedError{Document: documentID, Err: err}
	}

	staged := make([]string, 0, len(pages))
	discard := func(paths []string) {
		for _, p := range paths {
			os.Remove(p)
		}
	}

	for i, page := range pages {
		tmp, err := c.stagePage(page, cfg)
		if err != nil {
			discard(staged)
			return nil, &domain.RenderFailedError{
				Document: documentID,
				Err:      fmt.Errorf("page %d: %w", i+1, err),
			}
		}
		staged = append(staged, tmp)
	}

	names, err := c.commit(documentID, staged)
	if err != nil {
		return nil, err
	}

	lookupTotal.WithLabelValues("rendered").Inc()
	pagesWritten.Add(float64(len(names)))
	renderDuration.Observe(time.Since(start).Seconds())

	c.logger.Info("document rendered",
		"document", documentID,
		"pages", len(names),
		"dpi", cfg.DPI,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return names, nil
}

// commit renames staged pages into place while readers are held off, so a
// listing sees either none or all of them.
func (c *Cache) commit(documentID string, staged []string) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	names := make([]string, len(staged))
	for i, tmp := range staged {
		names[i] = ArtifactName(documentID, i+1)
		if err := os.Rename(tmp, filepath.Join(c.dir, names[i])); err != nil {
			for j := 0; j < i; j++ {
				os.Remove(filepath.Join(c.dir, names[j]))
			}
			for _, p := range staged[i:] {
				os.Remove(p)
			}
			return nil, fmt.Errorf("commit %s: %w", names[i], err)
		}
	}
	return names, nil
}

// stagePage encodes one page into a hidden temp file inside the artifact
// directory so the final rename stays on one filesystem.
func (c *Cache) stagePage(page image.Image, cfg models.RenderConfig) (string, error) {
	tmp, err := os.CreateTemp(c.dir, ".render-*.tmp")
	if err != nil {
		return "", err
	}
	name := tmp.Name()

	w := bufio.NewWriter(tmp)
	err = encodePage(w, page, cfg.MaxWidth, cfg.Quality)
	if err == nil {
		err = w.Flush()
	}
	if err == nil {
		err = tmp.Sync()
	}
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Chmod(name, 0o644)
	}
	if err != nil {
		os.Remove(name)
		return "", err
	}
	return name, nil
}

// DetectOrientation reads the first page's dimensions. Anything that prevents
// reading it yields portrait.
func (c *Cache) DetectOrientation(documentID string) models.Orientation {
	names, err := c.ArtifactsFor(documentID)
	if err != nil || len(names) == 0 {
		return models.OrientationPortrait
	}

	f, err := os.Open(filepath.Join(c.dir, names[0]))
	if err != nil {
		return models.OrientationPortrait
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		c.logger.Debug("unreadable first page", "document", documentID, "error", err)
		return models.OrientationPortrait
	}
	if cfg.Width >= cfg.Height {
		return models.OrientationLandscape
	}
	return models.OrientationPortrait
}

// Evict deletes every artifact of a document and returns the names removed.
// Files that vanish concurrently are ignored.
func (c *Cache) Evict(documentID string) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	names, err := c.listLocked(documentID)
	if err != nil {
		return nil, err
	}

	removed := make([]string, 0, len(names))
	var errs []error
	for _, name := range names {
		err := os.Remove(filepath.Join(c.dir, name))
		switch {
		case err == nil:
			removed = append(removed, name)
		case errors.Is(err, fs.ErrNotExist):
		default:
			errs = append(errs, err)
		}
	}

	artifactsEvicted.Add(float64(len(removed)))
	if len(removed) > 0 {
		c.logger.Info("artifacts evicted", "document", documentID, "count", len(removed))
	}
	return removed, errors.Join(errs...)
}
