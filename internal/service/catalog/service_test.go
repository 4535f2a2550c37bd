package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quickref/internal/config"
	"quickref/internal/domain"
	models "quickref/internal/domain/models/catalog"
	catalogSvc "quickref/internal/domain/services/catalog"
)

func register(t *testing.T, h *harness, category, filename, source string) *models.Registration {
	t.Helper()
	reg, err := h.svc.RegisterDocument(context.Background(), &catalogSvc.RegisterDocumentRequest{
		Category: category,
		Filename: filename,
		Source:   []byte(source),
	})
	require.NoError(t, err)
	return reg
}

func TestService_RegisterThenDeleteCategory(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	reg := register(t, h, "a/b", "x.pdf", "%PDF x")
	assert.Equal(t, "x.pdf", reg.DocumentID)
	assert.Equal(t, []string{"a", "b"}, reg.Path)
	assert.True(t, reg.Added)
	assert.Equal(t, 1, h.pub.count())

	files, err := h.svc.FilesAt(ctx, []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, []string{"x.pdf"}, files)

	artifacts, err := h.cache.ArtifactsFor("x.pdf")
	require.NoError(t, err)
	assert.Equal(t, []string{"x_page1.jpg", "x_page2.jpg"}, artifacts)

	evicted, err := h.svc.RemoveSubtree(ctx, []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, []string{"x.pdf"}, evicted)
	assert.Equal(t, 2, h.pub.count())

	_, ok, err := h.tree.Resolve(ctx, []string{"a", "b"})
	require.NoError(t, err)
	assert.False(t, ok)

	for _, name := range artifacts {
		_, err := os.Stat(filepath.Join(h.cache.Dir(), name))
		assert.True(t, errors.Is(err, os.ErrNotExist), "%s should be evicted", name)
	}

	// source bytes survive category deletion
	exists, err := h.blobs.Exists(ctx, "x.pdf")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestService_RegisterTwiceIsIdempotent(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	first := register(t, h, "AIR", "chart.pdf", "%PDF same")
	second := register(t, h, "AIR", "chart.pdf", "%PDF same")

	assert.True(t, first.Added)
	assert.False(t, second.Added)
	assert.Equal(t, first.Artifacts, second.Artifacts)
	assert.Equal(t, int32(1), h.raster.calls.Load())

	files, err := h.svc.FilesAt(ctx, []string{"AIR"})
	require.NoError(t, err)
	assert.Equal(t, []string{"chart.pdf"}, files)
}

func TestService_ConcurrentRegistrationsKeepBoth(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	var wg sync.WaitGroup
	for _, tc := range []struct{ category, name string }{{"a", "x.pdf"}, {"b", "y.pdf"}, {"c/d", "z.pdf"}, {"a", "w.pdf"}} {
		wg.Add(1)
		go func(category, name string) {
			defer wg.Done()
			_, err := h.svc.RegisterDocument(ctx, &catalogSvc.RegisterDocumentRequest{
				Category: category,
				Filename: name,
				Source:   []byte("%PDF " + name),
			})
			assert.NoError(t, err)
		}(tc.category, tc.name)
	}
	wg.Wait()

	// a fresh tree over the same store sees every registration
	persisted := NewTree(h.state, discardLogger())
	all, err := persisted.CollectFiles(ctx, nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"x.pdf", "w.pdf", "y.pdf", "z.pdf"}, all)

	files, err := persisted.FilesAt(ctx, []string{"b"})
	require.NoError(t, err)
	assert.Equal(t, []string{"y.pdf"}, files)
}

func TestService_RegisterDefaultsAndSanitizes(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	reg := register(t, h, "  ", "../My Chart é.PDF", "%PDF")
	assert.Equal(t, "My_Chart_e.PDF", reg.DocumentID)
	assert.Equal(t, []string{config.DefaultCategory}, reg.Path)

	files, err := h.svc.FilesAt(ctx, []string{config.DefaultCategory})
	require.NoError(t, err)
	assert.Equal(t, []string{"My_Chart_e.PDF"}, files)
}

func TestService_RegisterRejectsBadInput(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  catalogSvc.RegisterDocumentRequest
		want error
	}{
		{"not a pdf", catalogSvc.RegisterDocumentRequest{Category: "a", Filename: "notes.txt", Source: []byte("x")}, domain.ErrValidation},
		{"nothing left after sanitizing", catalogSvc.RegisterDocumentRequest{Category: "a", Filename: "***", Source: []byte("x")}, domain.ErrValidation},
		{"empty source", catalogSvc.RegisterDocumentRequest{Category: "a", Filename: "a.pdf"}, domain.ErrValidation},
		{"reserved segment", catalogSvc.RegisterDocumentRequest{Category: "a/__files__", Filename: "a.pdf", Source: []byte("x")}, domain.ErrInvalidPath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			_, err := h.svc.RegisterDocument(ctx, &req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.Equal(t, 0, h.pub.count())
	assert.Equal(t, 0, h.state.saves)
}

func TestService_RenderFailureDoesNotRegister(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	_, err := h.svc.RegisterDocument(ctx, &catalogSvc.RegisterDocumentRequest{
		Category: "a",
		Filename: "broken.pdf",
		Source:   []byte("BAD bytes"),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRenderFailed)
	assert.ErrorIs(t, err, errCorrupt)

	_, err = h.svc.FilesAt(ctx, []string{"a"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, 0, h.pub.count())

	exists, err := h.blobs.Exists(ctx, "broken.pdf")
	require.NoError(t, err)
	assert.True(t, exists, "source is kept for a retry")
}

func TestService_ReplacingSourceEvictsOldPages(t *testing.T) {
	h := newHarness(t)

	register(t, h, "a", "x.pdf", "%PDF v1")
	h.raster.pages = 3
	reg := register(t, h, "a", "x.pdf", "%PDF v2")

	assert.Equal(t, []string{"x_page1.jpg", "x_page2.jpg", "x_page3.jpg"}, reg.Artifacts)
	assert.Equal(t, int32(2), h.raster.calls.Load())
}

func TestService_RemoveDocument(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	register(t, h, "a", "x.pdf", "%PDF")
	register(t, h, "a", "y.pdf", "%PDF y")

	require.NoError(t, h.svc.RemoveDocument(ctx, []string{"a"}, "x.pdf"))

	files, err := h.svc.FilesAt(ctx, []string{"a"})
	require.NoError(t, err)
	assert.Equal(t, []string{"y.pdf"}, files)

	artifacts, err := h.cache.ArtifactsFor("x.pdf")
	require.NoError(t, err)
	assert.Empty(t, artifacts)

	exists, err := h.blobs.Exists(ctx, "x.pdf")
	require.NoError(t, err)
	assert.True(t, exists)

	err = h.svc.RemoveDocument(ctx, []string{"a"}, "x.pdf")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestService_RemoveSubtreeErrors(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	_, err := h.svc.RemoveSubtree(ctx, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidPath)

	_, err = h.svc.RemoveSubtree(ctx, []string{"ghost"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, 0, h.pub.count())
}

func TestService_RemoveSubtreeReportsEachDocumentOnce(t *testing.T) {
	tests := []struct {
		name       string
		categories []string
		remove     []string
		want       []string
	}{
		{"parent and child", []string{"a", "a/b"}, []string{"a"}, []string{"x.pdf"}},
		{"siblings", []string{"a/b", "a/c"}, []string{"a"}, []string{"x.pdf"}},
		{"single", []string{"a/b"}, []string{"a"}, []string{"x.pdf"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			h := newHarness(t)
			for _, category := range tt.categories {
				register(t, h, category, "x.pdf", "%PDF x")
			}

			evicted, err := h.svc.RemoveSubtree(ctx, tt.remove)
			require.NoError(t, err)
			assert.Equal(t, tt.want, evicted)

			artifacts, err := h.cache.ArtifactsFor("x.pdf")
			require.NoError(t, err)
			assert.Empty(t, artifacts)
		})
	}
}

func TestService_OpenDocument(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	register(t, h, "a/b", "x.pdf", "%PDF")

	opened, err := h.svc.OpenDocument(ctx, []string{"a", "b"}, "x.pdf")
	require.NoError(t, err)
	assert.Equal(t, "x.pdf", opened.DocumentID)
	assert.Equal(t, []string{"x_page1.jpg", "x_page2.jpg"}, opened.Artifacts)
	assert.Equal(t, models.OrientationPortrait, opened.Orientation)
}

func TestService_OpenDocumentRendersMissingPages(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	register(t, h, "a", "x.pdf", "%PDF")

	_, err := h.cache.Evict("x.pdf")
	require.NoError(t, err)

	opened, err := h.svc.OpenDocument(ctx, []string{"a"}, "x.pdf")
	require.NoError(t, err)
	assert.Len(t, opened.Artifacts, 2)
	assert.Equal(t, int32(2), h.raster.calls.Load())
}

func TestService_OpenDocumentNotFound(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	register(t, h, "a", "x.pdf", "%PDF")

	_, err := h.svc.OpenDocument(ctx, []string{"missing"}, "x.pdf")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = h.svc.OpenDocument(ctx, []string{"a"}, "other.pdf")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, os.Remove(filepath.Join(h.blobs.Dir(), "x.pdf")))
	_, err = h.svc.OpenDocument(ctx, []string{"a"}, "x.pdf")
	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "source", nf.Resource)
}

func TestService_OpenByIndex(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	register(t, h, "SID", "first.pdf", "%PDF 1")
	register(t, h, "SID", "second.pdf", "%PDF 2")

	opened, err := h.svc.OpenByIndex(ctx, []string{"SID"}, 2)
	require.NoError(t, err)
	assert.Equal(t, "second.pdf", opened.DocumentID)

	for _, idx := range []int{0, 3, -1} {
		_, err := h.svc.OpenByIndex(ctx, []string{"SID"}, idx)
		assert.ErrorIs(t, err, domain.ErrNotFound, "index %d", idx)
	}
}

func TestService_ListingAndHome(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	home, err := h.svc.HomeFiles(ctx)
	require.NoError(t, err)
	assert.Empty(t, home)

	register(t, h, config.HomeCategory, "home.pdf", "%PDF h")
	register(t, h, "AIR/SID", "only.pdf", "%PDF o")
	register(t, h, "GND", "g1.pdf", "%PDF g1")
	register(t, h, "GND", "g2.pdf", "%PDF g2")

	home, err = h.svc.HomeFiles(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"home.pdf"}, home)

	cats, err := h.svc.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"AIR", "GND"}, cats)

	listing, err := h.svc.ListCategory(ctx, []string{"AIR", "SID"})
	require.NoError(t, err)
	assert.Equal(t, "only.pdf", listing.AutoOpen)

	listing, err = h.svc.ListCategory(ctx, []string{"GND"})
	require.NoError(t, err)
	assert.Empty(t, listing.AutoOpen)
	assert.Equal(t, []string{"g1.pdf", "g2.pdf"}, listing.Files)

	listing, err = h.svc.ListCategory(ctx, []string{"AIR"})
	require.NoError(t, err)
	assert.Equal(t, []string{"SID"}, listing.Children)
	assert.Empty(t, listing.Files)

	all, err := h.svc.CollectFiles(ctx, []string{"AIR"})
	require.NoError(t, err)
	assert.Equal(t, []string{"only.pdf"}, all)
}

func TestService_PersistFailureSurfaces(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	register(t, h, "a", "x.pdf", "%PDF")
	h.state.setFailSave(errors.New("read-only file system"))

	_, err := h.svc.RegisterDocument(ctx, &catalogSvc.RegisterDocumentRequest{
		Category: "b", Filename: "y.pdf", Source: []byte("%PDF y"),
	})
	assert.ErrorContains(t, err, "read-only file system")

	_, err = h.svc.FilesAt(ctx, []string{"b"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, 1, h.pub.count())
}
