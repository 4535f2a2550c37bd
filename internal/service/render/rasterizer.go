package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
)

// Rasterizer decodes every page of a source document into an image.
type Rasterizer interface {
	Decode(ctx context.Context, source []byte, dpi int) ([]image.Image, error)
}

// ErrNoPages is returned when a source decodes to zero pages.
var ErrNoPages = errors.New("document has no pages")

// PopplerRasterizer shells out to poppler's pdftoppm, the same decoder most
// PDF-to-image toolchains wrap.
type PopplerRasterizer struct {
	Bin string // path or name of pdftoppm
}

// NewPopplerRasterizer returns a rasterizer using bin (default "pdftoppm").
func NewPopplerRasterizer(bin string) *PopplerRasterizer {
	if bin == "" {
		bin = "pdftoppm"
	}
	return &PopplerRasterizer{Bin: bin}
}

// Available reports whether the pdftoppm binary can be found.
func (p *PopplerRasterizer) Available() bool {
	_, err := exec.LookPath(p.Bin)
	return err == nil
}

func (p *PopplerRasterizer) Decode(ctx context.Context, source []byte, dpi int) ([]image.Image, error) {
	if !bytes.HasPrefix(source, []byte("%PDF")) {
		return nil, errors.New("source is not a PDF document")
	}

	work, err := os.MkdirTemp("", "catalog-raster-*")
	if err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}
	defer os.RemoveAll(work)

	prefix := filepath.Join(work, "page")
	var stderr strings.Builder
	cmd := exec.CommandContext(ctx, p.Bin, "-r", fmt.Sprint(dpi), "-png", "-", prefix)
	cmd.Stdin = bytes.NewReader(source)
	cmd.Stdout = io.Discard
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s: %w: %s", p.Bin, err, strings.TrimSpace(stderr.String()))
	}

	// pdftoppm names pages page-1.png, page-01.png, ... depending on page count
	files, err := filepath.Glob(prefix + "-*.png")
	if err != nil {
		return nil, err
	}
	sortByRasterPage(files)

	pages := make([]image.Image, 0, len(files))
	for _, f := range files {
		img, err := imaging.Open(f)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", filepath.Base(f), err)
		}
		pages = append(pages, img)
	}
	if len(pages) == 0 {
		return nil, ErrNoPages
	}
	return pages, nil
}

// sortByRasterPage orders pdftoppm output files by their numeric page suffix.
func sortByRasterPage(files []string) {
	num := func(name string) int {
		base := strings.TrimSuffix(filepath.Base(name), ".png")
		n, _ := strconv.Atoi(base[strings.LastIndex(base, "-")+1:])
		return n
	}
	sort.SliceStable(files, func(i, j int) bool {
		return num(files[i]) < num(files[j])
	})
}
