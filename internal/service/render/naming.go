package render

import (
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// ImageExt is the extension of every page artifact.
const ImageExt = ".jpg"

const pageMarker = "_page"

// Stem returns the document name without directory or final extension
// ("guide.v2.pdf" -> "guide.v2").
func Stem(documentID string) string {
	base := filepath.Base(documentID)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ArtifactName is the name of page (1-based) of a document:
// {stem}_page{page}.jpg. Existing artifact directories depend on this exact form.
func ArtifactName(documentID string, page int) string {
	return Stem(documentID) + pageMarker + strconv.Itoa(page) + ImageExt
}

// pageNumber extracts the numeric suffix after the last "_page".
// Malformed suffixes sort as page 0.
func pageNumber(name string) int {
	stem := strings.TrimSuffix(name, ImageExt)
	idx := strings.LastIndex(stem, pageMarker)
	if idx < 0 {
		return 0
	}
	n, err := strconv.Atoi(stem[idx+len(pageMarker):])
	if err != nil {
		return 0
	}
	return n
}

// sortByPage orders artifact names by page number, keeping lexical order
// between equal keys.
func sortByPage(names []string) {
	sort.Strings(names)
	sort.SliceStable(names, func(i, j int) bool {
		return pageNumber(names[i]) < pageNumber(names[j])
	})
}

// ownsArtifact reports whether name is a page image of documentID. The text
// between "{stem}_page" and the extension must not hold another "_page", so
// "x.pdf" never claims the pages of "x_page1.pdf". Other non-numeric suffixes
// still belong to the document and sort as page 0.
func ownsArtifact(documentID, name string) bool {
	prefix := Stem(documentID) + pageMarker
	if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ImageExt) {
		return false
	}
	rest := strings.TrimSuffix(name[len(prefix):], ImageExt)
	return !strings.Contains(rest, pageMarker)
}
