package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestArtifactName(t *testing.T) {
	assert.Equal(t, "x_page1.jpg", ArtifactName("x.pdf", 1))
	assert.Equal(t, "guide.v2_page12.jpg", ArtifactName("guide.v2.pdf", 12))
	assert.Equal(t, "noext_page3.jpg", ArtifactName("noext", 3))
}

func TestPageNumber(t *testing.T) {
	tests := []struct {
		name string
		want int
	}{
		{"x_page1.jpg", 1},
		{"x_page42.jpg", 42},
		{"a_page_page7.jpg", 7},
		{"x_pageX.jpg", 0},
		{"x_page.jpg", 0},
		{"nomarker.jpg", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, pageNumber(tt.name))
		})
	}
}

func TestOwnsArtifact(t *testing.T) {
	tests := []struct {
		doc  string
		name string
		want bool
	}{
		{"x.pdf", "x_page1.jpg", true},
		{"x.pdf", "x_page12.jpg", true},
		{"x.pdf", "x_pageX.jpg", true},
		{"x.pdf", "x_page1_page1.jpg", false},
		{"x_page1.pdf", "x_page1_page1.jpg", true},
		{"x_page1.pdf", "x_page1.jpg", false},
		{"x.pdf", "xy_page1.jpg", false},
		{"x.pdf", "x_page1.png", false},
		{"a[1].pdf", "a[1]_page2.jpg", true},
		{"why?.pdf", "whyz_page1.jpg", false},
	}
	for _, tt := range tests {
		t.Run(tt.doc+" "+tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ownsArtifact(tt.doc, tt.name))
		})
	}
}

func TestSortByRasterPage(t *testing.T) {
	files := []string{"/w/page-10.png", "/w/page-02.png", "/w/page-1.png"}
	sortByRasterPage(files)
	assert.Equal(t, []string{"/w/page-1.png", "/w/page-02.png", "/w/page-10.png"}, files)
}
