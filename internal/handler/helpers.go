package handler

import (
	"net/http"
	"path/filepath"
	"strings"

	"quickref/internal/service/catalog"
)

// categoryPath reads the {path...} wildcard as a category path.
func categoryPath(r *http.Request) []string {
	return catalog.ParsePath(r.PathValue("path"))
}

// flatName validates a file name taken from a URL: no directories, no dotfiles.
func flatName(name string) (string, bool) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") || strings.ContainsRune(name, '\\') {
		return "", false
	}
	return name, true
}
