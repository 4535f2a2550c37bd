package handler

import (
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"quickref/internal/httputil"
)

// StaticHandler serves page images and source documents from flat directories.
// Names are reused when a source is replaced, so responses are cacheable but
// revalidated through Last-Modified.
type StaticHandler struct {
	dir          string
	cacheControl string
	logger       *slog.Logger
}

// NewStaticHandler serves files from dir with the given Cache-Control value.
func NewStaticHandler(dir, cacheControl string, logger *slog.Logger) *StaticHandler {
	return &StaticHandler{
		dir:          dir,
		cacheControl: cacheControl,
		logger:       logger,
	}
}

// Serve sends one file
// GET /jpgs/{name}
// GET /pdfs/{name}
func (h *StaticHandler) Serve(w http.ResponseWriter, r *http.Request) {
	name, ok := flatName(r.PathValue("name"))
	if !ok {
		httputil.RespondError(w, http.StatusNotFound, "file not found")
		return
	}

	path := filepath.Join(h.dir, name)
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		httputil.RespondError(w, http.StatusNotFound, "file not found")
		return
	}

	if h.cacheControl != "" {
		w.Header().Set("Cache-Control", h.cacheControl)
	}
	http.ServeFile(w, r, path)
}
