package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	catalogSvc "quickref/internal/domain/services/catalog"
	"quickref/internal/httputil"
)

// CatalogHandler serves the read-only catalog views.
type CatalogHandler struct {
	catalog catalogSvc.CatalogService
	logger  *slog.Logger
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(catalog catalogSvc.CatalogService, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{
		catalog: catalog,
		logger:  logger,
	}
}

// HomeResponse is the landing page payload.
type HomeResponse struct {
	Home       []string `json:"home"`
	Categories []string `json:"categories"`
}

// Home returns the home quick references and the top-level categories
// GET /api/home
func (h *CatalogHandler) Home(w http.ResponseWriter, r *http.Request) {
	home, err := h.catalog.HomeFiles(r.Context())
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	categories, err := h.catalog.Categories(r.Context())
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, HomeResponse{Home: home, Categories: categories})
}

// Categories returns the full category tree
// GET /api/categories
func (h *CatalogHandler) Categories(w http.ResponseWriter, r *http.Request) {
	root, err := h.catalog.Snapshot(r.Context())
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, root)
}

// ListCategory describes one category
// GET /api/extracts/{path...}
func (h *CatalogHandler) ListCategory(w http.ResponseWriter, r *http.Request) {
	listing, err := h.catalog.ListCategory(r.Context(), categoryPath(r))
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, listing)
}

// OpenDocument returns the pages of one document, by name or 1-based index
// GET /api/viewer/{path...}?file=x.pdf
// GET /api/viewer/{path...}?index=2
func (h *CatalogHandler) OpenDocument(w http.ResponseWriter, r *http.Request) {
	path := categoryPath(r)
	query := r.URL.Query()

	if file := query.Get("file"); file != "" {
		opened, err := h.catalog.OpenDocument(r.Context(), path, file)
		if err != nil {
			handleError(w, h.logger, err)
			return
		}
		httputil.RespondJSON(w, http.StatusOK, opened)
		return
	}

	raw := query.Get("index")
	if raw == "" {
		httputil.RespondError(w, http.StatusBadRequest, "file or index query parameter is required")
		return
	}
	index, err := strconv.Atoi(raw)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "index must be an integer")
		return
	}

	opened, err := h.catalog.OpenByIndex(r.Context(), path, index)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, opened)
}
