package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"quickref/internal/config"
	catalogSvc "quickref/internal/domain/services/catalog"
	"quickref/internal/httputil"
	"quickref/internal/service/catalog"
)

// AdminHandler handles catalog mutations. Every route is behind RequireAdmin.
type AdminHandler struct {
	catalog    catalogSvc.CatalogService
	checklists catalogSvc.ChecklistService
	publisher  catalogSvc.Publisher
	maxUpload  int64
	logger     *slog.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(
	catalog catalogSvc.CatalogService,
	checklists catalogSvc.ChecklistService,
	publisher catalogSvc.Publisher,
	logger *slog.Logger,
) *AdminHandler {
	return &AdminHandler{
		catalog:    catalog,
		checklists: checklists,
		publisher:  publisher,
		maxUpload:  config.MaxUploadBytes,
		logger:     logger,
	}
}

// UploadDocument registers an uploaded PDF under a category
// POST /admin/documents (multipart: file, category)
// Returns 201 when newly registered, 200 when it was already there
func (h *AdminHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			handleError(w, h.logger, err)
			return
		}
		httputil.RespondError(w, http.StatusBadRequest, "expected a multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	source, err := io.ReadAll(file)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	reg, err := h.catalog.RegisterDocument(r.Context(), &catalogSvc.RegisterDocumentRequest{
		Category: r.FormValue("category"),
		Filename: header.Filename,
		Source:   source,
	})
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	h.audit(r, "admin upload", "document", reg.DocumentID, "added", reg.Added)

	status := http.StatusOK
	if reg.Added {
		status = http.StatusCreated
	}
	httputil.RespondJSON(w, status, reg)
}

// DeleteDocument unregisters a document from a category and evicts its pages
// DELETE /admin/documents?category=a/b&filename=x.pdf
func (h *AdminHandler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filename := query.Get("filename")
	if filename == "" {
		httputil.RespondError(w, http.StatusBadRequest, "filename is required")
		return
	}

	if err := h.catalog.RemoveDocument(r.Context(), catalog.ParsePath(query.Get("category")), filename); err != nil {
		handleError(w, h.logger, err)
		return
	}
	h.audit(r, "admin delete document", "document", filename)
	w.WriteHeader(http.StatusNoContent)
}

// DeleteCategoryResponse lists the documents whose pages were evicted.
type DeleteCategoryResponse struct {
	Category []string `json:"category"`
	Evicted  []string `json:"evicted"`
}

// DeleteCategory removes a category and everything below it
// DELETE /admin/categories?category=a/b
func (h *AdminHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	path := catalog.ParsePath(r.URL.Query().Get("category"))

	evicted, err := h.catalog.RemoveSubtree(r.Context(), path)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	if evicted == nil {
		evicted = []string{}
	}
	h.audit(r, "admin delete category", "path", catalog.JoinPath(path))
	httputil.RespondJSON(w, http.StatusOK, DeleteCategoryResponse{Category: path, Evicted: evicted})
}

// SaveChecklistRequest replaces one checklist's items.
type SaveChecklistRequest struct {
	Path string `json:"path"`
	Text string `json:"text"`
}

// SaveChecklist replaces a checklist with the lines of the submitted text
// PUT /admin/checklists (JSON or form: path, text)
func (h *AdminHandler) SaveChecklist(w http.ResponseWriter, r *http.Request) {
	var req SaveChecklistRequest
	if httputil.IsJSON(r) {
		if err := httputil.ParseJSON(w, r, &req); err != nil {
			httputil.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
	} else {
		req.Path = r.FormValue("path")
		req.Text = r.FormValue("text")
	}

	entry, err := h.checklists.Save(r.Context(), catalog.ParsePath(req.Path), req.Text)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, entry)
}

// audit logs an admin mutation with the session that made it.
func (h *AdminHandler) audit(r *http.Request, action string, attrs ...any) {
	if claims := httputil.GetSession(r); claims != nil {
		attrs = append(attrs, "session", claims.ID)
	}
	h.logger.Info(action, attrs...)
}

// TriggerRefresh tells every connected viewer to reload
// POST /trigger-refresh (and the legacy /trigger_refresh)
func (h *AdminHandler) TriggerRefresh(w http.ResponseWriter, r *http.Request) {
	h.publisher.Publish()
	h.audit(r, "refresh triggered")
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
