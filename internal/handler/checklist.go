package handler

import (
	"log/slog"
	"net/http"

	models "quickref/internal/domain/models/catalog"
	catalogSvc "quickref/internal/domain/services/catalog"
	"quickref/internal/httputil"
)

// ChecklistHandler serves checklist groups and lists.
type ChecklistHandler struct {
	checklists catalogSvc.ChecklistService
	logger     *slog.Logger
}

// NewChecklistHandler creates a new checklist handler
func NewChecklistHandler(checklists catalogSvc.ChecklistService, logger *slog.Logger) *ChecklistHandler {
	return &ChecklistHandler{
		checklists: checklists,
		logger:     logger,
	}
}

// Lookup returns the checklist group or item list at a path; the bare route
// lists the top-level groups
// GET /api/checklists/{path...}
func (h *ChecklistHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	path := categoryPath(r)

	if len(path) == 0 {
		top, err := h.checklists.TopLevel(r.Context())
		if err != nil {
			handleError(w, h.logger, err)
			return
		}
		httputil.RespondJSON(w, http.StatusOK, &models.ChecklistEntry{Path: []string{}, Subcategories: top})
		return
	}

	entry, err := h.checklists.Lookup(r.Context(), path)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, entry)
}
