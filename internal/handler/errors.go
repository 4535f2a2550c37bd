package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"quickref/internal/domain"
	"quickref/internal/httputil"
)

// handleError converts domain errors to HTTP responses
func handleError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var renderErr *domain.RenderFailedError
	var pathErr *domain.InvalidPathError
	var maxBytesErr *http.MaxBytesError

	switch {
	case errors.As(err, &renderErr):
		httputil.RespondProblem(w, httputil.ProblemRenderFailed, renderErr.Error(), map[string]interface{}{
			"document": renderErr.Document,
		})
	case errors.As(err, &pathErr):
		httputil.RespondProblem(w, httputil.ProblemInvalidPath, err.Error(), map[string]interface{}{
			"path": pathErr.Path,
		})
	case errors.Is(err, domain.ErrInvalidPath):
		httputil.RespondProblem(w, httputil.ProblemInvalidPath, err.Error(), nil)
	case errors.Is(err, domain.ErrValidation):
		httputil.RespondProblem(w, httputil.ProblemValidation, err.Error(), nil)
	case errors.As(err, &maxBytesErr):
		httputil.RespondProblem(w, httputil.ProblemTooLarge, err.Error(), map[string]interface{}{
			"limit": maxBytesErr.Limit,
		})
	case errors.Is(err, domain.ErrNotFound):
		httputil.RespondProblem(w, httputil.ProblemNotFound, err.Error(), nil)
	case errors.Is(err, domain.ErrUnauthorized):
		httputil.RespondProblem(w, httputil.ProblemUnauthorized, err.Error(), nil)
	default:
		logger.Error("request failed", "error", err)
		httputil.RespondProblem(w, httputil.ProblemInternal, "internal server error", nil)
	}
}
