package domain

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
type HTTPError interface {
	error
	StatusCode() int
}

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidPath  = errors.New("invalid path")
	ErrValidation   = errors.New("validation failed")
	ErrRenderFailed = errors.New("render failed")
	ErrUnauthorized = errors.New("unauthorized")
)

// NotFoundError indicates an unknown category, an unregistered document or
// missing source bytes.
type NotFoundError struct {
	Resource string // category, document, source, checklist
	Name     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.Name)
}

func (e *NotFoundError) StatusCode() int { return http.StatusNotFound }

// Is allows errors.Is() to match against ErrNotFound
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// InvalidPathError is returned before any mutation is attempted.
type InvalidPathError struct {
	Path   []string
	Reason string
}

func (e *InvalidPathError) Error() string {
	return fmt.Sprintf("invalid path %q: %s", strings.Join(e.Path, "/"), e.Reason)
}

func (e *InvalidPathError) StatusCode() int { return http.StatusBadRequest }

func (e *InvalidPathError) Is(target error) bool { return target == ErrInvalidPath }

// RenderFailedError wraps a rasterizer failure for a single document.
type RenderFailedError struct {
	Document string
	Err      error
}

func (e *RenderFailedError) Error() string {
	return fmt.Sprintf("render %s: %v", e.Document, e.Err)
}

func (e *RenderFailedError) Unwrap() error { return e.Err }

func (e *RenderFailedError) StatusCode() int { return http.StatusUnprocessableEntity }

func (e *RenderFailedError) Is(target error) bool { return target == ErrRenderFailed }
