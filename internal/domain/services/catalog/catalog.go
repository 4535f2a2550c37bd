package catalog

import (
	"context"

	models "quickref/internal/domain/models/catalog"
)

// CatalogService is the surface the web layer and the admin CLI use.
type CatalogService interface {
	// RegisterDocument stores the source, renders its pages and registers it under the path.
	RegisterDocument(ctx context.Context, req *RegisterDocumentRequest) (*models.Registration, error)

	// RemoveDocument unregisters a document from one category and evicts its pages.
	// The source bytes are kept.
	RemoveDocument(ctx context.Context, path []string, documentID string) error

	// RemoveSubtree deletes a category and everything below it, returning the
	// documents whose pages were evicted.
	RemoveSubtree(ctx context.Context, path []string) ([]string, error)

	// OpenDocument returns the rendered pages of a registered document,
	// rendering them first if they are missing.
	OpenDocument(ctx context.Context, path []string, documentID string) (*models.OpenedDocument, error)

	// OpenByIndex opens the document at a 1-based position within a category.
	OpenByIndex(ctx context.Context, path []string, index int) (*models.OpenedDocument, error)

	// FilesAt lists documents registered directly at path, in registration order.
	FilesAt(ctx context.Context, path []string) ([]string, error)

	// CollectFiles lists every document at path and below.
	CollectFiles(ctx context.Context, path []string) ([]string, error)

	// ListCategory describes one category for display.
	ListCategory(ctx context.Context, path []string) (*models.CategoryListing, error)

	// HomeFiles lists the home quick-reference documents.
	HomeFiles(ctx context.Context) ([]string, error)

	// Categories lists top-level category names, excluding the home key.
	Categories(ctx context.Context) ([]string, error)

	// Snapshot returns a copy of the full category tree.
	Snapshot(ctx context.Context) (*models.Node, error)
}

// RegisterDocumentRequest carries an uploaded document.
type RegisterDocumentRequest struct {
	Category string // slash separated; empty registers under the default category
	Filename string // raw client filename; sanitized before use
	Source   []byte
}

// RenderCache turns source documents into ordered page images.
type RenderCache interface {
	ArtifactsFor(documentID string) ([]string, error)
	EnsureRendered(ctx context.Context, documentID string, source []byte, cfg models.RenderConfig) ([]string, error)
	DetectOrientation(documentID string) models.Orientation
	Evict(documentID string) ([]string, error)
}

// Publisher signals connected viewers that something changed.
type Publisher interface {
	Publish()
}

// ChecklistService reads and edits the checklist book.
type ChecklistService interface {
	Lookup(ctx context.Context, path []string) (*models.ChecklistEntry, error)
	Save(ctx context.Context, path []string, text string) (*models.ChecklistEntry, error)
	TopLevel(ctx context.Context) ([]string, error)
}
