package catalog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"

	"quickref/internal/config"
	"quickref/internal/domain"
	models "quickref/internal/domain/models/catalog"
	"quickref/internal/domain/repositories"
	catalogSvc "quickref/internal/domain/services/catalog"
)

// Service implements the catalog operations over the category tree, the
// source blob store and the render cache, publishing a refresh after every
// committed change.
type Service struct {
	tree      *Tree
	blobs     repositories.BlobStore
	renders   catalogSvc.RenderCache
	publisher catalogSvc.Publisher
	render    models.RenderConfig
	logger    *slog.Logger
}

var _ catalogSvc.CatalogService = (*Service)(nil)

// NewService wires the catalog.
func NewService(
	tree *Tree,
	blobs repositories.BlobStore,
	renders catalogSvc.RenderCache,
	publisher catalogSvc.Publisher,
	render models.RenderConfig,
	logger *slog.Logger,
) *Service {
	return &Service{
		tree:      tree,
		blobs:     blobs,
		renders:   renders,
		publisher: publisher,
		render:    render,
		logger:    logger,
	}
}

// RegisterDocument stores the source bytes, renders every page and only then
// adds the document to the tree, so a registered entry always has a source
// and artifacts behind it. A render failure leaves the tree untouched; the
// stored bytes are kept for a later retry.
func (s *Service) RegisterDocument(ctx context.Context, req *catalogSvc.RegisterDocumentRequest) (*models.Registration, error) {
	name := SanitizeFilename(req.Filename)
	if err := ValidateDocumentName(name); err != nil {
		return nil, err
	}
	if len(req.Source) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", domain.ErrValidation, name)
	}

	path := ParsePath(req.Category)
	if len(path) == 0 {
		path = []string{config.DefaultCategory}
	}
	if err := ValidatePath(path); err != nil {
		return nil, err
	}

	if err := s.replaceSource(ctx, name, req.Source); err != nil {
		return nil, err
	}

	artifacts, err := s.renders.EnsureRendered(ctx, name, req.Source, s.render)
	if err != nil {
		return nil, err
	}

	added, err := s.tree.RegisterFile(ctx, path, name)
	if err != nil {
		return nil, err
	}

	s.logger.Info("document registered",
		"path", JoinPath(path),
		"document", name,
		"pages", len(artifacts),
		"added", added,
	)
	s.publisher.Publish()

	return &models.Registration{
		DocumentID: name,
		Path:       path,
		Artifacts:  artifacts,
		Added:      added,
	}, nil
}

// replaceSource writes the source bytes. When different bytes were stored
// under the same name, the old artifacts are evicted first so they are not
// served for the new content.
func (s *Service) replaceSource(ctx context.Context, name string, source []byte) error {
	existing, err := s.blobs.Get(ctx, name)
	switch {
	case err == nil:
		if bytes.Equal(existing, source) {
			return nil
		}
		if _, err := s.renders.Evict(name); err != nil {
			return fmt.Errorf("evict stale pages of %s: %w", name, err)
		}
		s.logger.Info("source replaced, stale pages evicted", "document", name)
	case !errors.Is(err, domain.ErrNotFound):
		return fmt.Errorf("read source %s: %w", name, err)
	}

	if err := s.blobs.Put(ctx, name, source); err != nil {
		return fmt.Errorf("store source %s: %w", name, err)
	}
	return nil
}

// RemoveDocument unregisters a document from path, then evicts its pages.
// The source bytes are retained.
func (s *Service) RemoveDocument(ctx context.Context, path []string, documentID string) error {
	if err := ValidatePath(path); err != nil {
		return err
	}

	removed, err := s.tree.RemoveFile(ctx, path, documentID)
	if err != nil {
		return err
	}
	if !removed {
		return &domain.NotFoundError{Resource: "document", Name: JoinPath(append(slices.Clip(path), documentID))}
	}

	s.evict(documentID)
	s.logger.Info("document removed", "path", JoinPath(path), "document", documentID)
	s.publisher.Publish()
	return nil
}

// RemoveSubtree deletes a category with everything below it and evicts the
// pages of every document that was registered there.
func (s *Service) RemoveSubtree(ctx context.Context, path []string) ([]string, error) {
	if err := ValidatePath(path); err != nil {
		return nil, err
	}

	collected, removed, err := s.tree.DeleteSubtree(ctx, path)
	if err != nil {
		return nil, err
	}
	if !removed {
		return nil, &domain.NotFoundError{Resource: "category", Name: JoinPath(path)}
	}

	// A document filed in both a category and one of its descendants is
	// collected twice but evicted and reported once.
	seen := make(map[string]struct{}, len(collected))
	evicted := make([]string, 0, len(collected))
	for _, id := range collected {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		s.evict(id)
		evicted = append(evicted, id)
	}

	s.logger.Info("category removed", "path", JoinPath(path), "documents", len(evicted))
	s.publisher.Publish()
	return evicted, nil
}

// evict runs after the tree change has committed; a failure only leaves
// orphaned images behind, so it is logged rather than returned.
func (s *Service) evict(documentID string) {
	if _, err := s.renders.Evict(documentID); err != nil {
		s.logger.Error("failed to evict pages", "document", documentID, "error", err)
	}
}

// OpenDocument returns the pages of a document registered at path, rendering
// them first when they are missing.
func (s *Service) OpenDocument(ctx context.Context, path []string, documentID string) (*models.OpenedDocument, error) {
	if err := ValidatePath(path); err != nil {
		return nil, err
	}

	files, err := s.tree.FilesAt(ctx, path)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(files, documentID) {
		return nil, &domain.NotFoundError{Resource: "document", Name: documentID}
	}

	exists, err := s.blobs.Exists(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("check source %s: %w", documentID, err)
	}
	if !exists {
		return nil, &domain.NotFoundError{Resource: "source", Name: documentID}
	}

	artifacts, err := s.renders.ArtifactsFor(documentID)
	if err != nil {
		return nil, err
	}
	if len(artifacts) == 0 {
		source, err := s.blobs.Get(ctx, documentID)
		if err != nil {
			return nil, err
		}
		s.logger.Warn("pages missing on open, rendering", "document", documentID)
		if artifacts, err = s.renders.EnsureRendered(ctx, documentID, source, s.render); err != nil {
			return nil, err
		}
	}

	return &models.OpenedDocument{
		DocumentID:  documentID,
		Artifacts:   artifacts,
		Orientation: s.renders.DetectOrientation(documentID),
	}, nil
}

// OpenByIndex opens the document at the 1-based position index within path.
func (s *Service) OpenByIndex(ctx context.Context, path []string, index int) (*models.OpenedDocument, error) {
	if err := ValidatePath(path); err != nil {
		return nil, err
	}
	files, err := s.tree.FilesAt(ctx, path)
	if err != nil {
		return nil, err
	}
	if index < 1 || index > len(files) {
		return nil, &domain.NotFoundError{Resource: "document", Name: JoinPath(path) + "#" + strconv.Itoa(index)}
	}
	return s.OpenDocument(ctx, path, files[index-1])
}

func (s *Service) FilesAt(ctx context.Context, path []string) ([]string, error) {
	if err := ValidatePath(path); err != nil {
		return nil, err
	}
	return s.tree.FilesAt(ctx, path)
}

func (s *Service) CollectFiles(ctx context.Context, path []string) ([]string, error) {
	if err := ValidatePath(path); err != nil {
		return nil, err
	}
	return s.tree.CollectFiles(ctx, path)
}

// ListCategory describes the node at path. A category holding exactly one
// document names it in AutoOpen.
func (s *Service) ListCategory(ctx context.Context, path []string) (*models.CategoryListing, error) {
	if err := ValidatePath(path); err != nil {
		return nil, err
	}
	node, ok, err := s.tree.Resolve(ctx, path)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &domain.NotFoundError{Resource: "category", Name: JoinPath(path)}
	}

	listing := &models.CategoryListing{
		Path:     append([]string{}, path...),
		Files:    node.Files,
		Children: node.ChildNames(),
	}
	if len(path) == 0 {
		listing.Children = slices.DeleteFunc(listing.Children, func(name string) bool {
			return name == config.HomeCategory
		})
	}
	if len(node.Files) == 1 {
		listing.AutoOpen = node.Files[0]
	}
	return listing, nil
}

// HomeFiles lists the home quick references. A missing home category is empty.
func (s *Service) HomeFiles(ctx context.Context) ([]string, error) {
	files, err := s.tree.FilesAt(ctx, []string{config.HomeCategory})
	if errors.Is(err, domain.ErrNotFound) {
		return []string{}, nil
	}
	return files, err
}

// Categories lists the top-level categories, excluding the home key.
func (s *Service) Categories(ctx context.Context) ([]string, error) {
	listing, err := s.ListCategory(ctx, nil)
	if err != nil {
		return nil, err
	}
	return listing.Children, nil
}

func (s *Service) Snapshot(ctx context.Context) (*models.Node, error) {
	return s.tree.Snapshot(ctx)
}
