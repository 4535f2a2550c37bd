package catalog

import (
	"context"
	"encoding/json"
	"log/slog"

	"quickref/internal/domain"
	models "quickref/internal/domain/models/catalog"
	"quickref/internal/domain/repositories"
)

// TreeKey is the DurableStore key of the category tree.
const TreeKey = "extracts"

// Tree is the persisted category namespace.
//
// Reads are served from a single cached copy; mutations are serialized and
// each one persists the whole tree before it becomes visible.
type Tree struct {
	slot   *stateSlot[*models.Node]
	logger *slog.Logger
}

// NewTree creates a tree backed by store.
func NewTree(store repositories.DurableStore, logger *slog.Logger) *Tree {
	t := &Tree{logger: logger}
	t.slot = newStateSlot(store, TreeKey, codec[*models.Node]{
		decode: t.decode,
		encode: func(n *models.Node) ([]byte, error) { return json.MarshalIndent(n, "", "  ") },
		empty:  models.NewNode,
		clone:  (*models.Node).Clone,
	}, logger)
	return t
}

func (t *Tree) decode(data []byte) (*models.Node, error) {
	root, stats, err := models.DecodeTree(data)
	if err != nil {
		return nil, err
	}
	if stats.Upgraded > 0 {
		t.logger.Info("legacy category lists upgraded", "count", stats.Upgraded)
	}
	if len(stats.Dropped) > 0 {
		t.logger.Warn("non-category entries dropped from catalog",
			"count", len(stats.Dropped), "keys", stats.Dropped)
	}
	return root, nil
}

// Resolve returns a copy of the node at path. ok is false when any segment
// is missing.
func (t *Tree) Resolve(ctx context.Context, path []string) (*models.Node, bool, error) {
	root, err := t.slot.read(ctx)
	if err != nil {
		return nil, false, err
	}
	node, ok := root.Lookup(path)
	if !ok {
		return nil, false, nil
	}
	return node.Clone(), true, nil
}

// FilesAt lists the documents registered directly at path in registration
// order. An existing empty node yields an empty slice; a missing one is
// NotFound.
func (t *Tree) FilesAt(ctx context.Context, path []string) ([]string, error) {
	root, err := t.slot.read(ctx)
	if err != nil {
		return nil, err
	}
	node, ok := root.Lookup(path)
	if !ok {
		return nil, &domain.NotFoundError{Resource: "category", Name: JoinPath(path)}
	}
	return append([]string{}, node.Files...), nil
}

// CollectFiles lists every document at path and below. A missing path
// yields nothing.
func (t *Tree) CollectFiles(ctx context.Context, path []string) ([]string, error) {
	root, err := t.slot.read(ctx)
	if err != nil {
		return nil, err
	}
	node, ok := root.Lookup(path)
	if !ok {
		return []string{}, nil
	}
	return node.CollectFiles(), nil
}

// RegisterFile creates path as needed and appends documentID to it. It
// reports false, without writing, when the document is already there.
func (t *Tree) RegisterFile(ctx context.Context, path []string, documentID string) (bool, error) {
	var added bool
	err := t.slot.mutate(ctx, func(root *models.Node) (bool, error) {
		added = root.EnsurePath(path).AddFile(documentID)
		return added, nil
	})
	if err != nil {
		return false, err
	}
	return added, nil
}

// RemoveFile unregisters documentID from path. Empty nodes are kept.
func (t *Tree) RemoveFile(ctx context.Context, path []string, documentID string) (bool, error) {
	var removed bool
	err := t.slot.mutate(ctx, func(root *models.Node) (bool, error) {
		node, ok := root.Lookup(path)
		if !ok {
			return false, nil
		}
		removed = node.RemoveFile(documentID)
		return removed, nil
	})
	if err != nil {
		return false, err
	}
	return removed, nil
}

// DeleteSubtree removes the node at path together with its descendants and
// returns the documents that were registered anywhere below it. Collection
// and deletion happen in the same critical section. removed is false when
// the path does not exist; the root is rejected.
func (t *Tree) DeleteSubtree(ctx context.Context, path []string) (collected []string, removed bool, err error) {
	if len(path) == 0 {
		return nil, false, &domain.InvalidPathError{Path: path, Reason: "the root category cannot be deleted"}
	}

	err = t.slot.mutate(ctx, func(root *models.Node) (bool, error) {
		node, ok := root.Lookup(path)
		if !ok {
			return false, nil
		}
		collected = node.CollectFiles()
		removed = root.DeleteChild(path)
		return removed, nil
	})
	if err != nil {
		return nil, false, err
	}
	return collected, removed, nil
}

// Snapshot returns a copy of the whole tree.
func (t *Tree) Snapshot(ctx context.Context) (*models.Node, error) {
	root, err := t.slot.read(ctx)
	if err != nil {
		return nil, err
	}
	return root.Clone(), nil
}

// Invalidate forces the next read to reload from the store.
func (t *Tree) Invalidate() {
	t.slot.invalidate()
}
