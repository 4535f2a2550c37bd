package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"quickref/internal/domain"
	models "quickref/internal/domain/models/catalog"
	"quickref/internal/domain/repositories"
	catalogSvc "quickref/internal/domain/services/catalog"
)

// ChecklistKey is the DurableStore key of the checklist book.
const ChecklistKey = "checklists"

// ErrInvalidChecklist is returned when a stored checklist value is neither a
// group nor a list of items.
var ErrInvalidChecklist = errors.New("invalid checklist structure")

// ChecklistBook holds nested checklist groups whose leaves are item lists:
//
//	{"AIR": {"Before start": ["Brakes set", "Doors closed"]}}
type ChecklistBook struct {
	slot      *stateSlot[map[string]any]
	publisher catalogSvc.Publisher
	logger    *slog.Logger
}

var _ catalogSvc.ChecklistService = (*ChecklistBook)(nil)

// NewChecklistBook creates a book backed by store. publisher may be nil.
func NewChecklistBook(store repositories.DurableStore, publisher catalogSvc.Publisher, logger *slog.Logger) *ChecklistBook {
	return &ChecklistBook{
		slot: newStateSlot(store, ChecklistKey, codec[map[string]any]{
			decode: decodeChecklists,
			encode: func(m map[string]any) ([]byte, error) { return json.MarshalIndent(m, "", "  ") },
			empty:  func() map[string]any { return map[string]any{} },
			clone:  func(m map[string]any) map[string]any { return cloneValue(m).(map[string]any) },
		}, logger),
		publisher: publisher,
		logger:    logger,
	}
}

func decodeChecklists(data []byte) (map[string]any, error) {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	if m == nil {
		m = map[string]any{}
	}
	return m, nil
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, child := range val {
			out[k] = cloneValue(child)
		}
		return out
	case []any:
		return append([]any(nil), val...)
	default:
		return val
	}
}

// TopLevel lists the top-level checklist groups, sorted.
func (b *ChecklistBook) TopLevel(ctx context.Context) ([]string, error) {
	root, err := b.slot.read(ctx)
	if err != nil {
		return nil, err
	}
	return sortedKeys(root), nil
}

// Lookup returns the group or item list at path.
func (b *ChecklistBook) Lookup(ctx context.Context, path []string) (*models.ChecklistEntry, error) {
	root, err := b.slot.read(ctx)
	if err != nil {
		return nil, err
	}

	var current any = root
	for _, seg := range path {
		group, ok := current.(map[string]any)
		if !ok {
			return nil, &domain.NotFoundError{Resource: "checklist", Name: seg}
		}
		current, ok = group[seg]
		if !ok {
			return nil, &domain.NotFoundError{Resource: "checklist", Name: seg}
		}
	}
	return entryFor(path, current)
}

func entryFor(path []string, value any) (*models.ChecklistEntry, error) {
	entry := &models.ChecklistEntry{Path: append([]string{}, path...)}
	switch val := value.(type) {
	case map[string]any:
		entry.Subcategories = sortedKeys(val)
	case []any:
		entry.IsList = true
		entry.Items = make([]string, 0, len(val))
		for _, item := range val {
			entry.Items = append(entry.Items, fmt.Sprint(item))
		}
	default:
		return nil, fmt.Errorf("%w at %q", ErrInvalidChecklist, JoinPath(path))
	}
	return entry, nil
}

// Save replaces the item list at path with the non-blank trimmed lines of
// text. Every ancestor must already exist as a group; the list itself is
// created when missing. An existing group cannot be overwritten by a list.
func (b *ChecklistBook) Save(ctx context.Context, path []string, text string) (*models.ChecklistEntry, error) {
	if len(path) == 0 {
		return nil, &domain.InvalidPathError{Path: path, Reason: "a checklist needs a name"}
	}
	if err := ValidatePath(path); err != nil {
		return nil, err
	}

	items := splitLines(text)
	err := b.slot.mutate(ctx, func(root map[string]any) (bool, error) {
		parent := root
		for _, seg := range path[:len(path)-1] {
			child, ok := parent[seg].(map[string]any)
			if !ok {
				return false, &domain.InvalidPathError{Path: path, Reason: fmt.Sprintf("%q is not a checklist group", seg)}
			}
			parent = child
		}

		last := path[len(path)-1]
		if _, isGroup := parent[last].(map[string]any); isGroup {
			return false, &domain.InvalidPathError{Path: path, Reason: "a checklist group cannot be replaced by a list"}
		}

		list := make([]any, len(items))
		for i, item := range items {
			list[i] = item
		}
		parent[last] = list
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	b.logger.Info("checklist saved", "path", JoinPath(path), "items", len(items))
	if b.publisher != nil {
		b.publisher.Publish()
	}
	return &models.ChecklistEntry{Path: append([]string{}, path...), Items: items, IsList: true}, nil
}

// Invalidate forces the next read to reload from the store.
func (b *ChecklistBook) Invalidate() {
	b.slot.invalidate()
}

func splitLines(text string) []string {
	items := []string{}
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			items = append(items, line)
		}
	}
	return items
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
