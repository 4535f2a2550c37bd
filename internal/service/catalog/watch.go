package catalog

import (
	"log/slog"

	catalogSvc "quickref/internal/domain/services/catalog"
)

// NewStoreChangeHandler returns a callback for store change notifications.
// It drops the cached copy of every changed key and tells viewers to refresh
// when anything they display was touched.
func NewStoreChangeHandler(tree *Tree, book *ChecklistBook, publisher catalogSvc.Publisher, logger *slog.Logger) func(keys []string) {
	return func(keys []string) {
		changed := false
		for _, key := range keys {
			switch key {
			case TreeKey:
				tree.Invalidate()
			case ChecklistKey:
				book.Invalidate()
			default:
				continue
			}
			changed = true
		}
		if !changed {
			return
		}
		logger.Info("state changed on disk, reloading", "keys", keys)
		publisher.Publish()
	}
}
