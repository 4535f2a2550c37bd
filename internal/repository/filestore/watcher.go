package filestore

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ChangeHandler receives the keys whose files changed during one debounce window.
type ChangeHandler func(keys []string)

// Watcher reports edits made to state files by other processes (an operator
// fixing a JSON file by hand, catalogctl). Files whose content matches what
// the store itself last wrote are not reported.
//
// Changes are batched: the handler runs once the directory has been quiet
// for the debounce window.
type Watcher struct {
	store    *Store
	dir      string
	watcher  *fsnotify.Watcher
	handler  ChangeHandler
	debounce time.Duration
	logger   *slog.Logger

	stopOnce sync.Once
	done     chan struct{}
}

// DefaultDebounce is the quiet period before a batch of changes is delivered.
const DefaultDebounce = 150 * time.Millisecond

// NewWatcher creates a watcher for the store's directory. Call Start to begin.
func (s *Store) NewWatcher(handler ChangeHandler, debounce time.Duration) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		store:    s,
		dir:      s.dir,
		watcher:  fw,
		handler:  handler,
		debounce: debounce,
		logger:   s.logger,
		done:     make(chan struct{}),
	}, nil
}

// Start begins watching. The event loop exits when ctx is canceled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.watcher.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	go w.loop(ctx)
	w.logger.Info("watching state directory", "dir", w.dir)
	return nil
}

// Stop releases the underlying watcher. Safe to call multiple times.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		w.watcher.Close()
	})
}

func (w *Watcher) loop(ctx context.Context) {
	pending := make(map[string]struct{})
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.done:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
				continue
			}
			key := keyForFile(event.Name)
			if key == "" {
				continue
			}
			pending[key] = struct{}{}
			timer.Reset(w.debounce)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("state watcher error", "error", err)

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			keys := make([]string, 0, len(pending))
			for key := range pending {
				if w.store.changedExternally(key) {
					keys = append(keys, key)
				}
			}
			clear(pending)
			if len(keys) == 0 {
				continue
			}
			sort.Strings(keys)

			w.logger.Debug("state files changed", "keys", keys)
			w.handler(keys)
		}
	}
}
