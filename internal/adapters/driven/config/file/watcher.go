package file

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/reinfect/internal/logger"
)

// reloadDebounce coalesces the burst of events editors emit on save.
const reloadDebounce = 200 * time.Millisecond

// PromptWatcher clears the prompt cache whenever a template file changes,
// so a long-running server picks up edits without a restart.
type PromptWatcher struct {
	store    *PromptStore
	watcher  *fsnotify.Watcher
	debounce time.Duration
	onReload func()
}

// NewPromptWatcher watches the store's prompt directory. The directory is
// created if it does not exist yet.
func NewPromptWatcher(store *PromptStore) (*PromptWatcher, error) {
	// Force lazy init so the directory and default files exist.
	store.initOnce.Do(store.initialise)
	if store.initErr != nil {
		return nil, fmt.Errorf("prepare prompt directory: %w", store.initErr)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(store.Dir()); err != nil {
		w.Close()
		return nil, fmt.Errorf("watch %s: %w", store.Dir(), err)
	}

	return &PromptWatcher{
		store:    store,
		watcher:  w,
		debounce: reloadDebounce,
	}, nil
}

// OnReload registers a callback invoked after each cache reload.
func (w *PromptWatcher) OnReload(fn func()) {
	w.onReload = fn
}

// Run processes file events until ctx is cancelled. It closes the
// underlying watcher on return.
func (w *PromptWatcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !isPromptEvent(event) {
				continue
			}
			logger.Debug("Prompt file changed: %s (%s)", filepath.Base(event.Name), event.Op)
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			w.store.Reload()
			logger.Info("Prompts reloaded from %s", w.store.Dir())
			if w.onReload != nil {
				w.onReload()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Prompt watcher error: %v", err)
		}
	}
}

// isPromptEvent reports whether event touches a template file.
func isPromptEvent(event fsnotify.Event) bool {
	if !strings.HasSuffix(event.Name, ".txt") {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
		event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)
}
