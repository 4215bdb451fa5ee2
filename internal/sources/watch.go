package sources

import (
	"context"
	"fmt"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the registry when the catalog file changes on disk. A
// reload that fails validation keeps the previous catalog and logs the
// error; the running process never ends up with a partial registry.
// Blocks until ctx is cancelled.
func (r *Registry) Watch(ctx context.Context, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if addErr := watcher.Add(path); addErr != nil {
		return fmt.Errorf("watch %s: %w", path, addErr)
	}
	r.log.Info("watching sources file", "path", path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			list, loadErr := LoadFile(path)
			if loadErr != nil {
				r.log.Error("sources reload failed, keeping previous catalog",
					"path", path, "error", loadErr)
				continue
			}
			r.replace(list)
			r.log.Info("sources reloaded", "path", path, "count", len(list))
		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			r.log.Error("sources watcher error", "error", watchErr)
		}
	}
}
