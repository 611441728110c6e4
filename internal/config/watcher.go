package config

import (
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads a JSON store when its file changes on disk, so edits made
// by hand or by provisioning tooling reach the running service. Writes made
// through the store itself also trigger the callback, which is harmless:
// reapplying the state the controller already has is idempotent.
type Watcher struct {
	store   *JSONStore
	watcher *fsnotify.Watcher
}

// Watch starts watching the store's directory and invokes onReload after
// each change to the config file. Returns nil and
// logs a warning when the platform watcher is unavailable; hot reload is an
// extra, not a requirement.
func Watch(store *JSONStore, onReload func()) *Watcher {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		slog.Warn("config: could not create fsnotify watcher", "err", err)
		return nil
	}
	if err := fw.Add(filepath.Dir(store.Path())); err != nil {
		slog.Warn("config: could not watch config dir", "err", err)
		fw.Close()
		return nil
	}

	w := &Watcher{store: store, watcher: fw}
	go w.loop(onReload)
	return w
}

// Close stops the watcher. Safe on a nil receiver.
func (w *Watcher) Close() {
	if w != nil && w.watcher != nil {
		w.watcher.Close()
	}
}

func (w *Watcher) loop(onReload func()) {
	path := w.store.Path()
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			// Renames count: writeAtomic lands via a temp-file rename.
			if event.Name == path && (event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename)) {
				slog.Debug("config: file changed, reloading", "path", path)
				onReload()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("config: watcher error", "err", err)
		}
	}
}
