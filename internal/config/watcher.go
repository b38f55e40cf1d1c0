package config

import (
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads the config file when something else rewrites it (a
// provisioning tool, an editor) and hands the new config to the control loop.
type Watcher struct {
	store   *JSONStore
	watcher *fsnotify.Watcher
	changes chan Config
	done    chan struct{}
}

// NewWatcher starts watching the store's directory. Errors setting up the
// watch are logged and leave a watcher that never reports changes.
func NewWatcher(store *JSONStore) *Watcher {
	w := &Watcher{
		store:   store,
		changes: make(chan Config, 1),
		done:    make(chan struct{}),
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		slog.Warn("config: could not create fsnotify watcher", "err", err)
		close(w.done)
		return w
	}
	w.watcher = fw

	if err := fw.Add(filepath.Dir(store.Path())); err != nil {
		slog.Warn("config: could not watch config dir", "err", err)
	}

	go w.watchLoop()
	return w
}

// Changes delivers the latest config after each rewrite. Only the most
// recent pending change is kept.
func (w *Watcher) Changes() <-chan Config { return w.changes }

// Close stops the file watcher.
func (w *Watcher) Close() {
	if w.watcher != nil {
		w.watcher.Close()
		<-w.done
	}
}

func (w *Watcher) watchLoop() {
	defer close(w.done)
	path := w.store.Path()
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Name != path || !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) {
				continue
			}
			cfg, err := w.store.Load()
			if err != nil {
				slog.Warn("config: failed to reload config", "err", err)
				continue
			}
			slog.Debug("config: reloaded", "path", path)
			w.offer(*cfg)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("config: watcher error", "err", err)
		}
	}
}

func (w *Watcher) offer(cfg Config) {
	for {
		select {
		case w.changes <- cfg:
			return
		default:
		}
		select {
		case <-w.changes:
		default:
		}
	}
}
