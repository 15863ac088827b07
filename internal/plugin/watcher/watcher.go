// Package watcher keeps the plugin set in sync with disk. It watches the
// plugins directory, debounces bursts of file events per plugin, and
// reloads loaded plugins whose files changed.
package watcher

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/inkwell-editor/inkwell/internal/plugin"
)

// DefaultDebounce is how long a plugin's events must settle before a
// reload fires. Editors and package managers write many files in a burst;
// one reload at the end is enough.
const DefaultDebounce = 500 * time.Millisecond

// Manager is the lifecycle surface the watcher drives.
type Manager interface {
	Refresh() error
	Reload(id string) error
	Get(id string) (plugin.Info, bool)
}

// Watcher reloads plugins when their directories change. Reloads fire
// on debounce-timer goroutines; a shell that dispatches shortcuts or
// commands elsewhere must serialize that dispatch with these reloads,
// since a reload tears down the plugin's interpreter.
type Watcher struct {
	pluginsDir string
	manager    Manager
	log        *slog.Logger
	debounce   time.Duration

	fsw *fsnotify.Watcher

	mu      sync.Mutex
	pending map[string]*time.Timer
	closed  bool

	closeCh chan struct{}
	wg      sync.WaitGroup
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce overrides the settle window.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// New creates a watcher over the plugins directory.
func New(pluginsDir string, manager Manager, log *slog.Logger, opts ...Option) *Watcher {
	if log == nil {
		log = slog.Default()
	}
	w := &Watcher{
		pluginsDir: pluginsDir,
		manager:    manager,
		log:        log.With("component", "plugin-watcher"),
		debounce:   DefaultDebounce,
		pending:    make(map[string]*time.Timer),
		closeCh:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins watching. The plugins directory and each plugin directory
// inside it are registered; new plugin directories are picked up as they
// appear.
func (w *Watcher) Start() error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	w.fsw = fsw

	if err := fsw.Add(w.pluginsDir); err != nil {
		fsw.Close()
		return err
	}
	entries, err := os.ReadDir(w.pluginsDir)
	if err == nil {
		for _, entry := range entries {
			if entry.IsDir() {
				if err := fsw.Add(filepath.Join(w.pluginsDir, entry.Name())); err != nil {
					w.log.Warn("watch failed", "dir", entry.Name(), "error", err)
				}
			}
		}
	}

	w.wg.Add(1)
	go w.loop()
	return nil
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.closeCh:
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("watch error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	id := w.pluginIDFor(ev.Name)
	if id == "" {
		return
	}

	// A newly created plugin directory needs its own watch.
	if ev.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := w.fsw.Add(ev.Name); err != nil {
				w.log.Warn("watch failed", "dir", id, "error", err)
			}
		}
	}

	w.schedule(id)
}

// pluginIDFor maps an event path to the plugin directory it belongs to.
func (w *Watcher) pluginIDFor(path string) string {
	rel, err := filepath.Rel(w.pluginsDir, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return ""
	}
	parts := strings.SplitN(filepath.ToSlash(rel), "/", 2)
	if parts[0] == "" || strings.HasPrefix(parts[0], ".") {
		return ""
	}
	return parts[0]
}

// schedule arms (or re-arms) the plugin's debounce timer.
func (w *Watcher) schedule(id string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}
	if timer, ok := w.pending[id]; ok {
		timer.Reset(w.debounce)
		return
	}
	w.pending[id] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, id)
		closed := w.closed
		w.mu.Unlock()
		if closed {
			return
		}
		w.fire(id)
	})
}

// fire refreshes the plugin set and reloads the plugin if it was running.
// A plugin that is not loaded only gets its manifest re-read; enabling
// stays a user decision.
func (w *Watcher) fire(id string) {
	if err := w.manager.Refresh(); err != nil {
		w.log.Warn("refresh failed", "error", err)
		return
	}

	info, ok := w.manager.Get(id)
	if !ok || info.Status != plugin.StatusLoaded {
		return
	}

	w.log.Info("plugin changed on disk, reloading", "plugin", id)
	if err := w.manager.Reload(id); err != nil {
		w.log.Error("reload failed", "plugin", id, "error", err)
	}
}

// Close stops the watcher and cancels pending reloads.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	for id, timer := range w.pending {
		timer.Stop()
		delete(w.pending, id)
	}
	w.mu.Unlock()

	close(w.closeCh)
	var err error
	if w.fsw != nil {
		err = w.fsw.Close()
	}
	w.wg.Wait()
	return err
}
