// Package cleanup tracks the unregister operations a plugin accumulates
// while it is loaded, keyed by plugin id, so a disable can drop every
// registration in one pass.
package cleanup

import (
	"log/slog"
	"sync"
)

// Arena is an index-based registry of disposables. Every registration a
// plugin makes pushes its unregister closure here; DisposeAll drains the
// plugin's entries unconditionally. Draining twice is safe: entries are
// removed before their closures run, and the closures themselves are
// idempotent.
type Arena struct {
	mu    sync.Mutex
	items map[string][]func()
	log   *slog.Logger
}

// NewArena creates an empty arena.
func NewArena(log *slog.Logger) *Arena {
	if log == nil {
		log = slog.Default()
	}
	return &Arena{
		items: make(map[string][]func()),
		log:   log.With("component", "cleanup"),
	}
}

// Push records a disposable for the plugin. Nil disposables are ignored.
func (a *Arena) Push(pluginID string, dispose func()) {
	if dispose == nil {
		return
	}
	a.mu.Lock()
	a.items[pluginID] = append(a.items[pluginID], dispose)
	a.mu.Unlock()
}

// DisposeAll drains every disposable recorded for the plugin. Panicking
// disposables are recovered and logged so the drain always completes.
func (a *Arena) DisposeAll(pluginID string) {
	a.mu.Lock()
	drained := a.items[pluginID]
	delete(a.items, pluginID)
	a.mu.Unlock()

	for _, dispose := range drained {
		a.safeDispose(pluginID, dispose)
	}
}

// Count returns the number of live disposables for the plugin.
func (a *Arena) Count(pluginID string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.items[pluginID])
}

func (a *Arena) safeDispose(pluginID string, dispose func()) {
	defer func() {
		if rec := recover(); rec != nil {
			a.log.Error("disposable panicked", "plugin", pluginID, "panic", rec)
		}
	}()
	dispose()
}
