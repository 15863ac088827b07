package api

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrNoSettingsTab is returned when a plugin has not registered a
// settings tab.
var ErrNoSettingsTab = errors.New("api: no settings tab registered")

// ControlKind classifies a declared settings control.
type ControlKind string

const (
	ControlHeading  ControlKind = "heading"
	ControlText     ControlKind = "text"
	ControlToggle   ControlKind = "toggle"
	ControlDropdown ControlKind = "dropdown"
)

// Control is one declared entry in a plugin's settings tab. The plugin
// describes its controls; how they render is the UI layer's business.
type Control struct {
	Kind        ControlKind
	Key         string
	Label       string
	Description string
	Placeholder string
	Options     []string
}

// TabBuilder produces the control layout for a plugin's settings tab.
// It is invoked lazily, each time the tab is opened, so the plugin can
// reflect its current settings in the layout.
type TabBuilder func() ([]Control, error)

// SettingsTabs holds at most one settings-tab builder per plugin.
type SettingsTabs struct {
	mu     sync.RWMutex
	serial uint64
	tabs   map[string]*tabEntry
}

type tabEntry struct {
	serial uint64
	build  TabBuilder
}

// NewSettingsTabs creates an empty settings-tab registry.
func NewSettingsTabs() *SettingsTabs {
	return &SettingsTabs{tabs: make(map[string]*tabEntry)}
}

// Register installs the builder for pluginID, replacing any previous
// one, and returns an idempotent unregister closure. A stale closure
// from a replaced registration is a no-op.
func (t *SettingsTabs) Register(pluginID string, build TabBuilder) func() {
	t.mu.Lock()
	t.serial++
	serial := t.serial
	t.tabs[pluginID] = &tabEntry{serial: serial, build: build}
	t.mu.Unlock()

	return func() {
		t.mu.Lock()
		if cur, ok := t.tabs[pluginID]; ok && cur.serial == serial {
			delete(t.tabs, pluginID)
		}
		t.mu.Unlock()
	}
}

// Has reports whether pluginID has a settings tab.
func (t *SettingsTabs) Has(pluginID string) bool {
	t.mu.RLock()
	_, ok := t.tabs[pluginID]
	t.mu.RUnlock()
	return ok
}

// Plugins returns the ids of all plugins with a settings tab, sorted.
func (t *SettingsTabs) Plugins() []string {
	t.mu.RLock()
	ids := make([]string, 0, len(t.tabs))
	for id := range t.tabs {
		ids = append(ids, id)
	}
	t.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

// Build invokes pluginID's tab builder and returns the declared
// controls. The builder runs outside the registry lock.
func (t *SettingsTabs) Build(pluginID string) ([]Control, error) {
	t.mu.RLock()
	entry, ok := t.tabs[pluginID]
	t.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoSettingsTab, pluginID)
	}
	return entry.build()
}

// RemovePlugin drops pluginID's settings tab if present.
func (t *SettingsTabs) RemovePlugin(pluginID string) {
	t.mu.Lock()
	delete(t.tabs, pluginID)
	t.mu.Unlock()
}
