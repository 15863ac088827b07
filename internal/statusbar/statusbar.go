// Package statusbar holds the status-bar contributions plugins register.
//
// Item ids are namespaced as "pluginID.itemID" so two plugins can never
// collide, and items are indexed per plugin so a disable can drop a
// plugin's whole contribution in one operation.
package statusbar

import (
	"sort"
	"sync"
)

// Item is a single status-bar contribution.
type Item struct {
	// ID is the namespaced id, "pluginID.itemID".
	ID       string
	PluginID string
	Text     string
	Icon     string
	OnClick  func()
}

// Registry stores status-bar items jointly by id and by owning plugin.
type Registry struct {
	mu sync.RWMutex

	items    map[string]*Item            // namespaced id -> item
	byPlugin map[string]map[string]*Item // plugin id -> namespaced id -> item
}

// NewRegistry creates an empty status-bar registry.
func NewRegistry() *Registry {
	return &Registry{
		items:    make(map[string]*Item),
		byPlugin: make(map[string]map[string]*Item),
	}
}

// Add registers an item under "pluginID.itemID" and returns the
// namespaced id together with an idempotent unregister closure.
// Re-adding the same id replaces the previous item.
func (r *Registry) Add(pluginID, itemID, text, icon string, onClick func()) (string, func()) {
	id := pluginID + "." + itemID
	item := &Item{ID: id, PluginID: pluginID, Text: text, Icon: icon, OnClick: onClick}

	r.mu.Lock()
	r.items[id] = item
	owned, ok := r.byPlugin[pluginID]
	if !ok {
		owned = make(map[string]*Item)
		r.byPlugin[pluginID] = owned
	}
	owned[id] = item
	r.mu.Unlock()

	var once sync.Once
	return id, func() {
		once.Do(func() {
			r.remove(pluginID, id)
		})
	}
}

// SetText updates the display text of an item. Returns false if the item
// does not exist.
func (r *Registry) SetText(id, text string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok {
		return false
	}
	item.Text = text
	return true
}

// Get returns an item by its namespaced id.
func (r *Registry) Get(id string) (*Item, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	item, ok := r.items[id]
	return item, ok
}

// Items returns all items sorted by id.
func (r *Registry) Items() []*Item {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make([]*Item, 0, len(r.items))
	for _, item := range r.items {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items
}

// ItemsForPlugin returns the items owned by a plugin, sorted by id.
func (r *Registry) ItemsForPlugin(pluginID string) []*Item {
	r.mu.RLock()
	defer r.mu.RUnlock()

	owned := r.byPlugin[pluginID]
	items := make([]*Item, 0, len(owned))
	for _, item := range owned {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items
}

// RemovePlugin drops every item the plugin owns.
func (r *Registry) RemovePlugin(pluginID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id := range r.byPlugin[pluginID] {
		delete(r.items, id)
	}
	delete(r.byPlugin, pluginID)
}

func (r *Registry) remove(pluginID, id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.items, id)
	if owned, ok := r.byPlugin[pluginID]; ok {
		delete(owned, id)
		if len(owned) == 0 {
			delete(r.byPlugin, pluginID)
		}
	}
}
